package mock

import (
	"context"
	"hash/fnv"
	"sync/atomic"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/vector"
)

// MockEmbedder is a test double for ai.Embedder.
// It allows custom behavior injection via function fields.
type MockEmbedder struct {
	// EmbedTextFunc is called by EmbedText if set.
	// If nil, uses default deterministic behavior.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc is called by EmbedTexts if set.
	// If nil, uses default deterministic behavior.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	dim       int
	callCount atomic.Int64
}

var (
	_ ai.Embedder    = (*MockEmbedder)(nil)
	_ ai.Dimensioner = (*MockEmbedder)(nil)
)

// NewMockEmbedder creates a mock embedder producing ai.DefaultDimensions vectors.
// Note: Returns concrete type to allow test assertions.
func NewMockEmbedder() *MockEmbedder {
	return NewMockEmbedderWithDimensions(ai.DefaultDimensions)
}

// NewMockEmbedderWithDimensions creates a mock embedder producing dim-sized vectors.
func NewMockEmbedderWithDimensions(dim int) *MockEmbedder {
	if dim <= 0 {
		dim = ai.DefaultDimensions
	}
	return &MockEmbedder{dim: dim}
}

// Dimensions returns the size of generated vectors.
func (m *MockEmbedder) Dimensions() int {
	return m.dim
}

// EmbedText generates a deterministic embedding based on text hash.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.callCount.Add(1)

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return GenerateVector(text, m.dim), nil
}

// EmbedTexts generates deterministic embeddings for multiple texts.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.callCount.Add(1)

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = GenerateVector(text, m.dim)
	}
	return embeddings, nil
}

// CallCount returns the number of times any method was called.
func (m *MockEmbedder) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and injected behavior.
func (m *MockEmbedder) Reset() {
	m.callCount.Store(0)
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
}

// GenerateVector creates a deterministic unit vector from text.
// Components are drawn from a linear congruential generator seeded with the
// FNV-1a hash of the text and centred on zero.
func GenerateVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	v := make([]float32, dim)
	for i := range v {
		seed = seed*1664525 + 1013904223 // LCG constants
		v[i] = float32(seed%2000)/1000.0 - 1.0
	}
	return vector.Normalize(v)
}
