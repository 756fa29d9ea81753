package mock

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	e := NewMockEmbedderWithDimensions(32)
	ctx := context.Background()

	a, err := e.EmbedText(ctx, "bonjour")
	require.NoError(t, err)
	b, err := e.EmbedText(ctx, "bonjour")
	require.NoError(t, err)
	c, err := e.EmbedText(ctx, "au revoir")
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	var sum float64
	for _, f := range a {
		sum += float64(f) * float64(f)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
	assert.InDelta(t, 1.0, vector.CosineSimilarity(a, b), 1e-5)
}

func TestMockEmbedder_Batch(t *testing.T) {
	e := NewMockEmbedder()
	ctx := context.Background()

	vecs, err := e.EmbedTexts(ctx, []string{"x", "y"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Len(t, vecs[0], ai.DefaultDimensions)

	single, err := e.EmbedText(ctx, "y")
	require.NoError(t, err)
	assert.Equal(t, single, vecs[1])
	assert.Equal(t, 2, e.CallCount())
}

func TestMockEmbedder_Injection(t *testing.T) {
	e := NewMockEmbedder()
	boom := errors.New("boom")
	e.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, boom
	}

	_, err := e.EmbedText(context.Background(), "x")
	assert.ErrorIs(t, err, boom)

	e.Reset()
	assert.Equal(t, 0, e.CallCount())
	_, err = e.EmbedText(context.Background(), "x")
	assert.NoError(t, err)
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(ai.NewConfig(ai.WithProvider(ai.ProviderMock), ai.WithDimensions(8)))
	require.NoError(t, err)
	defer p.Close()

	v, err := p.Embedder().EmbedText(context.Background(), "x")
	require.NoError(t, err)
	assert.Len(t, v, 8)
}
