// Package cache puts an expirable LRU in front of an ai.Embedder.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
)

// Embedder caches embeddings by the content id of the text.
type Embedder struct {
	next   ai.Embedder
	cache  *expirable.LRU[core.ID, []float32]
	logger *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// Wrap returns e behind a cache of size entries living for ttl. A non-positive
// size or ttl returns e unchanged.
func Wrap(e ai.Embedder, size int, ttl time.Duration, logger *slog.Logger) ai.Embedder {
	if e == nil || size <= 0 || ttl <= 0 {
		return e
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Embedder{
		next:   e,
		cache:  expirable.NewLRU[core.ID, []float32](size, nil, ttl),
		logger: logger.With("component", "embedding-cache"),
	}
}

// EmbedText implements ai.Embedder.
func (c *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	key := core.IDFromContent(text)
	if cached, ok := c.cache.Get(key); ok {
		c.logger.Debug("embedding cache hit")
		return cloneEmbedding(cached), nil
	}
	res, err := c.next.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, cloneEmbedding(res))
	return res, nil
}

// EmbedTexts implements ai.Embedder. Only the misses reach the wrapped embedder,
// in a single batch.
func (c *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		if cached, ok := c.cache.Get(core.IDFromContent(text)); ok {
			out[i] = cloneEmbedding(cached)
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missTexts) == 0 {
		c.logger.Debug("embedding cache hit", "count", len(texts))
		return out, nil
	}

	res, err := c.next.EmbedTexts(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, i := range missIdx {
		if j >= len(res) {
			break
		}
		out[i] = res[j]
		c.cache.Add(core.IDFromContent(missTexts[j]), cloneEmbedding(res[j]))
	}
	return out, nil
}

// Len returns the number of cached embeddings.
func (c *Embedder) Len() int {
	return c.cache.Len()
}

func cloneEmbedding(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
