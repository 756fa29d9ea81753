package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/vector"
)

type embeddingProcessor struct {
	embedder ai.Embedder
	commit   func(ctx context.Context, docs ...*core.IndexedDocument) error
	logger   *slog.Logger
}

var _ processor = (*embeddingProcessor)(nil)

func newEmbeddingProcessor(embedder ai.Embedder, commit func(context.Context, ...*core.IndexedDocument) error, logger *slog.Logger) (processor, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if commit == nil {
		return nil, fmt.Errorf("commit function required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		embedder: embedder,
		commit:   commit,
		logger:   logger.With("processor", "embeddings"),
	}, nil
}

// process embeds every chunk of docs in one batch and commits the result.
func (ep *embeddingProcessor) process(ctx context.Context, docs ...*core.IndexedDocument) error {
	if err := EmbedDocuments(ctx, ep.embedder, docs...); err != nil {
		ep.logger.Error("error generating embeddings", "documents", len(docs), "err", err)
		return err
	}
	return ep.commit(ctx, docs...)
}

// EmbedDocuments assigns an embedding to every chunk of docs and sets each
// document embedding to the normalized mean of its chunk embeddings. All
// chunk texts go to the embedder in a single batch. Documents without chunks
// keep a nil embedding.
func EmbedDocuments(ctx context.Context, embedder ai.Embedder, docs ...*core.IndexedDocument) error {
	var texts []string
	for _, doc := range docs {
		for _, c := range doc.Chunks {
			texts = append(texts, c.Content)
		}
	}
	if len(texts) == 0 {
		for _, doc := range docs {
			doc.Embedding = nil
		}
		return nil
	}

	embeddings, err := embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrEmbedding, err)
	}
	if len(embeddings) != len(texts) {
		return fmt.Errorf("%w: expected %d embeddings, received %d", core.ErrEmbedding, len(texts), len(embeddings))
	}

	next := 0
	for _, doc := range docs {
		vecs := make([][]float32, len(doc.Chunks))
		for i := range doc.Chunks {
			vecs[i] = vector.Normalize(embeddings[next])
			doc.Chunks[i].Embedding = vecs[i]
			next++
		}
		doc.Embedding = vector.Mean(vecs)
	}
	return nil
}
