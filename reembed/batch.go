package reembed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/ingestion"
)

// Committer receives documents carrying fresh embeddings.
// *ingestion.Pipeline implements it.
type Committer interface {
	Commit(ctx context.Context, docs ...*core.IndexedDocument) error
}

var _ Committer = (*ingestion.Pipeline)(nil)

// BatchProcessor embeds one batch of documents and commits it.
type BatchProcessor struct {
	committer      Committer
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a BatchProcessor.
func NewBatchProcessor(committer Committer, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		committer:      committer,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds every chunk of docs, retrying embedding failures, and
// commits the documents. A commit whose chunking no longer matches is not
// retried.
func (bp *BatchProcessor) Process(ctx context.Context, docs []*core.IndexedDocument) error {
	if len(docs) == 0 {
		return nil
	}

	err := RetryWithBackoff(ctx, func() error {
		return ingestion.EmbedDocuments(ctx, bp.embedder, docs...)
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	err = RetryWithBackoff(ctx, func() error {
		err := bp.committer.Commit(ctx, docs...)
		if errors.Is(err, core.ErrEmbeddingMismatch) || errors.Is(err, core.ErrNotFound) {
			return Permanent(err)
		}
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to commit documents: %w", err)
	}

	return nil
}
