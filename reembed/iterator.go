package reembed

import (
	"context"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

const (
	// DefaultBatchSize is the default number of documents in each batch
	DefaultBatchSize = 100
)

// DocumentIterator walks every persisted document in batches.
type DocumentIterator struct {
	repo      storage.DocumentRepository
	batchSize int
}

// NewDocumentIterator creates an iterator yielding batches of batchSize documents.
func NewDocumentIterator(repo storage.DocumentRepository, batchSize int) *DocumentIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &DocumentIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach calls fn with consecutive batches in document ID order. It stops
// at the first error from the repository or fn, and checks ctx between
// batches.
func (it *DocumentIterator) ForEach(ctx context.Context, fn func([]*core.IndexedDocument) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	batch := make([]*core.IndexedDocument, 0, it.batchSize)
	for doc, err := range it.repo.AllDocuments(ctx) {
		if err != nil {
			return err
		}
		batch = append(batch, doc)
		if len(batch) < it.batchSize {
			continue
		}

		if err := fn(batch); err != nil {
			return err
		}
		batch = make([]*core.IndexedDocument, 0, it.batchSize)

		if err := ctx.Err(); err != nil {
			return err
		}
	}

	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}
