package storage

import (
	"context"
	"iter"

	"github.com/poiesic/recall/core"
)

// DocumentRepository persists indexed documents, chunks and embeddings included.
// Implementations must be thread-safe and support concurrent access.
type DocumentRepository interface {
	// SaveDocuments inserts or replaces documents by ID.
	SaveDocuments(ctx context.Context, docs ...*core.IndexedDocument) error

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id string) (*core.IndexedDocument, error)

	// DeleteDocuments removes documents by their IDs.
	// Returns ErrNotFound if any document doesn't exist; nothing is deleted then.
	DeleteDocuments(ctx context.Context, ids ...string) error

	// AllDocuments iterates over every stored document in ID order.
	// Iteration stops at the first error, which is yielded with a nil document.
	AllDocuments(ctx context.Context) iter.Seq2[*core.IndexedDocument, error]

	// CountDocuments returns the number of stored documents.
	CountDocuments(ctx context.Context) (int, error)

	// Close releases resources held by the repository. It does not close the
	// underlying backend.
	Close() error
}
