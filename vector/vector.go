// Package vector defines the nearest-neighbor search contracts used by the
// query planner and the ingestion pipeline, plus the cosine math shared by the
// brute-force implementations.
package vector

import (
	"context"

	"github.com/poiesic/recall/core"
)

// Point is one embedded chunk as held by a vector index.
type Point struct {
	ID       string
	Vector   []float32
	Metadata map[string]string
}

// Predicate decides from a candidate's metadata whether it may be returned.
type Predicate func(metadata map[string]string) bool

// Store answers nearest-neighbor queries.
//
// Results are ordered by similarity, highest first. Similarity lies in [0,1]
// and each candidate's Distance is 1 - Similarity.
type Store interface {
	// SearchKNN returns up to k candidates closest to query.
	SearchKNN(ctx context.Context, query []float32, k int) ([]core.Candidate, error)

	// SearchFiltered returns up to k candidates closest to query whose
	// metadata satisfies pred.
	SearchFiltered(ctx context.Context, query []float32, k int, pred Predicate) ([]core.Candidate, error)
}

// Index is a Store that can be written to.
type Index interface {
	Store

	// Upsert inserts or replaces points by ID.
	Upsert(ctx context.Context, points ...Point) error

	// Delete removes points by ID. Unknown IDs are ignored.
	Delete(ctx context.Context, ids ...string) error

	// Close releases resources held by the index.
	Close() error
}

// OversampleFactor is how many more raw neighbors a filtered search inspects
// than it returns.
const OversampleFactor = 3
