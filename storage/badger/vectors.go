package badger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
	"github.com/poiesic/recall/vector"
)

// VectorIndex implements vector.Index over BadgerDB with a brute-force
// cosine scan. The dimension is fixed by the first upsert and persisted.
type VectorIndex struct {
	backend *Backend

	mu  sync.RWMutex
	dim int
}

var _ vector.Index = (*VectorIndex)(nil)

// NewVectorIndex creates a VectorIndex and loads the persisted dimension.
func NewVectorIndex(backend *Backend) (*VectorIndex, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	idx := &VectorIndex{backend: backend}
	err := backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(dimensionKey))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			dim, _, err := varint.Int.Unmarshal(val)
			if err != nil {
				return fmt.Errorf("%w: dimension: %w", storage.ErrSerializationFailed, err)
			}
			idx.dim = dim
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// Dimension returns the vector dimension, 0 while it is still unset.
func (v *VectorIndex) Dimension() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.dim
}

// Close is a no-op; the backend is owned by the caller.
func (v *VectorIndex) Close() error {
	return nil
}

// Len returns the number of stored points.
func (v *VectorIndex) Len() (int, error) {
	if v.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}
	return v.backend.countPrefix([]byte(pointPrefix))
}

// Upsert implements vector.Index.
func (v *VectorIndex) Upsert(ctx context.Context, points ...vector.Point) error {
	if v.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	dim := v.dim
	for _, p := range points {
		if dim == 0 {
			dim = len(p.Vector)
		}
		if len(p.Vector) != dim {
			return fmt.Errorf("%w: point %s has %d dimensions, want %d", core.ErrDimensionMismatch, p.ID, len(p.Vector), dim)
		}
	}

	err := v.backend.WithTx(func(tx *badger.Txn) error {
		if dim != v.dim {
			bs := make([]byte, varint.Int.Size(dim))
			varint.Int.Marshal(dim, bs)
			if err := tx.Set([]byte(dimensionKey), bs); err != nil {
				return err
			}
		}
		for _, p := range points {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := tx.Set(makePointKey(p.ID), storage.MarshalPoint(p)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}
	v.dim = dim
	return nil
}

// Delete implements vector.Index. Unknown IDs are ignored.
func (v *VectorIndex) Delete(ctx context.Context, ids ...string) error {
	if v.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return v.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := tx.Delete(makePointKey(id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// SearchKNN implements vector.Store.
func (v *VectorIndex) SearchKNN(ctx context.Context, query []float32, k int) ([]core.Candidate, error) {
	return v.search(ctx, query, k)
}

// SearchFiltered implements vector.Store. The predicate is applied after
// ranking k*OversampleFactor neighbors, as the in-memory index does.
func (v *VectorIndex) SearchFiltered(ctx context.Context, query []float32, k int, pred vector.Predicate) ([]core.Candidate, error) {
	candidates, err := v.search(ctx, query, k*vector.OversampleFactor)
	if err != nil {
		return nil, err
	}
	return vector.Filter(candidates, pred, k), nil
}

// search scans every point and keeps the k most similar to query.
func (v *VectorIndex) search(ctx context.Context, query []float32, k int) ([]core.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}
	if v.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	dim := v.Dimension()
	if dim != 0 && len(query) != dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, want %d", core.ErrDimensionMismatch, len(query), dim)
	}

	var candidates []core.Candidate
	err := v.backend.scanPrefix(ctx, []byte(pointPrefix), func(val []byte) error {
		p, err := storage.UnmarshalPoint(val)
		if err != nil {
			return err
		}
		candidates = append(candidates, vector.NewCandidate(p.ID, vector.CosineSimilarity(query, p.Vector), p.Metadata))
		return nil
	})
	if err != nil {
		return nil, err
	}

	vector.SortCandidates(candidates)
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}
