package vector

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/poiesic/recall/core"
)

// MemoryIndex is a brute-force Index held in process memory. The vector
// dimension is fixed by the first upserted point.
type MemoryIndex struct {
	mu     sync.RWMutex
	points map[string]Point
	dim    int
}

var _ Index = (*MemoryIndex)(nil)

// NewMemoryIndex creates an empty index. A positive dim fixes the dimension
// up front.
func NewMemoryIndex(dim int) *MemoryIndex {
	return &MemoryIndex{
		points: make(map[string]Point),
		dim:    max(dim, 0),
	}
}

// Dimension returns the vector dimension, 0 while it is still unset.
func (m *MemoryIndex) Dimension() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dim
}

// Len returns the number of points.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.points)
}

// Upsert implements Index.
func (m *MemoryIndex) Upsert(ctx context.Context, points ...Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dim := m.dim
	for _, p := range points {
		if dim == 0 {
			dim = len(p.Vector)
		}
		if len(p.Vector) != dim {
			return fmt.Errorf("%w: point %s has %d dimensions, want %d", core.ErrDimensionMismatch, p.ID, len(p.Vector), dim)
		}
	}

	m.dim = dim
	for _, p := range points {
		m.points[p.ID] = Point{
			ID:       p.ID,
			Vector:   slices.Clone(p.Vector),
			Metadata: maps.Clone(p.Metadata),
		}
	}
	return nil
}

// Delete implements Index.
func (m *MemoryIndex) Delete(ctx context.Context, ids ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.points, id)
	}
	return nil
}

// SearchKNN implements Store.
func (m *MemoryIndex) SearchKNN(ctx context.Context, query []float32, k int) ([]core.Candidate, error) {
	return m.search(ctx, query, k)
}

// SearchFiltered implements Store. It ranks k*OversampleFactor neighbors and
// keeps the first k accepted by pred.
func (m *MemoryIndex) SearchFiltered(ctx context.Context, query []float32, k int, pred Predicate) ([]core.Candidate, error) {
	candidates, err := m.search(ctx, query, k*OversampleFactor)
	if err != nil {
		return nil, err
	}
	return Filter(candidates, pred, k), nil
}

func (m *MemoryIndex) search(ctx context.Context, query []float32, k int) ([]core.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.dim != 0 && len(query) != m.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, want %d", core.ErrDimensionMismatch, len(query), m.dim)
	}

	candidates := make([]core.Candidate, 0, len(m.points))
	for _, p := range m.points {
		candidates = append(candidates, NewCandidate(p.ID, CosineSimilarity(query, p.Vector), p.Metadata))
	}
	SortCandidates(candidates)
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// Close implements Index.
func (m *MemoryIndex) Close() error {
	return nil
}
