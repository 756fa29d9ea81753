package badger

import (
	"context"
	"testing"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPoints(t *testing.T, idx *VectorIndex) {
	t.Helper()
	err := idx.Upsert(context.Background(),
		vector.Point{ID: "a#1", Vector: []float32{1, 0, 0}, Metadata: map[string]string{core.MetaDocType: "legal"}},
		vector.Point{ID: "b#1", Vector: []float32{0.9, 0.1, 0}, Metadata: map[string]string{core.MetaDocType: "technical"}},
		vector.Point{ID: "c#1", Vector: []float32{0, 0, 1}, Metadata: map[string]string{core.MetaDocType: "legal"}},
	)
	require.NoError(t, err)
}

func TestVectorIndex_SearchKNN(t *testing.T) {
	docRepo, idx, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { idx.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	results, err := idx.SearchKNN(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	seedPoints(t, idx)

	results, err = idx.SearchKNN(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a#1", results[0].ID)
	assert.Equal(t, "b#1", results[1].ID)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
	assert.InDelta(t, 0.0, results[0].Distance, 1e-6)
	assert.Equal(t, "legal", results[0].Metadata[core.MetaDocType])

	for i := 0; i < len(results)-1; i++ {
		assert.GreaterOrEqual(t, results[i].Similarity, results[i+1].Similarity)
	}

	results, err = idx.SearchKNN(ctx, []float32{1, 0, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestVectorIndex_SearchFiltered(t *testing.T) {
	docRepo, idx, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { idx.Close(); docRepo.Close(); backend.Close() }()

	seedPoints(t, idx)

	legal := func(meta map[string]string) bool { return meta[core.MetaDocType] == "legal" }
	results, err := idx.SearchFiltered(context.Background(), []float32{1, 0, 0}, 2, legal)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a#1", results[0].ID)
	assert.Equal(t, "c#1", results[1].ID)
}

func TestVectorIndex_DimensionMismatch(t *testing.T) {
	docRepo, idx, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { idx.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()
	seedPoints(t, idx)
	assert.Equal(t, 3, idx.Dimension())

	err = idx.Upsert(ctx, vector.Point{ID: "d#1", Vector: []float32{1, 0}})
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)

	_, err = idx.SearchKNN(ctx, []float32{1, 0}, 3)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}

func TestVectorIndex_Delete(t *testing.T) {
	docRepo, idx, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { idx.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()
	seedPoints(t, idx)

	require.NoError(t, idx.Delete(ctx, "a#1", "unknown"))
	n, err := idx.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	results, err := idx.SearchKNN(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b#1", results[0].ID)
}

func TestVectorIndex_DimensionPersists(t *testing.T) {
	dir := t.TempDir()

	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	idx, err := NewVectorIndex(backend)
	require.NoError(t, err)
	seedPoints(t, idx)
	require.NoError(t, backend.Close())

	backend, err = OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()
	idx, err = NewVectorIndex(backend)
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Dimension())

	n, err := idx.Len()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
