package reembed

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/recall/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentIterator_Batches(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		batchSize int
		want      []int
	}{
		{"empty", 0, 10, nil},
		{"single partial batch", 3, 10, []int{3}},
		{"exact batches", 6, 3, []int{3, 3}},
		{"trailing partial batch", 7, 3, []int{3, 3, 1}},
		{"default batch size", 5, 0, []int{5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv(t, tt.count)
			it := NewDocumentIterator(env.repo, tt.batchSize)

			var sizes []int
			var ids []string
			err := it.ForEach(context.Background(), func(docs []*core.IndexedDocument) error {
				sizes = append(sizes, len(docs))
				for _, d := range docs {
					ids = append(ids, d.ID)
				}
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, sizes)
			assert.IsIncreasing(t, ids)
		})
	}
}

func TestDocumentIterator_CallbackError(t *testing.T) {
	env := setupTestEnv(t, 5)
	it := NewDocumentIterator(env.repo, 2)

	boom := errors.New("boom")
	calls := 0
	err := it.ForEach(context.Background(), func(docs []*core.IndexedDocument) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestDocumentIterator_Cancelled(t *testing.T) {
	env := setupTestEnv(t, 5)
	it := NewDocumentIterator(env.repo, 2)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := it.ForEach(ctx, func(docs []*core.IndexedDocument) error {
		calls++
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
