package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDoc(id, content string) *core.IndexedDocument {
	return &core.IndexedDocument{
		ID:        id,
		Title:     "Title " + id,
		Content:   content,
		DocType:   "technical",
		Metadata:  map[string]string{"author": "System"},
		Embedding: []float32{1, 0},
		Chunks: []core.Chunk{{
			ID:       core.ChunkID(0, len(content), ""),
			Content:  content,
			StartPos: 0,
			EndPos:   len(content),
		}},
		IndexedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestDocumentRepository_SaveAndGet(t *testing.T) {
	docRepo, vectors, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() {
		vectors.Close()
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	doc := newDoc("doc-1", "Hello, world!")

	require.NoError(t, docRepo.SaveDocuments(ctx, doc))

	retrieved, err := docRepo.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, doc.Content, retrieved.Content)
	assert.Equal(t, doc.Chunks, retrieved.Chunks)
	assert.True(t, doc.IndexedAt.Equal(retrieved.IndexedAt))

	// Saving again replaces the record.
	doc.Content = "Replaced"
	doc.Chunks = nil
	require.NoError(t, docRepo.SaveDocuments(ctx, doc))
	retrieved, err = docRepo.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Replaced", retrieved.Content)
	assert.Empty(t, retrieved.Chunks)

	count, err := docRepo.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDocumentRepository_GetMissing(t *testing.T) {
	docRepo, vectors, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { vectors.Close(); docRepo.Close(); backend.Close() }()

	_, err = docRepo.GetDocument(context.Background(), "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDocumentRepository_Delete(t *testing.T) {
	docRepo, vectors, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { vectors.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()
	require.NoError(t, docRepo.SaveDocuments(ctx, newDoc("a", "alpha"), newDoc("b", "beta")))

	// A missing ID aborts the whole batch.
	err = docRepo.DeleteDocuments(ctx, "a", "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	count, err := docRepo.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, docRepo.DeleteDocuments(ctx, "a"))
	_, err = docRepo.GetDocument(ctx, "a")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	count, err = docRepo.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDocumentRepository_AllDocuments(t *testing.T) {
	docRepo, vectors, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { vectors.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()
	require.NoError(t, docRepo.SaveDocuments(ctx, newDoc("c", "gamma"), newDoc("a", "alpha"), newDoc("b", "beta")))

	var ids []string
	for doc, err := range docRepo.AllDocuments(ctx) {
		require.NoError(t, err)
		ids = append(ids, doc.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	// Breaking early must not yield an error.
	ids = ids[:0]
	for doc, err := range docRepo.AllDocuments(ctx) {
		require.NoError(t, err)
		ids = append(ids, doc.ID)
		break
	}
	assert.Equal(t, []string{"a"}, ids)
}

func TestDocumentRepository_Closed(t *testing.T) {
	docRepo, vectors, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	vectors.Close()
	docRepo.Close()
	require.NoError(t, backend.Close())

	ctx := context.Background()
	assert.ErrorIs(t, docRepo.SaveDocuments(ctx, newDoc("a", "alpha")), storage.ErrStorageClosed)
	_, err = docRepo.GetDocument(ctx, "a")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	for _, err := range docRepo.AllDocuments(ctx) {
		assert.ErrorIs(t, err, storage.ErrStorageClosed)
	}
}

func TestDocumentRepository_Reopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	docRepo, err := NewDocumentRepository(backend)
	require.NoError(t, err)
	require.NoError(t, docRepo.SaveDocuments(ctx, newDoc("persisted", "still here")))
	require.NoError(t, backend.Close())

	backend, err = OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()
	docRepo, err = NewDocumentRepository(backend)
	require.NoError(t, err)

	doc, err := docRepo.GetDocument(ctx, "persisted")
	require.NoError(t, err)
	assert.Equal(t, "still here", doc.Content)
}
