package reembed

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/recall/ai/mock"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/index"
	"github.com/poiesic/recall/ingestion"
	"github.com/poiesic/recall/storage"
	"github.com/poiesic/recall/storage/badger"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store    *index.DocumentStore
	repo     storage.DocumentRepository
	vectors  *badger.VectorIndex
	pipeline *ingestion.Pipeline
}

// setupTestEnv indexes count documents with a 16-dimension mock embedder.
func setupTestEnv(t *testing.T, count int) *testEnv {
	t.Helper()

	store, err := index.NewDocumentStore()
	require.NoError(t, err)

	repo, vectors, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)

	pipeline, err := ingestion.NewPipeline(store, repo, vectors,
		mock.NewMockProviderWithEmbedder(mock.NewMockEmbedderWithDimensions(16)))
	require.NoError(t, err)

	t.Cleanup(func() {
		pipeline.Release()
		vectors.Close()
		repo.Close()
		backend.Close()
	})

	if count > 0 {
		docs := make([]ingestion.Document, count)
		for i := range docs {
			docs[i] = ingestion.Document{
				ID:      fmt.Sprintf("doc-%03d", i),
				Title:   fmt.Sprintf("Document %d", i),
				Content: fmt.Sprintf("Content of document number %d.", i),
				DocType: "note",
			}
		}
		_, err = pipeline.Index(context.Background(), docs...)
		require.NoError(t, err)
	}

	return &testEnv{store: store, repo: repo, vectors: vectors, pipeline: pipeline}
}

// constantEmbedder returns the same unnormalized vector for every text.
func constantEmbedder(dim int) *mock.MockEmbedder {
	e := mock.NewMockEmbedderWithDimensions(dim)
	e.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			v := make([]float32, dim)
			v[0] = 3
			out[i] = v
		}
		return out, nil
	}
	return e
}

func loadAll(t *testing.T, repo storage.DocumentRepository) []*core.IndexedDocument {
	t.Helper()
	var docs []*core.IndexedDocument
	for doc, err := range repo.AllDocuments(context.Background()) {
		require.NoError(t, err)
		docs = append(docs, doc)
	}
	return docs
}
