package reembed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/recall/ai/mock"
	"github.com/poiesic/recall/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCommitter struct {
	calls int
	err   error
}

func (c *recordingCommitter) Commit(ctx context.Context, docs ...*core.IndexedDocument) error {
	c.calls++
	return c.err
}

func TestBatchProcessor_Process(t *testing.T) {
	env := setupTestEnv(t, 2)
	ctx := context.Background()

	docs := loadAll(t, env.repo)
	require.Len(t, docs, 2)

	processor := NewBatchProcessor(env.pipeline, constantEmbedder(16), 3, time.Millisecond)
	require.NoError(t, processor.Process(ctx, docs))

	for _, doc := range loadAll(t, env.repo) {
		require.NotEmpty(t, doc.Chunks)
		for _, c := range doc.Chunks {
			require.Len(t, c.Embedding, 16)
			assert.InDelta(t, 1.0, c.Embedding[0], 1e-6, "chunk vector should be normalized")
		}
		assert.InDelta(t, 1.0, doc.Embedding[0], 1e-6)

		stored, ok := env.store.GetDocument(doc.ID)
		require.True(t, ok)
		assert.Equal(t, doc.Embedding, stored.Embedding)
	}
}

func TestBatchProcessor_EmptyBatch(t *testing.T) {
	committer := &recordingCommitter{}
	processor := NewBatchProcessor(committer, mock.NewMockEmbedder(), 3, time.Millisecond)

	require.NoError(t, processor.Process(context.Background(), nil))
	assert.Zero(t, committer.calls)
}

func TestBatchProcessor_RetriesEmbedding(t *testing.T) {
	env := setupTestEnv(t, 1)
	docs := loadAll(t, env.repo)

	embedder := constantEmbedder(16)
	inner := embedder.EmbedTextsFunc
	attempts := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("temporary failure")
		}
		return inner(ctx, texts)
	}

	processor := NewBatchProcessor(env.pipeline, embedder, 3, time.Millisecond)
	require.NoError(t, processor.Process(context.Background(), docs))
	assert.Equal(t, 3, attempts)
}

func TestBatchProcessor_EmbeddingExhaustsRetries(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("service down")
	}
	committer := &recordingCommitter{}
	processor := NewBatchProcessor(committer, embedder, 2, time.Millisecond)

	doc := &core.IndexedDocument{ID: "a", Content: "text", Chunks: []core.Chunk{{Content: "text", EndPos: 4}}}
	err := processor.Process(context.Background(), []*core.IndexedDocument{doc})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrEmbedding)
	assert.Zero(t, committer.calls)
}

func TestBatchProcessor_MismatchIsNotRetried(t *testing.T) {
	committer := &recordingCommitter{err: core.ErrEmbeddingMismatch}
	processor := NewBatchProcessor(committer, mock.NewMockEmbedder(), 3, time.Millisecond)

	doc := &core.IndexedDocument{ID: "a", Content: "text", Chunks: []core.Chunk{{Content: "text", EndPos: 4}}}
	err := processor.Process(context.Background(), []*core.IndexedDocument{doc})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrEmbeddingMismatch)
	assert.Equal(t, 1, committer.calls)
}

func TestBatchProcessor_CommitRetried(t *testing.T) {
	committer := &recordingCommitter{err: errors.New("disk busy")}
	processor := NewBatchProcessor(committer, mock.NewMockEmbedder(), 3, time.Millisecond)

	doc := &core.IndexedDocument{ID: "a", Content: "text", Chunks: []core.Chunk{{Content: "text", EndPos: 4}}}
	err := processor.Process(context.Background(), []*core.IndexedDocument{doc})
	require.Error(t, err)
	assert.Equal(t, 3, committer.calls)
}
