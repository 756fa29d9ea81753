package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/index"
	"github.com/poiesic/recall/storage"
	"github.com/poiesic/recall/vector"
)

// writer fans a committed document out to the store, the vector index and
// the repository.
type writer struct {
	store   *index.DocumentStore
	repo    storage.DocumentRepository
	vectors vector.Index
	logger  *slog.Logger
}

// commit copies the embeddings carried by docs into the store, then upserts
// the stored document's points and persists it. When persisting fails the
// upserted points are deleted and the store and index go back to the
// embeddings they held before.
func (w *writer) commit(ctx context.Context, docs ...*core.IndexedDocument) error {
	saved := make([]*core.IndexedDocument, 0, len(docs))
	before := make([]*core.IndexedDocument, 0, len(docs))
	var points []vector.Point
	for _, doc := range docs {
		if prior, ok := w.store.GetDocument(doc.ID); ok {
			before = append(before, prior)
		}
		vecs := make([][]float32, len(doc.Chunks))
		for i := range doc.Chunks {
			vecs[i] = doc.Chunks[i].Embedding
		}
		if err := w.store.SetEmbeddings(doc.ID, doc.Embedding, vecs); err != nil {
			return err
		}
		stored, ok := w.store.GetDocument(doc.ID)
		if !ok {
			return fmt.Errorf("%w: %s", core.ErrNotFound, doc.ID)
		}
		saved = append(saved, stored)
		points = append(points, vector.DocumentPoints(stored)...)
	}

	if len(points) > 0 {
		if err := w.vectors.Upsert(ctx, points...); err != nil {
			return fmt.Errorf("%w: %w", core.ErrVectorStore, err)
		}
	}
	if err := w.repo.SaveDocuments(ctx, saved...); err != nil {
		w.rollback(ctx, points, before)
		return err
	}
	w.logger.Debug("documents committed", "documents", len(saved), "points", len(points))
	return nil
}

// rollback deletes points and puts the documents in before back into the
// store and the index. Failures are logged; the caller already has an error.
func (w *writer) rollback(ctx context.Context, points []vector.Point, before []*core.IndexedDocument) {
	if len(points) > 0 {
		ids := make([]string, len(points))
		for i, p := range points {
			ids[i] = p.ID
		}
		if err := w.vectors.Delete(context.WithoutCancel(ctx), ids...); err != nil {
			w.logger.Error("error deleting uncommitted points", "points", len(ids), "err", err)
		}
	}
	for _, doc := range before {
		if err := w.store.Put(doc); err != nil {
			w.logger.Error("error restoring document", "id", doc.ID, "err", err)
		}
	}
	w.upsertPoints(ctx, before...)
}

// upsertPoints re-inserts the points of docs, logging failures.
func (w *writer) upsertPoints(ctx context.Context, docs ...*core.IndexedDocument) {
	var points []vector.Point
	for _, doc := range docs {
		points = append(points, vector.DocumentPoints(doc)...)
	}
	if len(points) == 0 {
		return
	}
	if err := w.vectors.Upsert(context.WithoutCancel(ctx), points...); err != nil {
		w.logger.Error("error restoring points", "points", len(points), "err", err)
	}
}

// dropStale deletes the points of previous that current no longer has.
func (w *writer) dropStale(ctx context.Context, previous, current *core.IndexedDocument) error {
	if previous == nil {
		return nil
	}
	keep := vector.DocumentPointIDs(current)
	var stale []string
	for _, id := range vector.DocumentPointIDs(previous) {
		if !slices.Contains(keep, id) {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	if err := w.vectors.Delete(ctx, stale...); err != nil {
		return fmt.Errorf("%w: %w", core.ErrVectorStore, err)
	}
	return nil
}

// remove deletes a document's points and its persisted record. A record that
// was never persisted is not an error.
func (w *writer) remove(ctx context.Context, doc *core.IndexedDocument) error {
	if ids := vector.DocumentPointIDs(doc); len(ids) > 0 {
		if err := w.vectors.Delete(ctx, ids...); err != nil {
			return fmt.Errorf("%w: %w", core.ErrVectorStore, err)
		}
	}
	if err := w.repo.DeleteDocuments(ctx, doc.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return nil
}

// restore puts previous back into the store and its points back into the
// index, or removes id from the store when there was no previous version.
func (w *writer) restore(ctx context.Context, id string, previous *core.IndexedDocument) {
	if previous == nil {
		w.store.RemoveDocument(id)
		return
	}
	if err := w.store.Put(previous); err != nil {
		w.logger.Error("error restoring document", "id", id, "err", err)
	}
	w.upsertPoints(ctx, previous)
}
