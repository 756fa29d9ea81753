package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/index"
	"github.com/poiesic/recall/storage"
	"github.com/poiesic/recall/vector"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name of ingestion spans.
const TracerName = "github.com/poiesic/recall/ingestion"

// Document is the input of Pipeline.Index.
type Document struct {
	ID       string
	Title    string
	Content  string
	DocType  string
	Metadata map[string]string
}

type Pipeline struct {
	store  *index.DocumentStore
	pool   *ants.Pool
	proc   processor
	writer *writer
	tracer trace.Tracer
	logger *slog.Logger
}

type Option func(*Pipeline) error

// WithPoolSize sets the number of documents processed concurrently.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithTracer sets the tracer used for ingestion spans.
// Default is the global otel tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Pipeline) error {
		if tracer != nil {
			p.tracer = tracer
		}
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	store *index.DocumentStore,
	repo storage.DocumentRepository,
	vectors vector.Index,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if vectors == nil {
		return nil, ErrIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		store:  store,
		pool:   pool,
		tracer: otel.Tracer(TracerName),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	p.writer = &writer{
		store:   store,
		repo:    repo,
		vectors: vectors,
		logger:  p.logger,
	}

	proc, err := newEmbeddingProcessor(provider.Embedder(), p.writer.commit, p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}
	p.proc = proc

	return p, nil
}

// Index chunks, embeds and persists docs, replacing documents with the same
// ID. Documents are processed concurrently; the IDs of the documents that
// were indexed are returned in input order along with the joined errors of
// those that failed.
func (p *Pipeline) Index(ctx context.Context, docs ...Document) ([]string, error) {
	ctx, span := p.tracer.Start(ctx, "ingestion.Index",
		trace.WithAttributes(attribute.Int("recall.documents", len(docs))))
	defer span.End()

	for _, d := range docs {
		if err := core.ValidateDocumentID(d.ID); err != nil {
			return nil, recordError(span, err)
		}
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
		ok   = make([]bool, len(docs))
	)
	for i, d := range docs {
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			if err := p.indexOne(ctx, d); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("document %s: %w", d.ID, err))
				mu.Unlock()
				return
			}
			ok[i] = true
		})
		if err != nil {
			wg.Done()
			mu.Lock()
			errs = append(errs, fmt.Errorf("document %s: %w", d.ID, err))
			mu.Unlock()
		}
	}
	wg.Wait()

	ids := make([]string, 0, len(docs))
	for i, d := range docs {
		if ok[i] {
			ids = append(ids, d.ID)
		}
	}
	span.SetAttributes(attribute.Int("recall.indexed", len(ids)))
	p.logger.Info("documents indexed", "requested", len(docs), "indexed", len(ids))

	if len(errs) > 0 {
		return ids, recordError(span, errors.Join(errs...))
	}
	return ids, nil
}

func (p *Pipeline) indexOne(ctx context.Context, d Document) error {
	previous, _ := p.store.GetDocument(d.ID)
	p.store.AddDocument(d.ID, d.Title, d.Content, d.DocType, d.Metadata)
	return p.reprocess(ctx, d.ID, previous)
}

// Update replaces the content of a stored document, re-chunks it and
// re-embeds it. Returns core.ErrNotFound for an unknown ID.
func (p *Pipeline) Update(ctx context.Context, id, content string) error {
	ctx, span := p.tracer.Start(ctx, "ingestion.Update",
		trace.WithAttributes(attribute.String("recall.document_id", id)))
	defer span.End()

	previous, _ := p.store.GetDocument(id)
	if err := p.store.UpdateDocument(id, content); err != nil {
		return recordError(span, err)
	}
	if err := p.reprocess(ctx, id, previous); err != nil {
		return recordError(span, err)
	}
	p.logger.Info("document updated", "id", id)
	return nil
}

// reprocess embeds and commits the stored document id. On failure the store
// is rolled back to previous.
func (p *Pipeline) reprocess(ctx context.Context, id string, previous *core.IndexedDocument) error {
	doc, ok := p.store.GetDocument(id)
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	if err := p.proc.process(ctx, doc); err != nil {
		p.writer.restore(ctx, id, previous)
		return err
	}
	if err := p.writer.dropStale(ctx, previous, doc); err != nil {
		p.logger.Warn("error deleting stale points", "id", id, "err", err)
	}
	return nil
}

// Remove deletes a document from the store, the vector index and the
// repository, and returns the removed document.
func (p *Pipeline) Remove(ctx context.Context, id string) (*core.IndexedDocument, error) {
	ctx, span := p.tracer.Start(ctx, "ingestion.Remove",
		trace.WithAttributes(attribute.String("recall.document_id", id)))
	defer span.End()

	doc, ok := p.store.RemoveDocument(id)
	if !ok {
		return nil, recordError(span, fmt.Errorf("%w: %s", core.ErrNotFound, id))
	}
	if err := p.writer.remove(ctx, doc); err != nil {
		return doc, recordError(span, err)
	}
	p.logger.Info("document removed", "id", id)
	return doc, nil
}

// Commit stores the embeddings carried by docs and upserts and persists them.
// The documents must already be in the store with the same chunking.
func (p *Pipeline) Commit(ctx context.Context, docs ...*core.IndexedDocument) error {
	return p.writer.commit(ctx, docs...)
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

func recordError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
