// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package recall wires the retrieval components into a single Engine:
// badger persistence, an embedding provider, the in-memory document store,
// the ingestion pipeline and the searcher.
package recall

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/ai/cache"
	"github.com/poiesic/recall/ai/mock"
	"github.com/poiesic/recall/ai/openai"
	"github.com/poiesic/recall/chunker"
	"github.com/poiesic/recall/config"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/index"
	"github.com/poiesic/recall/ingestion"
	"github.com/poiesic/recall/query"
	"github.com/poiesic/recall/reembed"
	"github.com/poiesic/recall/rerank"
	"github.com/poiesic/recall/search"
	"github.com/poiesic/recall/storage"
	"github.com/poiesic/recall/storage/badger"
	"github.com/poiesic/recall/vector"
	"github.com/poiesic/recall/vector/qdrant"
)

// Document is the input of Engine.Index.
type Document = ingestion.Document

type Engine struct {
	cfg      *config.Config
	backend  *badger.Backend
	repo     storage.DocumentRepository
	vectors  vector.Index
	provider ai.AIProvider
	store    *index.DocumentStore
	pipeline *ingestion.Pipeline
	planner  *query.Planner
	reranker *rerank.Reranker
	searcher *search.Searcher
	pages    query.Paginator[core.RankedResult]
	logger   *slog.Logger

	// Set when the engine built the collaborator itself and must close it
	ownsVectors  bool
	ownsProvider bool
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	logger   *slog.Logger
	provider ai.AIProvider
	vectors  vector.Index
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// WithProvider replaces the embedding provider built from the [ai] section.
// The caller keeps ownership and closes it after the engine.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithVectorIndex replaces the vector index built from the [storage]
// section. The caller keeps ownership and closes it after the engine.
func WithVectorIndex(idx vector.Index) Option {
	return func(o *engineOptions) {
		o.vectors = idx
	}
}

// Open builds an engine from cfg and reloads the persisted documents into
// the document store. A nil cfg uses config.Default(), which keeps
// everything in memory.
func Open(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &engineOptions{}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		cfg:    cfg,
		pages:  query.NewPaginator[core.RankedResult](cfg.Query.PageSize),
		logger: logger.With("component", "engine"),
	}
	if err := e.open(options, logger); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) open(options *engineOptions, logger *slog.Logger) error {
	var err error

	// Storage
	e.backend, err = badger.OpenBackendWithLogger(e.cfg.Storage.Path, e.cfg.Storage.Path == "", logger)
	if err != nil {
		return err
	}
	e.repo, err = badger.NewDocumentRepository(e.backend)
	if err != nil {
		return err
	}

	e.vectors = options.vectors
	if e.vectors == nil {
		if e.vectors, err = e.openVectorIndex(logger); err != nil {
			return err
		}
		e.ownsVectors = true
	}

	e.provider = options.provider
	if e.provider == nil {
		if e.provider, err = newProvider(e.cfg.AIConfig(), logger); err != nil {
			return err
		}
		e.ownsProvider = true
	}

	e.checkDimensions()

	// Document store, restored from the repository
	chunks := chunker.New(e.cfg.ChunkerConfig(), chunker.WithLogger(logger))
	e.store, err = index.NewDocumentStore(index.WithChunker(chunks), index.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := e.reload(context.Background()); err != nil {
		return err
	}

	pipelineOpts := []ingestion.Option{ingestion.WithLogger(logger)}
	if e.cfg.Ingestion.PoolSize > 0 {
		pipelineOpts = append(pipelineOpts, ingestion.WithPoolSize(e.cfg.Ingestion.PoolSize))
	}
	e.pipeline, err = ingestion.NewPipeline(e.store, e.repo, e.vectors, e.provider, pipelineOpts...)
	if err != nil {
		return err
	}

	// Query side
	e.planner, err = query.NewPlanner(e.cfg.QueryConfig(), query.WithLogger(logger))
	if err != nil {
		return err
	}
	words := make([]string, 0, len(e.cfg.Query.Synonyms))
	for word := range e.cfg.Query.Synonyms {
		words = append(words, word)
	}
	slices.Sort(words)
	for _, word := range words {
		if err := e.planner.AddSynonym(word, e.cfg.Query.Synonyms[word]...); err != nil {
			return err
		}
	}

	e.reranker, err = rerank.New(e.cfg.RerankConfig(), rerank.WithLogger(logger))
	if err != nil {
		return err
	}
	e.reranker.SetContext(e.cfg.Rerank.Context)

	aiCfg := e.cfg.AIConfig()
	queryEmbedder := cache.Wrap(e.provider.Embedder(), aiCfg.CacheSize, aiCfg.CacheTTL, logger)
	searchOpts := append(e.cfg.SearchOptions(), search.WithLogger(logger))
	e.searcher, err = search.NewSearcher(e.planner, e.reranker, e.vectors, queryEmbedder, searchOpts...)
	if err != nil {
		return err
	}

	e.logger.Info("engine opened",
		"path", e.cfg.Storage.Path,
		"vector_backend", e.cfg.Storage.VectorBackend,
		"provider", aiCfg.Provider,
		"documents", e.store.Len())
	return nil
}

func (e *Engine) openVectorIndex(logger *slog.Logger) (vector.Index, error) {
	switch e.cfg.Storage.VectorBackend {
	case config.VectorBackendQdrant:
		q := e.cfg.Qdrant
		return qdrant.New(q.Host, q.Port, q.Collection, qdrant.WithLogger(logger))
	default:
		return badger.NewVectorIndex(e.backend)
	}
}

// checkDimensions warns when the embedder produces vectors of another size
// than the ones already stored in the vector index.
func (e *Engine) checkDimensions() {
	emb, ok := e.provider.Embedder().(ai.Dimensioner)
	if !ok {
		return
	}
	idx, ok := e.vectors.(interface{ Dimension() int })
	if !ok {
		return
	}
	if stored := idx.Dimension(); stored != 0 && stored != emb.Dimensions() {
		e.logger.Warn("embedding dimension differs from the vector index, searches will fail until it is rebuilt",
			"embedder", emb.Dimensions(),
			"index", stored)
	}
}

func newProvider(cfg *ai.Config, logger *slog.Logger) (ai.AIProvider, error) {
	if cfg.Provider == ai.ProviderMock {
		return mock.NewProvider(cfg)
	}
	return openai.NewProviderWithLogger(cfg, logger)
}

// reload puts every persisted document back into the document store.
func (e *Engine) reload(ctx context.Context) error {
	n := 0
	for doc, err := range e.repo.AllDocuments(ctx) {
		if err != nil {
			return fmt.Errorf("reload documents: %w", err)
		}
		if err := e.store.Put(doc); err != nil {
			return fmt.Errorf("reload document %s: %w", doc.ID, err)
		}
		n++
	}
	if n > 0 {
		e.logger.Debug("documents reloaded", "count", n)
	}
	return nil
}

// Close releases every component the engine opened. A vector index or
// provider passed in with WithVectorIndex or WithProvider is left open. It is
// safe to call on a partially opened engine.
func (e *Engine) Close() error {
	var errs []error
	if e.pipeline != nil {
		e.pipeline.Release()
	}
	if e.provider != nil && e.ownsProvider {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing AI provider", "err", err)
		}
	}
	if e.vectors != nil && e.ownsVectors {
		if err := e.vectors.Close(); err != nil {
			e.logger.Error("error closing vector index", "err", err)
			errs = append(errs, err)
		}
	}
	if e.repo != nil {
		if err := e.repo.Close(); err != nil {
			e.logger.Error("error closing document repository", "err", err)
			errs = append(errs, err)
		}
	}
	if e.backend != nil && !e.backend.IsClosed() {
		if err := e.backend.Close(); err != nil {
			e.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Index chunks, embeds and persists documents. See ingestion.Pipeline.Index.
func (e *Engine) Index(ctx context.Context, docs ...Document) ([]string, error) {
	return e.pipeline.Index(ctx, docs...)
}

// Update replaces the content of a stored document.
func (e *Engine) Update(ctx context.Context, id, content string) error {
	return e.pipeline.Update(ctx, id, content)
}

// Remove deletes a document everywhere and returns it.
func (e *Engine) Remove(ctx context.Context, id string) (*core.IndexedDocument, error) {
	return e.pipeline.Remove(ctx, id)
}

// Get returns a copy of a stored document, or core.ErrNotFound.
func (e *Engine) Get(id string) (*core.IndexedDocument, error) {
	doc, ok := e.store.GetDocument(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	return doc, nil
}

// List returns every document ordered by ID.
func (e *Engine) List() []*core.IndexedDocument {
	return e.store.ListDocuments()
}

// ListByType returns the documents of one type.
func (e *Engine) ListByType(docType string) []*core.IndexedDocument {
	return e.store.SearchByType(docType)
}

// FindByMetadata returns the documents whose metadata key equals value.
func (e *Engine) FindByMetadata(key, value string) []*core.IndexedDocument {
	return e.store.SearchByMetadata(key, value)
}

// Stats summarizes the document store.
func (e *Engine) Stats() core.IndexStats {
	return e.store.Stats()
}

// Search runs q through the searcher.
func (e *Engine) Search(ctx context.Context, q *core.SearchQuery) ([]core.RankedResult, error) {
	return e.searcher.Search(ctx, q)
}

// SearchWithMonitor is Search reporting each stage to monitor.
func (e *Engine) SearchWithMonitor(ctx context.Context, q *core.SearchQuery, monitor search.SearchMonitor) ([]core.RankedResult, error) {
	return e.searcher.SearchWithMonitor(ctx, q, monitor)
}

// SearchPage runs q and returns one page of results along with the page count.
// Pages are numbered from zero.
func (e *Engine) SearchPage(ctx context.Context, q *core.SearchQuery, page int) ([]core.RankedResult, int, error) {
	results, err := e.searcher.Search(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	return e.pages.Paginate(results, page), e.pages.TotalPages(len(results)), nil
}

// Suggest returns autocomplete suggestions for partial query text.
func (e *Engine) Suggest(partial string) []string {
	return e.planner.Suggest(partial)
}

// AddSynonym registers synonyms used for query expansion.
func (e *Engine) AddSynonym(word string, synonyms ...string) error {
	return e.planner.AddSynonym(word, synonyms...)
}

// SetContext sets the session context used by the reranker.
func (e *Engine) SetContext(context string) {
	e.reranker.SetContext(context)
}

// Reembed recomputes the embeddings of every persisted document, reporting
// progress on w. It returns the number of documents processed.
func (e *Engine) Reembed(ctx context.Context, w io.Writer) (int, error) {
	r, err := reembed.NewReembedder(e.repo, e.provider.Embedder(), e.pipeline, e.cfg.ReembedConfig(), w)
	if err != nil {
		return 0, err
	}
	return r.Run(ctx)
}
