package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/query"
	"github.com/poiesic/recall/rerank"
	"github.com/poiesic/recall/vector"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name of search spans.
const TracerName = "github.com/poiesic/recall/search"

const (
	// DefaultEmbedTimeout bounds the query embedding call.
	DefaultEmbedTimeout = 30 * time.Second

	// DefaultSearchTimeout bounds each vector store call.
	DefaultSearchTimeout = 10 * time.Second
)

// Searcher runs queries through embedding, planning, vector search and
// reranking.
type Searcher struct {
	planner  *query.Planner
	reranker *rerank.Reranker
	store    vector.Store
	embedder ai.Embedder

	embedTimeout         time.Duration
	searchTimeout        time.Duration
	filterFalsePositives bool
	collapseByDocument   bool
	expansionSearch      bool

	tracer trace.Tracer
	logger *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithTracer sets the tracer used for search spans.
// Default is the global otel tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Searcher) error {
		if tracer != nil {
			s.tracer = tracer
		}
		return nil
	}
}

// WithEmbedTimeout bounds the query embedding call. Zero disables the bound.
func WithEmbedTimeout(d time.Duration) Option {
	return func(s *Searcher) error {
		s.embedTimeout = max(d, 0)
		return nil
	}
}

// WithSearchTimeout bounds each vector store call. Zero disables the bound.
func WithSearchTimeout(d time.Duration) Option {
	return func(s *Searcher) error {
		s.searchTimeout = max(d, 0)
		return nil
	}
}

// WithFalsePositiveFilter drops weak results after reranking.
func WithFalsePositiveFilter(enabled bool) Option {
	return func(s *Searcher) error {
		s.filterFalsePositives = enabled
		return nil
	}
}

// WithCollapseByDocument keeps only the best ranked chunk of each document.
func WithCollapseByDocument(enabled bool) Option {
	return func(s *Searcher) error {
		s.collapseByDocument = enabled
		return nil
	}
}

// WithExpansionSearch searches every expanded variant of the query instead
// of the original text only.
func WithExpansionSearch(enabled bool) Option {
	return func(s *Searcher) error {
		s.expansionSearch = enabled
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	planner *query.Planner,
	reranker *rerank.Reranker,
	store vector.Store,
	embedder ai.Embedder,
	opts ...Option,
) (*Searcher, error) {
	if planner == nil {
		return nil, ErrPlannerRequired
	}
	if reranker == nil {
		return nil, ErrRerankerRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		planner:       planner,
		reranker:      reranker,
		store:         store,
		embedder:      embedder,
		embedTimeout:  DefaultEmbedTimeout,
		searchTimeout: DefaultSearchTimeout,
		tracer:        otel.Tracer(TracerName),
		logger:        slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")

	return s, nil
}

// Search returns the ranked results for q.
func (s *Searcher) Search(ctx context.Context, q *core.SearchQuery) ([]core.RankedResult, error) {
	return s.SearchWithMonitor(ctx, q, nil)
}

// SearchWithMonitor is Search with a monitor receiving callbacks at each
// stage. A timeout or failure in any stage aborts the search before
// reranking; no partial results are returned.
func (s *Searcher) SearchWithMonitor(ctx context.Context, q *core.SearchQuery, monitor SearchMonitor) ([]core.RankedResult, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	ctx, span := s.tracer.Start(ctx, "search.Search")
	defer span.End()

	plan, err := s.planner.Plan(q)
	if err != nil {
		return nil, recordError(span, err)
	}
	monitor.Start(q)
	monitor.AfterPlanning(plan)
	span.SetAttributes(
		attribute.String("recall.intent", plan.Intent.String()),
		attribute.Int("recall.k", plan.K),
		attribute.Bool("recall.filtered", plan.Predicate != nil),
	)

	// 1. Embed the query text, or every expanded variant
	texts := []string{q.Text}
	if s.expansionSearch {
		texts = plan.Queries
	}
	embeddings, err := s.embed(ctx, texts)
	if err != nil {
		s.logger.Error("error generating query embedding", "query", q.Text, "err", err)
		return nil, recordError(span, err)
	}
	monitor.AfterEmbedding(texts)

	// 2. Query the vector store once per embedding
	var candidates []core.Candidate
	for i, embedding := range embeddings {
		found, err := s.execute(ctx, plan, embedding)
		if err != nil {
			s.logger.Error("error querying vector store", "query", texts[i], "err", err)
			return nil, recordError(span, err)
		}
		monitor.AfterVectorSearch(texts[i], found)
		candidates = append(candidates, found...)
	}
	if len(embeddings) > 1 {
		candidates = mergeCandidates(candidates, s.planner.Config().MaxResults)
		monitor.AfterMerge(candidates)
	}

	// 3. Rerank and filter
	results := s.reranker.Rerank(candidates, q.Context)
	monitor.AfterRerank(results)

	if s.filterFalsePositives {
		kept := rerank.FilterFalsePositives(results)
		monitor.FalsePositivesDropped(len(results) - len(kept))
		results = kept
	}
	if s.collapseByDocument {
		results = collapseByDocument(results)
	}

	span.SetAttributes(
		attribute.Int("recall.candidates", len(candidates)),
		attribute.Int("recall.results", len(results)),
	)
	s.logger.Debug("search complete",
		"intent", plan.Intent.String(),
		"queries", len(texts),
		"candidates", len(candidates),
		"results", len(results))
	monitor.Finish(results)

	return results, nil
}

// embed returns one embedding per text, bounded by the embed timeout.
func (s *Searcher) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if s.embedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.embedTimeout)
		defer cancel()
	}

	if len(texts) == 1 {
		embedding, err := s.embedder.EmbedText(ctx, texts[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrEmbedding, err)
		}
		return [][]float32{embedding}, nil
	}

	embeddings, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrEmbedding, err)
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, received %d", core.ErrEmbedding, len(texts), len(embeddings))
	}
	return embeddings, nil
}

// execute runs one store query, bounded by the search timeout.
func (s *Searcher) execute(ctx context.Context, plan query.Plan, embedding []float32) ([]core.Candidate, error) {
	if s.searchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.searchTimeout)
		defer cancel()
	}
	return s.planner.Execute(ctx, plan, s.store, embedding)
}

// mergeCandidates keeps the best similarity seen for every candidate ID,
// sorted by descending similarity and capped at limit.
func mergeCandidates(candidates []core.Candidate, limit int) []core.Candidate {
	best := make(map[string]int, len(candidates))
	merged := make([]core.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if i, ok := best[c.ID]; ok {
			if c.Similarity > merged[i].Similarity {
				merged[i] = c
			}
			continue
		}
		best[c.ID] = len(merged)
		merged = append(merged, c)
	}
	vector.SortCandidates(merged)
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// collapseByDocument keeps the first result of every document. Results
// without a document ID are kept as is.
func collapseByDocument(results []core.RankedResult) []core.RankedResult {
	seen := make(map[string]bool, len(results))
	out := make([]core.RankedResult, 0, len(results))
	for _, r := range results {
		docID, ok := r.Metadata[core.MetaDocumentID]
		if ok {
			if seen[docID] {
				continue
			}
			seen[docID] = true
		}
		out = append(out, r)
	}
	return out
}

func recordError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
