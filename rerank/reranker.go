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

package rerank

import (
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/poiesic/recall/core"
)

// Weights scales each signal's contribution to the composite score.
type Weights struct {
	VectorSimilarity float32
	ContextRelevance float32
	Recency          float32
	Authority        float32
	GraphPosition    float32
}

// DefaultWeights returns the default 0.40/0.20/0.15/0.15/0.10 split.
func DefaultWeights() Weights {
	return Weights{
		VectorSimilarity: 0.40,
		ContextRelevance: 0.20,
		Recency:          0.15,
		Authority:        0.15,
		GraphPosition:    0.10,
	}
}

// Config holds the reranker parameters.
type Config struct {
	Weights            Weights
	EnableExplanations bool
	// TrustedAuthors receive an authority bonus.
	TrustedAuthors []string
}

// DefaultConfig returns the default reranker configuration.
func DefaultConfig() Config {
	return Config{
		Weights:            DefaultWeights(),
		EnableExplanations: true,
		TrustedAuthors:     []string{"TITANE", "System"},
	}
}

// Reranker rescores vector search candidates with contextual signals.
// It is safe for concurrent use.
type Reranker struct {
	cfg    Config
	now    func() time.Time
	logger *slog.Logger

	mu             sync.RWMutex
	sessionContext string
}

// Option configures a Reranker.
type Option func(*Reranker) error

// WithLogger sets the logger. A nil logger falls back to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reranker) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger.With("component", "reranker")
		return nil
	}
}

// WithClock overrides the time source used for recency.
func WithClock(now func() time.Time) Option {
	return func(r *Reranker) error {
		if now == nil {
			return ErrClockRequired
		}
		r.now = now
		return nil
	}
}

// New creates a Reranker.
func New(cfg Config, opts ...Option) (*Reranker, error) {
	r := &Reranker{
		cfg:    cfg,
		now:    time.Now,
		logger: slog.Default().With("component", "reranker"),
	}
	r.cfg.TrustedAuthors = slices.Clone(cfg.TrustedAuthors)
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Config returns the reranker configuration.
func (r *Reranker) Config() Config {
	cfg := r.cfg
	cfg.TrustedAuthors = slices.Clone(r.cfg.TrustedAuthors)
	return cfg
}

// SetContext sets the session context used when a rerank call carries no
// explicit context.
func (r *Reranker) SetContext(context string) {
	r.mu.Lock()
	r.sessionContext = context
	r.mu.Unlock()
}

// Context returns the session context.
func (r *Reranker) Context() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessionContext
}

// Rerank scores candidates and returns them by descending composite score.
// Candidates with equal scores keep their input order. A non-empty
// queryContext takes precedence over the session context.
func (r *Reranker) Rerank(candidates []core.Candidate, queryContext string) []core.RankedResult {
	active := queryContext
	if active == "" {
		active = r.Context()
	}
	now := r.now()

	results := make([]core.RankedResult, len(candidates))
	for i, c := range candidates {
		scores := r.score(c, active, now)
		result := core.RankedResult{
			ID:                 c.ID,
			OriginalSimilarity: c.Similarity,
			CompositeScore:     scores.Total,
			Scores:             scores,
			Metadata:           maps.Clone(c.Metadata),
		}
		if r.cfg.EnableExplanations {
			result.Explanation = Explain(scores)
		}
		results[i] = result
	}

	slices.SortStableFunc(results, func(a, b core.RankedResult) int {
		switch {
		case a.CompositeScore > b.CompositeScore:
			return -1
		case a.CompositeScore < b.CompositeScore:
			return 1
		}
		return 0
	})

	r.logger.Debug("reranked candidates", "count", len(results), "context", active)
	return results
}

func (r *Reranker) score(c core.Candidate, active string, now time.Time) core.ScoreBreakdown {
	w := r.cfg.Weights
	s := core.ScoreBreakdown{
		VectorSimilarity: c.Similarity * w.VectorSimilarity,
		ContextRelevance: ContextRelevance(c.Metadata, active) * w.ContextRelevance,
		Recency:          Recency(c.Metadata, now) * w.Recency,
		Authority:        Authority(c.Metadata, r.cfg.TrustedAuthors) * w.Authority,
		GraphPosition:    GraphPosition(c.Metadata) * w.GraphPosition,
	}
	s.Total = s.VectorSimilarity + s.ContextRelevance + s.Recency + s.Authority + s.GraphPosition
	return s
}

// FilterFalsePositives drops results that scored too low overall, and
// results lifted mostly by graph centrality without semantic support.
func FilterFalsePositives(results []core.RankedResult) []core.RankedResult {
	out := make([]core.RankedResult, 0, len(results))
	for _, res := range results {
		if res.CompositeScore < MinCompositeScore {
			continue
		}
		if res.Scores.VectorSimilarity < MinVectorContribution && res.Scores.GraphPosition > GraphNotable {
			continue
		}
		out = append(out, res)
	}
	return out
}
