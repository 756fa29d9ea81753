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

package query

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/vector"
)

// Config holds the query planner parameters.
type Config struct {
	// DefaultK is the number of neighbors fetched for informational and
	// transactional queries. Navigational queries fetch half, exploratory
	// queries twice as many.
	DefaultK int

	// SimilarityThreshold is the minimum similarity a candidate needs to survive.
	SimilarityThreshold float32

	EnableExpansion       bool
	EnableIntentDetection bool

	// MaxResults caps the number of candidates returned by Search.
	MaxResults int
}

// DefaultConfig returns the default planner configuration.
func DefaultConfig() Config {
	return Config{
		DefaultK:              20,
		SimilarityThreshold:   0.7,
		EnableExpansion:       true,
		EnableIntentDetection: true,
		MaxResults:            50,
	}
}

// Normalize replaces non-positive sizes with their defaults.
func (c Config) Normalize() Config {
	def := DefaultConfig()
	if c.DefaultK <= 0 {
		c.DefaultK = def.DefaultK
	}
	if c.MaxResults <= 0 {
		c.MaxResults = def.MaxResults
	}
	return c
}

// Plan describes how a query will be searched.
type Plan struct {
	Intent core.Intent
	// Queries holds the original text followed by its expansions.
	Queries []string
	K       int
	// Predicate is nil when the query carries no filters.
	Predicate vector.Predicate
}

// Planner derives search parameters from queries and runs them against a
// vector store.
type Planner struct {
	cfg        Config
	classifier IntentClassifier
	expander   Expander
	logger     *slog.Logger
}

// Option configures a Planner.
type Option func(*Planner) error

// WithLogger sets the logger. A nil logger falls back to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Planner) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "query-planner")
		return nil
	}
}

// WithClassifier replaces the keyword intent classifier.
func WithClassifier(c IntentClassifier) Option {
	return func(p *Planner) error {
		if c == nil {
			return ErrClassifierRequired
		}
		p.classifier = c
		return nil
	}
}

// WithExpander replaces the synonym expander.
func WithExpander(e Expander) Option {
	return func(p *Planner) error {
		if e == nil {
			return ErrExpanderRequired
		}
		p.expander = e
		return nil
	}
}

// NewPlanner creates a planner with the keyword classifier and the synonym
// expander unless replaced by options.
func NewPlanner(cfg Config, opts ...Option) (*Planner, error) {
	p := &Planner{
		cfg:        cfg.Normalize(),
		classifier: NewKeywordClassifier(),
		expander:   NewSynonymExpander(),
		logger:     slog.Default().With("component", "query-planner"),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Config returns the effective configuration.
func (p *Planner) Config() Config {
	return p.cfg
}

// DetectIntent classifies text, or reports IntentUnspecified when intent
// detection is disabled.
func (p *Planner) DetectIntent(text string) core.Intent {
	if !p.cfg.EnableIntentDetection {
		return core.IntentUnspecified
	}
	return p.classifier.Classify(text)
}

// Expand returns the query variants to search, original first.
func (p *Planner) Expand(text string) []string {
	if !p.cfg.EnableExpansion {
		return []string{text}
	}
	return p.expander.Expand(text)
}

// KForIntent returns the number of neighbors to fetch for an intent.
func (p *Planner) KForIntent(intent core.Intent) int {
	k := p.cfg.DefaultK
	switch intent {
	case core.IntentNavigational:
		k /= 2
	case core.IntentExploratory:
		k *= 2
	}
	return max(k, 1)
}

// Plan validates q and derives its search parameters.
func (p *Planner) Plan(q *core.SearchQuery) (Plan, error) {
	if err := core.ValidateQuery(q); err != nil {
		return Plan{}, err
	}

	intent := q.Intent
	if intent == core.IntentUnspecified {
		intent = p.DetectIntent(q.Text)
	}

	return Plan{
		Intent:    intent,
		Queries:   p.Expand(q.Text),
		K:         p.KForIntent(intent),
		Predicate: BuildPredicate(q.Filters),
	}, nil
}

// Search runs q against store using the precomputed query embedding and
// post-processes the candidates. Store failures are wrapped with
// core.ErrVectorStore and not retried.
func (p *Planner) Search(ctx context.Context, q *core.SearchQuery, store vector.Store, embedding []float32) ([]core.Candidate, error) {
	plan, err := p.Plan(q)
	if err != nil {
		return nil, err
	}
	return p.Execute(ctx, plan, store, embedding)
}

// Execute runs a prepared plan with one query embedding.
func (p *Planner) Execute(ctx context.Context, plan Plan, store vector.Store, embedding []float32) ([]core.Candidate, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("%w: query embedding is empty", core.ErrInvalidQuery)
	}
	if store == nil {
		return nil, ErrStoreRequired
	}

	var candidates []core.Candidate
	var err error
	if plan.Predicate != nil {
		candidates, err = store.SearchFiltered(ctx, embedding, plan.K, plan.Predicate)
	} else {
		candidates, err = store.SearchKNN(ctx, embedding, plan.K)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrVectorStore, err)
	}

	results := p.PostProcess(candidates)
	p.logger.Debug("search executed",
		"intent", plan.Intent.String(),
		"k", plan.K,
		"filtered", plan.Predicate != nil,
		"candidates", len(candidates),
		"kept", len(results))
	return results, nil
}

// PostProcess drops candidates below the similarity threshold and caps the
// result count. The input order is kept.
func (p *Planner) PostProcess(candidates []core.Candidate) []core.Candidate {
	out := make([]core.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Similarity >= p.cfg.SimilarityThreshold {
			out = append(out, c)
		}
	}
	if len(out) > p.cfg.MaxResults {
		out = out[:p.cfg.MaxResults]
	}
	return out
}

// Suggest returns autocomplete suggestions for partial input, or nil when
// the expander cannot suggest.
func (p *Planner) Suggest(partial string) []string {
	s, ok := p.expander.(Suggester)
	if !ok {
		return nil
	}
	return s.Suggest(partial)
}

// AddSynonym registers custom synonyms with the expander.
func (p *Planner) AddSynonym(word string, synonyms ...string) error {
	a, ok := p.expander.(SynonymAdder)
	if !ok {
		return ErrSynonymsUnsupported
	}
	a.AddSynonym(word, synonyms...)
	return nil
}
