package search

import (
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/query"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(q *core.SearchQuery)
	AfterPlanning(plan query.Plan)
	AfterEmbedding(texts []string)
	AfterVectorSearch(text string, candidates []core.Candidate)
	AfterMerge(candidates []core.Candidate)
	AfterRerank(results []core.RankedResult)
	FalsePositivesDropped(count int)
	Finish(results []core.RankedResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ *core.SearchQuery)                      {}
func (n *noopMonitor) AfterPlanning(_ query.Plan)                     {}
func (n *noopMonitor) AfterEmbedding(_ []string)                      {}
func (n *noopMonitor) AfterVectorSearch(_ string, _ []core.Candidate) {}
func (n *noopMonitor) AfterMerge(_ []core.Candidate)                  {}
func (n *noopMonitor) AfterRerank(_ []core.RankedResult)              {}
func (n *noopMonitor) FalsePositivesDropped(_ int)                    {}
func (n *noopMonitor) Finish(_ []core.RankedResult)                   {}
