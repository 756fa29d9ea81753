package rerank

import (
	"strings"

	"github.com/poiesic/recall/core"
)

// Thresholds on weighted contributions.
const (
	StrongSimilarity   float32 = 0.35
	ModerateSimilarity float32 = 0.25
	ContextNotable     float32 = 0.15
	RecencyNotable     float32 = 0.12
	AuthorityNotable   float32 = 0.12
	GraphNotable       float32 = 0.08

	// MinCompositeScore is the score below which a result is a false positive.
	MinCompositeScore float32 = 0.3
	// MinVectorContribution is the weighted similarity below which a
	// graph-boosted result is a false positive.
	MinVectorContribution float32 = 0.2
)

// Explain describes which weighted signals stand out in scores. It returns
// an empty string when none does.
func Explain(scores core.ScoreBreakdown) string {
	var parts []string

	switch {
	case scores.VectorSimilarity > StrongSimilarity:
		parts = append(parts, "strong semantic similarity")
	case scores.VectorSimilarity > ModerateSimilarity:
		parts = append(parts, "moderate semantic similarity")
	}
	if scores.ContextRelevance > ContextNotable {
		parts = append(parts, "highly relevant to the current context")
	}
	if scores.Recency > RecencyNotable {
		parts = append(parts, "recent document")
	}
	if scores.Authority > AuthorityNotable {
		parts = append(parts, "reliable source")
	}
	if scores.GraphPosition > GraphNotable {
		parts = append(parts, "central in the document graph")
	}

	if len(parts) == 0 {
		return ""
	}
	return "Relevant because: " + strings.Join(parts, ", ")
}
