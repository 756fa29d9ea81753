package rerank

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/recall/core"
)

// ContextRelevance scores how well a document's context matches the active
// context: 1.0 on exact match, 0.7 when either contains the other
// (case-insensitive), 0.5 when the context appears in the tags, 0.3 otherwise.
func ContextRelevance(meta map[string]string, active string) float32 {
	if active == "" {
		return 0.3
	}
	activeLower := strings.ToLower(active)

	if docContext, ok := meta[core.MetaContext]; ok {
		if docContext == active {
			return 1.0
		}
		docLower := strings.ToLower(docContext)
		if docLower != "" && (strings.Contains(docLower, activeLower) || strings.Contains(activeLower, docLower)) {
			return 0.7
		}
	}
	if tags, ok := meta[core.MetaTags]; ok && strings.Contains(strings.ToLower(tags), activeLower) {
		return 0.5
	}
	return 0.3
}

// Recency decays exponentially with the document age in whole days,
// exp(-days/50), clamped to [0.1, 1]. Partial days are truncated toward zero,
// so an age of 1.9 days counts as 1. A missing or unparsable created_at
// scores 0.5.
func Recency(meta map[string]string, now time.Time) float32 {
	created, err := time.Parse(time.RFC3339, meta[core.MetaCreatedAt])
	if err != nil {
		return 0.5
	}
	days := int64(now.Sub(created) / (24 * time.Hour))
	score := float32(math.Exp(-float64(days) / 50))
	return clamp(score, 0.1, 1.0)
}

// Authority starts at 0.5 and adds bonuses for authoritative document types,
// validated documents and trusted authors, clamped to [0, 1].
func Authority(meta map[string]string, trustedAuthors []string) float32 {
	score := float32(0.5)

	switch meta[core.MetaDocType] {
	case "official", "legal", "contract":
		score += 0.3
	case "technical", "architecture":
		score += 0.2
	case "editorial", "article":
		score += 0.1
	}
	if meta[core.MetaValidated] == "true" {
		score += 0.2
	}
	if author, ok := meta[core.MetaAuthor]; ok && slices.Contains(trustedAuthors, author) {
		score += 0.1
	}
	return clamp(score, 0, 1)
}

// GraphPosition maps the number of graph connections onto [0, 1] as
// log10(connections+1). It scores 0.3 when the count is missing or invalid.
func GraphPosition(meta map[string]string) float32 {
	raw, ok := meta[core.MetaGraphConnections]
	if !ok {
		return 0.3
	}
	connections, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0.3
	}
	score := float32(math.Log(float64(connections)+1) / math.Log(10))
	return clamp(score, 0, 1)
}

func clamp(v, lo, hi float32) float32 {
	return min(max(v, lo), hi)
}
