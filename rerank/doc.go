// Package rerank reorders vector search candidates by a composite score.
//
// Five signals are computed from each candidate: raw vector similarity,
// context relevance, recency, source authority and graph position. Each is
// multiplied by its weight and the weighted values are summed. The per-signal
// weighted values are kept in the result's ScoreBreakdown so callers can see
// why a result ranked where it did.
//
// Missing or malformed metadata never fails a rerank; every signal falls back
// to a fixed baseline instead.
package rerank
