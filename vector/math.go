package vector

import (
	"maps"
	"math"
	"slices"

	"github.com/poiesic/recall/core"
)

// Normalize scales a vector to unit length.
// Returns a new vector. If the input is a zero vector, returns a zero vector.
func Normalize(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var magnitude float32
	for _, val := range v {
		magnitude += val * val
	}
	magnitude = float32(math.Sqrt(float64(magnitude)))

	result := make([]float32, len(v))
	if magnitude == 0 {
		return result
	}
	for i, val := range v {
		result[i] = val / magnitude
	}
	return result
}

// CosineDistance returns 1 - cos(a, b). Vectors of different length and zero
// vectors are maximally distant (1.0).
func CosineDistance(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return float32(1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)))
}

// CosineSimilarity returns 1 - CosineDistance(a, b).
func CosineSimilarity(a, b []float32) float32 {
	return 1 - CosineDistance(a, b)
}

// Mean averages vectors component-wise and normalizes the result. Vectors
// whose length differs from the first are skipped.
func Mean(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	dim := len(vectors[0])
	sum := make([]float32, dim)
	for _, v := range vectors {
		if len(v) != dim {
			continue
		}
		for i, x := range v {
			sum[i] += x
		}
	}
	return Normalize(sum)
}

// NewCandidate builds a candidate from a similarity score, clamped to [0,1].
func NewCandidate(id string, similarity float32, metadata map[string]string) core.Candidate {
	similarity = min(max(similarity, 0), 1)
	return core.Candidate{
		ID:         id,
		Similarity: similarity,
		Distance:   1 - similarity,
		Metadata:   maps.Clone(metadata),
	}
}

// SortCandidates orders candidates by similarity, highest first. Ties keep
// ascending ID order so results are reproducible.
func SortCandidates(candidates []core.Candidate) {
	slices.SortStableFunc(candidates, func(a, b core.Candidate) int {
		switch {
		case a.Similarity > b.Similarity:
			return -1
		case a.Similarity < b.Similarity:
			return 1
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}

// Filter keeps the candidates accepted by pred, at most k of them. A nil
// predicate accepts everything.
func Filter(candidates []core.Candidate, pred Predicate, k int) []core.Candidate {
	out := make([]core.Candidate, 0, min(len(candidates), max(k, 0)))
	for _, c := range candidates {
		if len(out) >= k {
			break
		}
		if pred == nil || pred(c.Metadata) {
			out = append(out, c)
		}
	}
	return out
}
