package vector

import (
	"math"
	"testing"

	"github.com/poiesic/recall/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    []float32
		expected []float32
	}{
		{
			name:     "unit vector remains unchanged",
			input:    []float32{1.0, 0.0, 0.0},
			expected: []float32{1.0, 0.0, 0.0},
		},
		{
			name:     "scale non-unit vector",
			input:    []float32{3.0, 4.0},
			expected: []float32{0.6, 0.8},
		},
		{
			name:     "negative values",
			input:    []float32{-1.0, 1.0},
			expected: []float32{-1.0 / float32(math.Sqrt(2)), 1.0 / float32(math.Sqrt(2))},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Normalize(tt.input)
			require.Equal(t, len(tt.expected), len(result), "vector length mismatch")

			for i := range result {
				assert.InDelta(t, tt.expected[i], result[i], 1e-6, "element %d", i)
			}
		})
	}
}

func TestNormalize_ZeroAndEmpty(t *testing.T) {
	assert.Equal(t, []float32{0, 0, 0}, Normalize([]float32{0, 0, 0}))
	assert.Empty(t, Normalize([]float32{}))
}

func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 0},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 1},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: 2},
		{name: "length mismatch", a: []float32{1, 0}, b: []float32{1, 0, 0}, want: 1},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 0}, want: 1},
		{name: "empty", a: nil, b: nil, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineDistance(tt.a, tt.b), 1e-6)
			assert.InDelta(t, 1-tt.want, CosineSimilarity(tt.a, tt.b), 1e-6)
		})
	}
}

func TestMean(t *testing.T) {
	assert.Nil(t, Mean(nil))

	got := Mean([][]float32{{1, 0}, {0, 1}, {1, 2, 3}})
	assert.InDelta(t, 1/math.Sqrt(2), got[0], 1e-6)
	assert.InDelta(t, 1/math.Sqrt(2), got[1], 1e-6)
}

func TestNewCandidate(t *testing.T) {
	meta := map[string]string{"doc_type": "legal"}
	c := NewCandidate("p1", 0.75, meta)
	assert.Equal(t, float32(0.75), c.Similarity)
	assert.InDelta(t, 0.25, c.Distance, 1e-6)

	meta["doc_type"] = "changed"
	assert.Equal(t, "legal", c.Metadata["doc_type"])

	assert.Equal(t, float32(0), NewCandidate("p2", -0.4, nil).Similarity)
	assert.Equal(t, float32(1), NewCandidate("p3", 1.2, nil).Similarity)
}

func TestSortCandidates(t *testing.T) {
	candidates := []core.Candidate{
		{ID: "b", Similarity: 0.5},
		{ID: "c", Similarity: 0.9},
		{ID: "a", Similarity: 0.5},
	}
	SortCandidates(candidates)
	assert.Equal(t, "c", candidates[0].ID)
	assert.Equal(t, "a", candidates[1].ID)
	assert.Equal(t, "b", candidates[2].ID)
}

func TestFilter(t *testing.T) {
	candidates := []core.Candidate{
		{ID: "1", Metadata: map[string]string{"keep": "yes"}},
		{ID: "2", Metadata: map[string]string{"keep": "no"}},
		{ID: "3", Metadata: map[string]string{"keep": "yes"}},
		{ID: "4", Metadata: map[string]string{"keep": "yes"}},
	}
	keep := func(m map[string]string) bool { return m["keep"] == "yes" }

	got := Filter(candidates, keep, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)

	assert.Len(t, Filter(candidates, nil, 10), 4)
	assert.Empty(t, Filter(candidates, keep, 0))
}
