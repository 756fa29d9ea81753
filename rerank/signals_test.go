package rerank

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestContextRelevance(t *testing.T) {
	tests := []struct {
		name   string
		meta   map[string]string
		active string
		want   float32
	}{
		{name: "exact", meta: map[string]string{"context": "Development"}, active: "Development", want: 1.0},
		{name: "case-insensitive substring", meta: map[string]string{"context": "backend development"}, active: "Development", want: 0.7},
		{name: "active contains document context", meta: map[string]string{"context": "dev"}, active: "dev team", want: 0.7},
		{name: "tags", meta: map[string]string{"context": "ops", "tags": "go,Development"}, active: "development", want: 0.5},
		{name: "tags without context field", meta: map[string]string{"tags": "security,audit"}, active: "audit", want: 0.5},
		{name: "no match", meta: map[string]string{"context": "marketing"}, active: "development", want: 0.3},
		{name: "no active context", meta: map[string]string{"context": "development"}, active: "", want: 0.3},
		{name: "no metadata", meta: nil, active: "development", want: 0.3},
		{name: "empty document context", meta: map[string]string{"context": ""}, active: "development", want: 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContextRelevance(tt.meta, tt.active))
		})
	}
}

func TestRecency(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	at := func(d time.Duration) map[string]string {
		return map[string]string{"created_at": now.Add(-d).Format(time.RFC3339)}
	}
	day := 24 * time.Hour

	assert.InDelta(t, 1.0, Recency(at(0), now), 1e-6)
	assert.InDelta(t, 1.0, Recency(at(23*time.Hour), now), 1e-6, "partial days are truncated")
	assert.Equal(t, Recency(at(day), now), Recency(at(45*time.Hour), now), "1.9 days counts as 1")
	assert.InDelta(t, math.Exp(-30.0/50), Recency(at(30*day), now), 1e-6)
	assert.InDelta(t, 0.1, Recency(at(1000*day), now), 1e-6)
	assert.InDelta(t, 1.0, Recency(at(-10*day), now), 1e-6, "future dates clamp to 1")
	assert.Equal(t, float32(0.5), Recency(nil, now))
	assert.Equal(t, float32(0.5), Recency(map[string]string{"created_at": "last week"}, now))

	older := Recency(at(90*day), now)
	newer := Recency(at(10*day), now)
	assert.GreaterOrEqual(t, newer, older)
}

func TestAuthority(t *testing.T) {
	trusted := []string{"TITANE", "System"}
	tests := []struct {
		name string
		meta map[string]string
		want float32
	}{
		{name: "baseline", meta: map[string]string{}, want: 0.5},
		{name: "official", meta: map[string]string{"doc_type": "official"}, want: 0.8},
		{name: "contract", meta: map[string]string{"doc_type": "contract"}, want: 0.8},
		{name: "architecture", meta: map[string]string{"doc_type": "architecture"}, want: 0.7},
		{name: "editorial", meta: map[string]string{"doc_type": "editorial"}, want: 0.6},
		{name: "validated", meta: map[string]string{"validated": "true"}, want: 0.7},
		{name: "not validated", meta: map[string]string{"validated": "false"}, want: 0.5},
		{name: "trusted author", meta: map[string]string{"author": "TITANE"}, want: 0.6},
		{name: "untrusted author", meta: map[string]string{"author": "titane"}, want: 0.5},
		{name: "clamped", meta: map[string]string{"doc_type": "legal", "validated": "true", "author": "System"}, want: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Authority(tt.meta, trusted), 1e-6)
		})
	}
}

func TestGraphPosition(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		set  bool
		want float64
	}{
		{name: "missing", set: false, want: 0.3},
		{name: "invalid", raw: "many", set: true, want: 0.3},
		{name: "negative", raw: "-3", set: true, want: 0.3},
		{name: "zero", raw: "0", set: true, want: 0},
		{name: "nine", raw: "9", set: true, want: 1},
		{name: "four", raw: "4", set: true, want: math.Log(5) / math.Log(10)},
		{name: "clamped", raw: "5000", set: true, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := map[string]string{}
			if tt.set {
				meta["graph_connections"] = tt.raw
			}
			assert.InDelta(t, tt.want, GraphPosition(meta), 1e-6)
		})
	}
}
