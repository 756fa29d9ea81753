package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/chunker"
	"github.com/poiesic/recall/query"
	"github.com/poiesic/recall/rerank"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, VectorBackendBadger, cfg.Storage.VectorBackend)
	assert.Empty(t, cfg.Storage.Path)
	assert.Equal(t, chunker.DefaultConfig(), cfg.ChunkerConfig())
	assert.Equal(t, query.DefaultConfig(), cfg.QueryConfig())
	assert.Equal(t, rerank.DefaultConfig(), cfg.RerankConfig())
	assert.Equal(t, 30*time.Second, cfg.Search.EmbedTimeout.Std())
	assert.Equal(t, 10*time.Second, cfg.Search.SearchTimeout.Std())
	assert.Equal(t, 6334, cfg.Qdrant.Port)

	aiCfg := cfg.AIConfig()
	assert.Equal(t, ai.ProviderOpenAI, aiCfg.Provider)
	assert.Equal(t, "http://localhost:11434/v1", aiCfg.EmbeddingHost)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_OverridesDefaults(t *testing.T) {
	data := []byte(`
[storage]
path = "/tmp/recall"
vector_backend = "Qdrant"

[ai]
provider = "mock"
dimensions = 64
cache_ttl = "90s"

[chunker]
chunk_size = 256
chunk_overlap = 32

[query]
default_k = 8
similarity_threshold = 0.5

[query.synonyms]
voiture = ["auto", "véhicule"]

[rerank]
trusted_authors = ["Alice"]
context = "finance"

[search]
embed_timeout = "2s"
collapse_by_document = true
expansion_search = true

[ingestion]
pool_size = 4
retry_delay = "250ms"

[qdrant]
host = "qdrant.internal"
collection = "docs"
`)

	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/recall", cfg.Storage.Path)
	assert.Equal(t, VectorBackendQdrant, cfg.Storage.VectorBackend)

	aiCfg := cfg.AIConfig()
	assert.Equal(t, ai.ProviderMock, aiCfg.Provider)
	assert.Equal(t, 64, aiCfg.Dimensions)
	assert.Equal(t, 90*time.Second, aiCfg.CacheTTL)
	assert.Equal(t, 1024, aiCfg.CacheSize, "unset keys keep their defaults")

	chunkCfg := cfg.ChunkerConfig()
	assert.Equal(t, 256, chunkCfg.ChunkSize)
	assert.Equal(t, 32, chunkCfg.ChunkOverlap)
	assert.Equal(t, chunker.DefaultMinChunkSize, chunkCfg.MinChunkSize)

	queryCfg := cfg.QueryConfig()
	assert.Equal(t, 8, queryCfg.DefaultK)
	assert.InDelta(t, 0.5, queryCfg.SimilarityThreshold, 1e-6)
	assert.Equal(t, []string{"auto", "véhicule"}, cfg.Query.Synonyms["voiture"])

	assert.Equal(t, []string{"Alice"}, cfg.RerankConfig().TrustedAuthors)
	assert.Equal(t, "finance", cfg.Rerank.Context)

	assert.Equal(t, 2*time.Second, cfg.Search.EmbedTimeout.Std())
	assert.True(t, cfg.Search.CollapseByDocument)
	assert.Len(t, cfg.SearchOptions(), 5)

	reembedCfg := cfg.ReembedConfig()
	assert.Equal(t, 250*time.Millisecond, reembedCfg.RetryDelay)
	assert.Equal(t, 100, reembedCfg.BatchSize)
	assert.Equal(t, 4, cfg.Ingestion.PoolSize)

	assert.Equal(t, "qdrant.internal", cfg.Qdrant.Host)
	assert.Equal(t, 6334, cfg.Qdrant.Port)
	assert.Equal(t, "docs", cfg.Qdrant.Collection)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"unknown backend", "[storage]\nvector_backend = \"faiss\"", ErrUnknownVectorBackend},
		{"unknown provider", "[ai]\nprovider = \"cohere\"", ErrInvalidConfig},
		{"threshold above one", "[query]\nsimilarity_threshold = 1.5", ErrInvalidConfig},
		{"qdrant without host", "[storage]\nvector_backend = \"qdrant\"\n[qdrant]\nhost = \"\"", ErrInvalidConfig},
		{"sample rate", "[tracing]\nsample_rate = 3.0", ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("[storage\npath = 1"))
	assert.Error(t, err)

	_, err = Parse([]byte("[search]\nembed_timeout = \"soon\""))
	assert.Error(t, err)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "recall.toml")

	cfg := Default()
	cfg.Storage.Path = "/data/recall"
	cfg.Search.SearchTimeout = Duration(3 * time.Second)
	cfg.Query.Synonyms = map[string][]string{"doc": {"document"}}
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestDuration_Text(t *testing.T) {
	d := Duration(1500 * time.Millisecond)
	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1.5s", string(text))

	var parsed Duration
	require.NoError(t, parsed.UnmarshalText([]byte("1m")))
	assert.Equal(t, time.Minute, parsed.Std())
	assert.Error(t, parsed.UnmarshalText([]byte("a while")))
}

func TestTracingConfig(t *testing.T) {
	cfg := Default()
	cfg.Tracing.OTLPEndpoint = "collector:4317"
	cfg.Tracing.SampleRate = 0.25

	tc := cfg.TracingConfig()
	assert.Equal(t, "collector:4317", tc.OTLPEndpoint)
	assert.Equal(t, "recall", tc.ServiceName)
	assert.InDelta(t, 0.25, tc.SampleRate, 1e-9)
}
