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

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/chunker"
	"github.com/poiesic/recall/observability"
	"github.com/poiesic/recall/query"
	"github.com/poiesic/recall/reembed"
	"github.com/poiesic/recall/rerank"
	"github.com/poiesic/recall/search"
)

// Vector backends.
const (
	VectorBackendBadger = "badger"
	VectorBackendQdrant = "qdrant"
)

// Config is the root of the configuration file.
type Config struct {
	Storage   StorageConfig   `toml:"storage"`
	AI        AIConfig        `toml:"ai"`
	Chunker   ChunkerConfig   `toml:"chunker"`
	Query     QueryConfig     `toml:"query"`
	Rerank    RerankConfig    `toml:"rerank"`
	Search    SearchConfig    `toml:"search"`
	Ingestion IngestionConfig `toml:"ingestion"`
	Qdrant    QdrantConfig    `toml:"qdrant"`
	Tracing   TracingConfig   `toml:"tracing"`
}

// StorageConfig locates the badger database.
type StorageConfig struct {
	// Path is the database directory. Empty means in-memory.
	Path string `toml:"path"`
	// VectorBackend is "badger" or "qdrant".
	VectorBackend string `toml:"vector_backend"`
}

type AIConfig struct {
	Provider       string   `toml:"provider"`
	EmbeddingHost  string   `toml:"embedding_host"`
	EmbeddingModel string   `toml:"embedding_model"`
	APIKey         string   `toml:"api_key"`
	Dimensions     int      `toml:"dimensions"`
	CacheSize      int      `toml:"cache_size"`
	CacheTTL       Duration `toml:"cache_ttl"`
}

type ChunkerConfig struct {
	ChunkSize          int  `toml:"chunk_size"`
	ChunkOverlap       int  `toml:"chunk_overlap"`
	PreserveSentences  bool `toml:"preserve_sentences"`
	PreserveParagraphs bool `toml:"preserve_paragraphs"`
	MinChunkSize       int  `toml:"min_chunk_size"`
	MaxChunkSize       int  `toml:"max_chunk_size"`
}

type QueryConfig struct {
	DefaultK              int      `toml:"default_k"`
	SimilarityThreshold   float32  `toml:"similarity_threshold"`
	EnableExpansion       bool     `toml:"enable_expansion"`
	EnableIntentDetection bool     `toml:"enable_intent_detection"`
	MaxResults            int      `toml:"max_results"`
	PageSize              int      `toml:"page_size"`
	// Synonyms extends the built-in expansion table.
	Synonyms map[string][]string `toml:"synonyms"`
}

type RerankConfig struct {
	VectorWeight       float32  `toml:"vector_weight"`
	ContextWeight      float32  `toml:"context_weight"`
	RecencyWeight      float32  `toml:"recency_weight"`
	AuthorityWeight    float32  `toml:"authority_weight"`
	GraphWeight        float32  `toml:"graph_weight"`
	EnableExplanations bool     `toml:"enable_explanations"`
	TrustedAuthors     []string `toml:"trusted_authors"`
	// Context is the initial session context.
	Context string `toml:"context"`
}

type SearchConfig struct {
	EmbedTimeout         Duration `toml:"embed_timeout"`
	SearchTimeout        Duration `toml:"search_timeout"`
	FilterFalsePositives bool     `toml:"filter_false_positives"`
	CollapseByDocument   bool     `toml:"collapse_by_document"`
	ExpansionSearch      bool     `toml:"expansion_search"`
}

type IngestionConfig struct {
	PoolSize       int      `toml:"pool_size"`
	BatchSize      int      `toml:"batch_size"`
	ReportInterval int      `toml:"report_interval"`
	MaxRetries     int      `toml:"max_retries"`
	RetryDelay     Duration `toml:"retry_delay"`
}

type QdrantConfig struct {
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	Collection string `toml:"collection"`
}

type TracingConfig struct {
	// OTLPEndpoint is the OTLP gRPC collector address. Empty disables export.
	OTLPEndpoint string  `toml:"otlp_endpoint"`
	ServiceName  string  `toml:"service_name"`
	Environment  string  `toml:"environment"`
	SampleRate   float64 `toml:"sample_rate"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	aiCfg := ai.DefaultConfig()
	chunkCfg := chunker.DefaultConfig()
	queryCfg := query.DefaultConfig()
	rerankCfg := rerank.DefaultConfig()
	reembedCfg := reembed.DefaultConfig()
	tracingCfg := observability.DefaultTracingConfig()

	return &Config{
		Storage: StorageConfig{
			VectorBackend: VectorBackendBadger,
		},
		AI: AIConfig{
			Provider:       aiCfg.Provider,
			EmbeddingHost:  aiCfg.EmbeddingHost,
			EmbeddingModel: aiCfg.EmbeddingModel,
			APIKey:         aiCfg.APIKey,
			Dimensions:     aiCfg.Dimensions,
			CacheSize:      aiCfg.CacheSize,
			CacheTTL:       Duration(aiCfg.CacheTTL),
		},
		Chunker: ChunkerConfig{
			ChunkSize:          chunkCfg.ChunkSize,
			ChunkOverlap:       chunkCfg.ChunkOverlap,
			PreserveSentences:  chunkCfg.PreserveSentences,
			PreserveParagraphs: chunkCfg.PreserveParagraphs,
			MinChunkSize:       chunkCfg.MinChunkSize,
			MaxChunkSize:       chunkCfg.MaxChunkSize,
		},
		Query: QueryConfig{
			DefaultK:              queryCfg.DefaultK,
			SimilarityThreshold:   queryCfg.SimilarityThreshold,
			EnableExpansion:       queryCfg.EnableExpansion,
			EnableIntentDetection: queryCfg.EnableIntentDetection,
			MaxResults:            queryCfg.MaxResults,
			PageSize:              query.DefaultPageSize,
		},
		Rerank: RerankConfig{
			VectorWeight:       rerankCfg.Weights.VectorSimilarity,
			ContextWeight:      rerankCfg.Weights.ContextRelevance,
			RecencyWeight:      rerankCfg.Weights.Recency,
			AuthorityWeight:    rerankCfg.Weights.Authority,
			GraphWeight:        rerankCfg.Weights.GraphPosition,
			EnableExplanations: rerankCfg.EnableExplanations,
			TrustedAuthors:     rerankCfg.TrustedAuthors,
		},
		Search: SearchConfig{
			EmbedTimeout:  Duration(search.DefaultEmbedTimeout),
			SearchTimeout: Duration(search.DefaultSearchTimeout),
		},
		Ingestion: IngestionConfig{
			BatchSize:      reembedCfg.BatchSize,
			ReportInterval: reembedCfg.ReportInterval,
			MaxRetries:     reembedCfg.MaxRetries,
			RetryDelay:     Duration(reembedCfg.RetryDelay),
		},
		Qdrant: QdrantConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: "recall",
		},
		Tracing: TracingConfig{
			ServiceName: tracingCfg.ServiceName,
			Environment: tracingCfg.Environment,
			SampleRate:  tracingCfg.SampleRate,
		},
	}
}

// Load reads a configuration file over the defaults. An empty path returns
// the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as TOML, creating the parent directory.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	// Write with restricted permissions, the file may hold an API key
	return os.WriteFile(path, data, 0600)
}

// Validate checks the values no component default can repair.
func (c *Config) Validate() error {
	var errs []error

	c.Storage.VectorBackend = strings.ToLower(strings.TrimSpace(c.Storage.VectorBackend))
	switch c.Storage.VectorBackend {
	case "":
		c.Storage.VectorBackend = VectorBackendBadger
	case VectorBackendBadger:
	case VectorBackendQdrant:
		if c.Qdrant.Host == "" {
			errs = append(errs, errors.New("qdrant.host is required"))
		}
		if c.Qdrant.Port <= 0 || c.Qdrant.Port > 65535 {
			errs = append(errs, fmt.Errorf("qdrant.port %d out of range", c.Qdrant.Port))
		}
		if c.Qdrant.Collection == "" {
			errs = append(errs, errors.New("qdrant.collection is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownVectorBackend, c.Storage.VectorBackend))
	}

	if err := c.AIConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	if t := c.Query.SimilarityThreshold; t < 0 || t > 1 {
		errs = append(errs, fmt.Errorf("query.similarity_threshold %v outside [0,1]", t))
	}
	if c.Search.EmbedTimeout < 0 || c.Search.SearchTimeout < 0 {
		errs = append(errs, errors.New("search timeouts must not be negative"))
	}
	if r := c.Tracing.SampleRate; r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("tracing.sample_rate %v outside [0,1]", r))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// AIConfig returns the normalized embedding provider configuration.
func (c *Config) AIConfig() *ai.Config {
	cfg := ai.NewConfig(
		ai.WithProvider(c.AI.Provider),
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithAPIKey(c.AI.APIKey),
		ai.WithDimensions(c.AI.Dimensions),
		ai.WithCache(c.AI.CacheSize, c.AI.CacheTTL.Std()),
	)
	cfg.Normalize()
	return cfg
}

func (c *Config) ChunkerConfig() chunker.Config {
	return chunker.Config{
		ChunkSize:          c.Chunker.ChunkSize,
		ChunkOverlap:       c.Chunker.ChunkOverlap,
		PreserveSentences:  c.Chunker.PreserveSentences,
		PreserveParagraphs: c.Chunker.PreserveParagraphs,
		MinChunkSize:       c.Chunker.MinChunkSize,
		MaxChunkSize:       c.Chunker.MaxChunkSize,
	}.Normalize()
}

func (c *Config) QueryConfig() query.Config {
	return query.Config{
		DefaultK:              c.Query.DefaultK,
		SimilarityThreshold:   c.Query.SimilarityThreshold,
		EnableExpansion:       c.Query.EnableExpansion,
		EnableIntentDetection: c.Query.EnableIntentDetection,
		MaxResults:            c.Query.MaxResults,
	}.Normalize()
}

func (c *Config) RerankConfig() rerank.Config {
	return rerank.Config{
		Weights: rerank.Weights{
			VectorSimilarity: c.Rerank.VectorWeight,
			ContextRelevance: c.Rerank.ContextWeight,
			Recency:          c.Rerank.RecencyWeight,
			Authority:        c.Rerank.AuthorityWeight,
			GraphPosition:    c.Rerank.GraphWeight,
		},
		EnableExplanations: c.Rerank.EnableExplanations,
		TrustedAuthors:     c.Rerank.TrustedAuthors,
	}
}

// SearchOptions returns the searcher options of the [search] section.
func (c *Config) SearchOptions() []search.Option {
	return []search.Option{
		search.WithEmbedTimeout(c.Search.EmbedTimeout.Std()),
		search.WithSearchTimeout(c.Search.SearchTimeout.Std()),
		search.WithFalsePositiveFilter(c.Search.FilterFalsePositives),
		search.WithCollapseByDocument(c.Search.CollapseByDocument),
		search.WithExpansionSearch(c.Search.ExpansionSearch),
	}
}

func (c *Config) ReembedConfig() *reembed.Config {
	def := reembed.DefaultConfig()
	cfg := &reembed.Config{
		BatchSize:      c.Ingestion.BatchSize,
		ReportInterval: c.Ingestion.ReportInterval,
		MaxRetries:     c.Ingestion.MaxRetries,
		RetryDelay:     c.Ingestion.RetryDelay.Std(),
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.ReportInterval <= 0 {
		cfg.ReportInterval = def.ReportInterval
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	return cfg
}

func (c *Config) TracingConfig() *observability.TracingConfig {
	cfg := observability.DefaultTracingConfig()
	cfg.OTLPEndpoint = c.Tracing.OTLPEndpoint
	if c.Tracing.ServiceName != "" {
		cfg.ServiceName = c.Tracing.ServiceName
	}
	if c.Tracing.Environment != "" {
		cfg.Environment = c.Tracing.Environment
	}
	cfg.SampleRate = c.Tracing.SampleRate
	return cfg
}
