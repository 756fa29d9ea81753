package ai

import "context"

// Embedder turns chunk and query text into vectors. Chunks and queries must
// go through the same Embedder for their similarities to be meaningful.
// Implementations must be safe for concurrent use.
type Embedder interface {
	// EmbedText embeds a single text, typically a search query.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts embeds a batch of texts, typically the chunks of one or
	// more documents. The result is in input order and has one vector per text.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Dimensioner is implemented by embedders that know their vector size
// without calling the model.
type Dimensioner interface {
	Dimensions() int
}

// AIProvider owns the embedding service and its lifecycle.
type AIProvider interface {
	// Embedder returns the embedding service. It is safe for concurrent use.
	Embedder() Embedder

	// Close releases resources held by the provider. The provider and its
	// embedder must not be used afterwards.
	Close() error
}
