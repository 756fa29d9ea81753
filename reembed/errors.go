package reembed

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrRepositoryRequired is returned when no document repository is given.
	ErrRepositoryRequired = errors.New("document repository required")

	// ErrEmbedderRequired is returned when no embedder is given.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrCommitterRequired is returned when nothing receives the new embeddings.
	ErrCommitterRequired = errors.New("committer required")
)
