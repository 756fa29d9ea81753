package config

import "errors"

var (
	// ErrInvalidConfig is returned when a loaded configuration fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnknownVectorBackend is returned for a vector backend other than badger or qdrant.
	ErrUnknownVectorBackend = errors.New("unknown vector backend")
)
