package index

import "errors"

var (
	// ErrChunkerRequired indicates a nil chunker was supplied.
	ErrChunkerRequired = errors.New("chunker is required")

	// ErrClockRequired indicates a nil clock was supplied.
	ErrClockRequired = errors.New("clock is required")
)
