package rerank

import "errors"

// ErrClockRequired indicates a nil clock was supplied.
var ErrClockRequired = errors.New("clock is required")
