package query

import "errors"

var (
	// ErrClassifierRequired is returned when a nil intent classifier is supplied.
	ErrClassifierRequired = errors.New("intent classifier required")

	// ErrExpanderRequired is returned when a nil expander is supplied.
	ErrExpanderRequired = errors.New("query expander required")

	// ErrStoreRequired is returned when Search is called without a vector store.
	ErrStoreRequired = errors.New("vector store required")

	// ErrSynonymsUnsupported is returned when the configured expander has no
	// editable synonym table.
	ErrSynonymsUnsupported = errors.New("expander does not support custom synonyms")
)
