package badger

// Key prefixes for different data types
const (
	documentPrefix = "docrec:"
	pointPrefix    = "vecpt:"
	dimensionKey   = "vecmeta:dim"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id string) []byte {
	return []byte(documentPrefix + id)
}

// makePointKey generates a key for a vector point by ID.
func makePointKey(id string) []byte {
	return []byte(pointPrefix + id)
}
