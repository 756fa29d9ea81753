// Package reembed recomputes the embeddings of every stored document, for
// example after switching embedding models.
//
// Documents are read from the repository in batches, embedded with retry and
// exponential backoff, and handed to a Committer (the ingestion pipeline)
// which updates the document store, the vector index and the repository.
// Progress is reported on an io.Writer.
package reembed
