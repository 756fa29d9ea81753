// Package ingestion provides pipeline orchestration for indexing documents.
//
// The Pipeline type manages the indexing workflow, including:
//   - Chunking documents into the in-memory DocumentStore
//   - Generating chunk embeddings and the mean document embedding
//   - Upserting one vector point per chunk and persisting the document
//
// Documents of one call are processed concurrently on a worker pool. A document
// whose processing fails is rolled back to its previous state in the store.
package ingestion
