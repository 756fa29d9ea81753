package core

// Metadata keys read by the query filters and the reranker.
const (
	MetaDocType          = "doc_type"
	MetaTags             = "tags"
	MetaCreatedAt        = "created_at"
	MetaContext          = "context"
	MetaValidated        = "validated"
	MetaAuthor           = "author"
	MetaGraphConnections = "graph_connections"
)

// Metadata keys written by the ingestion pipeline on every vector point.
const (
	MetaDocumentID   = "document_id"
	MetaChunkID      = "chunk_id"
	MetaSectionTitle = "section_title"
	MetaTitle        = "title"
)

// PointMetadata builds the metadata snapshot stored alongside a chunk's vector.
// Document metadata is copied first so the reserved keys always win.
func PointMetadata(doc *IndexedDocument, chunk *Chunk) map[string]string {
	meta := make(map[string]string, len(doc.Metadata)+5)
	for k, v := range doc.Metadata {
		meta[k] = v
	}
	meta[MetaDocType] = doc.DocType
	meta[MetaDocumentID] = doc.ID
	meta[MetaTitle] = doc.Title
	meta[MetaChunkID] = chunk.ID.String()
	if chunk.SectionTitle != "" {
		meta[MetaSectionTitle] = chunk.SectionTitle
	}
	return meta
}
