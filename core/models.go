package core

import (
	"encoding/binary"
	"fmt"
	"maps"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier for chunks and vector points.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// String renders the ID as a fixed-width hex string.
func (id ID) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// ChunkID derives the identifier of a chunk from its boundaries and section.
// Identical content chunked with identical settings yields identical IDs.
func ChunkID(start, end int, section string) ID {
	return IDFromContent(strconv.Itoa(start) + ":" + strconv.Itoa(end) + ":" + section)
}

// PointID is the vector store key of a document chunk.
func PointID(documentID string, chunkID ID) string {
	return documentID + "#" + chunkID.String()
}

// IndexedDocument is a document held by the document store together with its
// derived chunks.
type IndexedDocument struct {
	ID        string
	Title     string
	Content   string
	DocType   string
	Metadata  map[string]string
	Embedding []float32 // Assigned by the ingestion pipeline, empty until then
	Chunks    []Chunk   // Ordered by StartPos
	IndexedAt time.Time
}

// Clone returns a deep copy of the document.
func (d *IndexedDocument) Clone() *IndexedDocument {
	if d == nil {
		return nil
	}
	out := *d
	out.Metadata = maps.Clone(d.Metadata)
	out.Embedding = cloneVector(d.Embedding)
	if d.Chunks != nil {
		out.Chunks = make([]Chunk, len(d.Chunks))
		for i, c := range d.Chunks {
			c.Embedding = cloneVector(c.Embedding)
			out.Chunks[i] = c
		}
	}
	return &out
}

// Chunk is a contiguous slice of a document prepared for embedding.
type Chunk struct {
	ID           ID
	Index        int
	Content      string
	StartPos     int // Byte offset into the parent content
	EndPos       int // Exclusive byte offset into the parent content
	Embedding    []float32
	SectionTitle string // Title of the enclosing section, empty if none was detected
}

// Intent classifies what kind of answer a query is after.
type Intent int

const (
	// IntentUnspecified means no intent was given or detected.
	IntentUnspecified Intent = iota
	// IntentInformational seeks to understand something.
	IntentInformational
	// IntentNavigational looks for a specific document.
	IntentNavigational
	// IntentTransactional wants to accomplish an action.
	IntentTransactional
	// IntentExploratory browses a topic broadly.
	IntentExploratory
)

var intentNames = map[Intent]string{
	IntentUnspecified:   "unspecified",
	IntentInformational: "informational",
	IntentNavigational:  "navigational",
	IntentTransactional: "transactional",
	IntentExploratory:   "exploratory",
}

func (i Intent) String() string {
	if name, ok := intentNames[i]; ok {
		return name
	}
	return "intent(" + strconv.Itoa(int(i)) + ")"
}

// ParseIntent maps a lowercase intent name back to its Intent.
// The empty string parses as IntentUnspecified.
func ParseIntent(name string) (Intent, error) {
	if name == "" {
		return IntentUnspecified, nil
	}
	for intent, n := range intentNames {
		if n == name {
			return intent, nil
		}
	}
	return IntentUnspecified, ErrUnknownIntent
}

// DateRange is an inclusive time interval.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies within the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// SearchFilters restricts which candidates a search may return.
// Empty fields impose no constraint.
type SearchFilters struct {
	DocTypes  []string
	Tags      []string // Any-match against the comma separated "tags" metadata
	DateRange *DateRange
}

// SearchQuery is a user query.
type SearchQuery struct {
	Text    string
	Intent  Intent         // Overrides intent detection when not IntentUnspecified
	Filters *SearchFilters // Optional
	Context string         // Explicit query context, overrides the reranker session context
}

// Candidate is a raw nearest-neighbor hit returned by a vector store.
type Candidate struct {
	ID         string
	Similarity float32
	Distance   float32 // 1 - Similarity
	Metadata   map[string]string
}

// ScoreBreakdown holds the weighted contribution of every reranking signal.
type ScoreBreakdown struct {
	VectorSimilarity float32
	ContextRelevance float32
	Recency          float32
	Authority        float32
	GraphPosition    float32
	Total            float32
}

// RankedResult is a candidate after contextual reranking.
type RankedResult struct {
	ID                 string
	OriginalSimilarity float32
	CompositeScore     float32
	Scores             ScoreBreakdown
	Metadata           map[string]string
	Explanation        string // Empty when no signal stood out
}

// IndexStats summarizes the contents of a document store.
type IndexStats struct {
	TotalDocuments  int
	TotalChunks     int
	AvgChunksPerDoc float32
	AvgChunkSize    float32
	TotalSizeBytes  int
}

func cloneVector(v []float32) []float32 {
	if v == nil {
		return nil
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
