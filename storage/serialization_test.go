package storage

import (
	"testing"
	"time"

	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/recall/chunker"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocument() *core.IndexedDocument {
	content := "# Intro\nPremier paragraphe.\n\n# Détails\nDeuxième paragraphe, avec des accents."
	doc := &core.IndexedDocument{
		ID:        "doc-1",
		Title:     "Guide",
		Content:   content,
		DocType:   "technical",
		Metadata:  map[string]string{"author": "System", "tags": "go,rust"},
		Embedding: []float32{0.6, 0.8},
		Chunks:    chunker.New(chunker.DefaultConfig()).Chunk(content),
		IndexedAt: time.Date(2025, 5, 4, 3, 2, 1, 123456000, time.UTC),
	}
	for i := range doc.Chunks {
		doc.Chunks[i].Embedding = []float32{float32(i), 1}
	}
	return doc
}

func TestMarshalUnmarshalDocument(t *testing.T) {
	doc := testDocument()
	require.Len(t, doc.Chunks, 2)

	data := MarshalDocument(doc)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalDocument(data)
	require.NoError(t, err)

	assert.Equal(t, doc.ID, decoded.ID)
	assert.Equal(t, doc.Title, decoded.Title)
	assert.Equal(t, doc.Content, decoded.Content)
	assert.Equal(t, doc.DocType, decoded.DocType)
	assert.Equal(t, doc.Metadata, decoded.Metadata)
	assert.Equal(t, doc.Embedding, decoded.Embedding)
	assert.True(t, doc.IndexedAt.Equal(decoded.IndexedAt))
	assert.Equal(t, doc.Chunks, decoded.Chunks)
}

func TestMarshalDocument_Deterministic(t *testing.T) {
	doc := testDocument()
	assert.Equal(t, MarshalDocument(doc), MarshalDocument(doc.Clone()))
}

func TestMarshalUnmarshalDocument_Empty(t *testing.T) {
	decoded, err := UnmarshalDocument(MarshalDocument(&core.IndexedDocument{ID: "empty"}))
	require.NoError(t, err)
	assert.Equal(t, "empty", decoded.ID)
	assert.Empty(t, decoded.Metadata)
	assert.Nil(t, decoded.Embedding)
	assert.Nil(t, decoded.Chunks)
	assert.True(t, decoded.IndexedAt.IsZero())
}

func TestUnmarshalDocument_Invalid(t *testing.T) {
	full := MarshalDocument(testDocument())

	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"truncated", full[:len(full)/2]},
		{"missing last byte", full[:len(full)-1]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalDocument(tt.data)
			assert.ErrorIs(t, err, ErrSerializationFailed)
		})
	}
}

func TestUnmarshalDocument_BadOffsets(t *testing.T) {
	doc := &core.IndexedDocument{
		ID:      "bad",
		Content: "short",
		Chunks:  []core.Chunk{{StartPos: 2, EndPos: 40}},
	}
	_, err := UnmarshalDocument(MarshalDocument(doc))
	assert.ErrorIs(t, err, ErrSerializationFailed)
	assert.ErrorIs(t, err, ErrInvalidChunkOffsets)
}

func TestUnmarshalDocument_OtherVersion(t *testing.T) {
	full := MarshalDocument(testDocument())

	data := make([]byte, varint.Int.Size(formatVersion+1))
	varint.Int.Marshal(formatVersion+1, data)
	data = append(data, full[varint.Int.Size(formatVersion):]...)

	_, err := UnmarshalDocument(data)
	assert.ErrorIs(t, err, ErrSerializationFailed)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestMarshalUnmarshalPoint(t *testing.T) {
	p := vector.Point{
		ID:       core.PointID("doc-1", core.ID(7)),
		Vector:   []float32{0.1, -0.2, 0.3},
		Metadata: map[string]string{"doc_type": "legal", "document_id": "doc-1"},
	}

	decoded, err := UnmarshalPoint(MarshalPoint(p))
	require.NoError(t, err)
	assert.Equal(t, p, decoded)

	_, err = UnmarshalPoint(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
