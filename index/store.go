// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package index holds indexed documents in memory and keeps their chunk lists
// in step with their content.
package index

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/recall/chunker"
	"github.com/poiesic/recall/core"
)

const shardCount = 16

type shard struct {
	mu   sync.RWMutex
	docs map[string]*core.IndexedDocument
}

// DocumentStore maps document IDs to indexed documents. The map is split into
// shards selected by a hash of the ID, each guarded by its own lock.
//
// Documents handed out by the store are deep copies; mutating them has no
// effect on the stored state.
type DocumentStore struct {
	shards  [shardCount]shard
	chunker *chunker.Chunker
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a DocumentStore.
type Option func(*DocumentStore) error

// WithLogger sets the logger. A nil logger falls back to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *DocumentStore) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "document-store")
		return nil
	}
}

// WithChunker replaces the default chunker.
func WithChunker(c *chunker.Chunker) Option {
	return func(s *DocumentStore) error {
		if c == nil {
			return ErrChunkerRequired
		}
		s.chunker = c
		return nil
	}
}

// WithClock overrides the time source used for IndexedAt.
func WithClock(now func() time.Time) Option {
	return func(s *DocumentStore) error {
		if now == nil {
			return ErrClockRequired
		}
		s.now = now
		return nil
	}
}

// NewDocumentStore creates an empty store chunking with the default
// configuration unless WithChunker is given.
func NewDocumentStore(opts ...Option) (*DocumentStore, error) {
	s := &DocumentStore{
		chunker: chunker.New(chunker.DefaultConfig()),
		now:     time.Now,
		logger:  slog.Default().With("component", "document-store"),
	}
	for i := range s.shards {
		s.shards[i].docs = make(map[string]*core.IndexedDocument)
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *DocumentStore) shardFor(id string) *shard {
	return &s.shards[uint64(core.IDFromContent(id))%shardCount]
}

// AddDocument chunks content and stores the resulting document under id,
// replacing any document already stored there.
func (s *DocumentStore) AddDocument(id, title, content, docType string, metadata map[string]string) string {
	doc := &core.IndexedDocument{
		ID:        id,
		Title:     title,
		Content:   content,
		DocType:   docType,
		Metadata:  maps.Clone(metadata),
		Chunks:    s.chunker.Chunk(content),
		IndexedAt: s.now(),
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]string)
	}

	sh := s.shardFor(id)
	sh.mu.Lock()
	_, replaced := sh.docs[id]
	sh.docs[id] = doc
	sh.mu.Unlock()

	s.logger.Debug("document added", "id", id, "chunks", len(doc.Chunks), "replaced", replaced)
	return id
}

// UpdateDocument replaces the content of an existing document and re-chunks
// it. Embeddings are cleared and have to be assigned again.
func (s *DocumentStore) UpdateDocument(id, content string) error {
	chunks := s.chunker.Chunk(content)

	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	doc, ok := sh.docs[id]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	doc.Content = content
	doc.Chunks = chunks
	doc.Embedding = nil
	doc.IndexedAt = s.now()

	s.logger.Debug("document updated", "id", id, "chunks", len(chunks))
	return nil
}

// RemoveDocument deletes a document and returns it, or false when id is unknown.
func (s *DocumentStore) RemoveDocument(id string) (*core.IndexedDocument, bool) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	doc, ok := sh.docs[id]
	delete(sh.docs, id)
	sh.mu.Unlock()

	if ok {
		s.logger.Debug("document removed", "id", id)
	}
	return doc, ok
}

// GetDocument returns a copy of the document stored under id.
func (s *DocumentStore) GetDocument(id string) (*core.IndexedDocument, bool) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	doc, ok := sh.docs[id]
	if !ok {
		return nil, false
	}
	return doc.Clone(), true
}

// ListDocuments returns copies of every document ordered by ID.
func (s *DocumentStore) ListDocuments() []*core.IndexedDocument {
	return s.collect(func(*core.IndexedDocument) bool { return true })
}

// SearchByMetadata returns documents whose metadata value for key equals value.
func (s *DocumentStore) SearchByMetadata(key, value string) []*core.IndexedDocument {
	return s.collect(func(d *core.IndexedDocument) bool {
		v, ok := d.Metadata[key]
		return ok && v == value
	})
}

// SearchByType returns documents of the given type.
func (s *DocumentStore) SearchByType(docType string) []*core.IndexedDocument {
	return s.collect(func(d *core.IndexedDocument) bool { return d.DocType == docType })
}

func (s *DocumentStore) collect(match func(*core.IndexedDocument) bool) []*core.IndexedDocument {
	var out []*core.IndexedDocument
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		for _, doc := range sh.docs {
			if match(doc) {
				out = append(out, doc.Clone())
			}
		}
		sh.mu.RUnlock()
	}
	slices.SortFunc(out, func(a, b *core.IndexedDocument) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// SetEmbeddings assigns the document vector and one vector per chunk.
func (s *DocumentStore) SetEmbeddings(id string, document []float32, chunks [][]float32) error {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	doc, ok := sh.docs[id]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	if len(chunks) != len(doc.Chunks) {
		return fmt.Errorf("%w: %d vectors for %d chunks", core.ErrEmbeddingMismatch, len(chunks), len(doc.Chunks))
	}

	doc.Embedding = slices.Clone(document)
	for i := range doc.Chunks {
		doc.Chunks[i].Embedding = slices.Clone(chunks[i])
	}
	return nil
}

// Put stores a fully built document as is, without re-chunking. It is used to
// restore persisted documents.
func (s *DocumentStore) Put(doc *core.IndexedDocument) error {
	if doc == nil {
		return core.ErrInvalidDocument
	}
	if err := core.ValidateDocumentID(doc.ID); err != nil {
		return err
	}

	sh := s.shardFor(doc.ID)
	sh.mu.Lock()
	sh.docs[doc.ID] = doc.Clone()
	sh.mu.Unlock()
	return nil
}

// Len returns the number of stored documents.
func (s *DocumentStore) Len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		n += len(sh.docs)
		sh.mu.RUnlock()
	}
	return n
}

// Stats summarizes the store. Averages are zero when the store is empty.
func (s *DocumentStore) Stats() core.IndexStats {
	var stats core.IndexStats
	chunkBytes := 0

	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		for _, doc := range sh.docs {
			stats.TotalDocuments++
			stats.TotalChunks += len(doc.Chunks)
			stats.TotalSizeBytes += len(doc.Content)
			for _, c := range doc.Chunks {
				chunkBytes += len(c.Content)
			}
		}
		sh.mu.RUnlock()
	}

	if stats.TotalDocuments > 0 {
		stats.AvgChunksPerDoc = float32(stats.TotalChunks) / float32(stats.TotalDocuments)
	}
	if stats.TotalChunks > 0 {
		stats.AvgChunkSize = float32(chunkBytes) / float32(stats.TotalChunks)
	}
	return stats
}
