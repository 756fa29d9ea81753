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

package storage

import (
	"fmt"
	"slices"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/vector"
)

// formatVersion prefixes every encoded record.
const formatVersion = 1

// MarshalDocument serializes a document to bytes.
func MarshalDocument(doc *core.IndexedDocument) []byte {
	var s sizer
	s.document(doc)
	w := writer{bs: make([]byte, s.n)}
	w.document(doc)
	return w.bs
}

// UnmarshalDocument deserializes a document from bytes.
func UnmarshalDocument(data []byte) (*core.IndexedDocument, error) {
	r := reader{bs: data}
	doc := r.document()
	if r.err != nil {
		return nil, fmt.Errorf("%w: document: %w", ErrSerializationFailed, r.err)
	}
	return doc, nil
}

// MarshalPoint serializes a vector point to bytes.
func MarshalPoint(p vector.Point) []byte {
	var s sizer
	s.point(p)
	w := writer{bs: make([]byte, s.n)}
	w.point(p)
	return w.bs
}

// UnmarshalPoint deserializes a vector point from bytes.
func UnmarshalPoint(data []byte) (vector.Point, error) {
	r := reader{bs: data}
	p := r.point()
	if r.err != nil {
		return vector.Point{}, fmt.Errorf("%w: point: %w", ErrSerializationFailed, r.err)
	}
	return p, nil
}

// sizer, writer and reader walk records in the same field order.

type sizer struct{ n int }

func (s *sizer) int(v int)         { s.n += varint.Int.Size(v) }
func (s *sizer) int64(v int64)     { s.n += varint.Int64.Size(v) }
func (s *sizer) uint64(v uint64)   { s.n += varint.Uint64.Size(v) }
func (s *sizer) string(v string)   { s.n += ord.String.Size(v) }
func (s *sizer) float32(v float32) { s.n += raw.Float32.Size(v) }

func (s *sizer) vector(v []float32) {
	s.int(len(v))
	for _, f := range v {
		s.float32(f)
	}
}

func (s *sizer) stringMap(m map[string]string) {
	s.int(len(m))
	for k, v := range m {
		s.string(k)
		s.string(v)
	}
}

func (s *sizer) document(d *core.IndexedDocument) {
	s.int(formatVersion)
	s.string(d.ID)
	s.string(d.Title)
	s.string(d.Content)
	s.string(d.DocType)
	s.stringMap(d.Metadata)
	s.vector(d.Embedding)
	s.int64(d.IndexedAt.UnixMicro())
	s.int(len(d.Chunks))
	for _, c := range d.Chunks {
		s.uint64(uint64(c.ID))
		s.int(c.Index)
		s.int(c.StartPos)
		s.int(c.EndPos)
		s.vector(c.Embedding)
		s.string(c.SectionTitle)
	}
}

func (s *sizer) point(p vector.Point) {
	s.int(formatVersion)
	s.string(p.ID)
	s.stringMap(p.Metadata)
	s.vector(p.Vector)
}

type writer struct {
	bs []byte
	n  int
}

func (w *writer) int(v int)         { w.n += varint.Int.Marshal(v, w.bs[w.n:]) }
func (w *writer) int64(v int64)     { w.n += varint.Int64.Marshal(v, w.bs[w.n:]) }
func (w *writer) uint64(v uint64)   { w.n += varint.Uint64.Marshal(v, w.bs[w.n:]) }
func (w *writer) string(v string)   { w.n += ord.String.Marshal(v, w.bs[w.n:]) }
func (w *writer) float32(v float32) { w.n += raw.Float32.Marshal(v, w.bs[w.n:]) }

func (w *writer) vector(v []float32) {
	w.int(len(v))
	for _, f := range v {
		w.float32(f)
	}
}

// stringMap writes entries in key order so equal maps encode identically.
func (w *writer) stringMap(m map[string]string) {
	w.int(len(m))
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		w.string(k)
		w.string(m[k])
	}
}

func (w *writer) document(d *core.IndexedDocument) {
	w.int(formatVersion)
	w.string(d.ID)
	w.string(d.Title)
	w.string(d.Content)
	w.string(d.DocType)
	w.stringMap(d.Metadata)
	w.vector(d.Embedding)
	w.int64(d.IndexedAt.UnixMicro())
	w.int(len(d.Chunks))
	for _, c := range d.Chunks {
		w.uint64(uint64(c.ID))
		w.int(c.Index)
		w.int(c.StartPos)
		w.int(c.EndPos)
		w.vector(c.Embedding)
		w.string(c.SectionTitle)
	}
}

func (w *writer) point(p vector.Point) {
	w.int(formatVersion)
	w.string(p.ID)
	w.stringMap(p.Metadata)
	w.vector(p.Vector)
}

// reader keeps the first error and turns every later read into a no-op.
type reader struct {
	bs  []byte
	n   int
	err error
}

func (r *reader) int() int {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *reader) int64() int64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *reader) uint64() uint64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *reader) string() string {
	if r.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *reader) float32() float32 {
	if r.err != nil {
		return 0
	}
	v, n, err := raw.Float32.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

// length reads a collection length and rejects values that cannot fit in
// the remaining input, given at least minElem bytes per element.
func (r *reader) length(minElem int) int {
	l := r.int()
	if r.err != nil {
		return 0
	}
	if l < 0 || l*minElem > len(r.bs)-r.n {
		r.err = ErrTruncatedData
		return 0
	}
	return l
}

func (r *reader) vector() []float32 {
	l := r.length(4)
	if r.err != nil || l == 0 {
		return nil
	}
	v := make([]float32, l)
	for i := range v {
		v[i] = r.float32()
	}
	return v
}

func (r *reader) stringMap() map[string]string {
	l := r.length(2)
	if r.err != nil {
		return nil
	}
	m := make(map[string]string, l)
	for i := 0; i < l && r.err == nil; i++ {
		k := r.string()
		m[k] = r.string()
	}
	return m
}

func (r *reader) version() {
	if v := r.int(); r.err == nil && v != formatVersion {
		r.err = fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
}

func (r *reader) document() *core.IndexedDocument {
	r.version()
	d := &core.IndexedDocument{
		ID:      r.string(),
		Title:   r.string(),
		Content: r.string(),
		DocType: r.string(),
	}
	d.Metadata = r.stringMap()
	d.Embedding = r.vector()
	d.IndexedAt = time.UnixMicro(r.int64()).UTC()

	count := r.length(5)
	if r.err != nil {
		return nil
	}
	if count > 0 {
		d.Chunks = make([]core.Chunk, count)
	}
	for i := 0; i < count && r.err == nil; i++ {
		c := core.Chunk{
			ID:       core.ID(r.uint64()),
			Index:    r.int(),
			StartPos: r.int(),
			EndPos:   r.int(),
		}
		c.Embedding = r.vector()
		c.SectionTitle = r.string()
		if r.err == nil && (c.StartPos < 0 || c.StartPos > c.EndPos || c.EndPos > len(d.Content)) {
			r.err = fmt.Errorf("%w: chunk %d spans [%d,%d) in %d bytes", ErrInvalidChunkOffsets, i, c.StartPos, c.EndPos, len(d.Content))
		}
		if r.err == nil {
			c.Content = d.Content[c.StartPos:c.EndPos]
		}
		d.Chunks[i] = c
	}
	if r.err != nil {
		return nil
	}
	return d
}

func (r *reader) point() vector.Point {
	r.version()
	p := vector.Point{ID: r.string()}
	p.Metadata = r.stringMap()
	p.Vector = r.vector()
	return p
}
