// Package chunker splits document text into overlapping, section-aware chunks
// ready for embedding.
//
// Markdown-style heading lines (first non-blank character '#') split a text
// into sections. Each section is chunked independently, either by packing
// blank-line delimited paragraphs up to a maximum size or by sliding a fixed
// window over the section. Offsets recorded on every chunk are absolute byte
// offsets into the original text, so chunk.Content always equals
// content[chunk.StartPos:chunk.EndPos].
//
// Chunking never fails. Empty or whitespace-only input produces no chunks and
// any other input produces at least one.
package chunker
