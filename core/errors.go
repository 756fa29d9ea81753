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

package core

import "errors"

var (
	// ErrNotFound indicates the requested document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidQuery indicates a malformed or empty query.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrVectorStore wraps failures reported by a vector store.
	ErrVectorStore = errors.New("vector store error")

	// ErrEmbedding wraps failures reported by an embedding service.
	ErrEmbedding = errors.New("embedding error")

	// ErrInvalidDocument indicates a document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptyDocumentID indicates the document ID is empty.
	ErrEmptyDocumentID = errors.New("document id cannot be empty")

	// ErrEmbeddingMismatch indicates the number of vectors does not match the number of chunks.
	ErrEmbeddingMismatch = errors.New("embedding count does not match chunk count")

	// ErrDimensionMismatch indicates a vector has the wrong dimensionality.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrUnknownIntent indicates an intent name could not be parsed.
	ErrUnknownIntent = errors.New("unknown intent")
)
