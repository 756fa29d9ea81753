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

// Package storage provides the persistence abstraction layer for recall.
//
// This package defines the DocumentRepository interface and the binary
// encoding of documents and vector points. Backends live in subpackages
// (storage/badger) and can be swapped without touching the engine.
//
// # Encoding
//
// Records are encoded with mus-go primitive serializers. Chunk text is not
// stored; it is sliced back out of the document content from the chunk
// offsets on decode, so a record with inconsistent offsets fails to decode.
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	docs, vectors, backend, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support. Pass context.Background() for operations
// without specific timeout requirements.
package storage
