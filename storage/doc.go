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


// Package storage provides the storage abstraction layer for Oneiro.
//
// This package defines repository interfaces that decouple the retrieval
// backends from the storage engine. Each retrieval backend owns one passage
// collection, persisted in its own database directory.
//
// # Architecture
//
//   - PassageRepository: Passages with their embeddings, plus nearest-neighbour search
//   - ManifestRepository: The dataset fingerprint a collection was last loaded from
//
// # Usage
//
// Open a collection on disk:
//
//	backend, err := badger.OpenBackend("/path/to/data/distiluse", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//	repo := badger.NewPassageRepository(backend)
//
// Use in tests with in-memory storage:
//
//	repo, backend, err := badger.NewMemoryRepository()
//
// # Distances
//
// FindNearest reports cosine distance (1 - cosine similarity, clamped at 0):
// lower is better, and results are ordered ascending.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
