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


// Package storage provides the storage abstraction layer for shopit.
//
// This package defines repository interfaces that decouple storage
// implementation from the search pipeline:
//
//   - ImageCache: materialized images, so relevance filtering does not
//     refetch the same product image on every search
//   - DisplayRepository: live display targets and the last view rendered to each
//
// Values are serialized with mus-go (see serialization.go).
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return interface types:
//
//	cache, err := badger.NewImageCache(backend)  // returns storage.ImageCache
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	display := badger.NewDisplayRepository(backend)
//	err = display.RegisterTarget(ctx, "conversation-1")
//
// Use in tests with in-memory storage:
//
//	cache, display, backend, err := badger.NewMemoryRepositories()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
