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

// Package storage provides the storage abstraction layer for docvec's
// ingestion manifest.
//
// The manifest remembers, per namespace, which files were fully written to
// the vector index and the fingerprint of their contents. Later runs use it
// to skip unchanged files.
//
// # Constructor Return Type Pattern
//
// Public constructors in implementation packages return the interface:
//
//	manifest, err := badger.NewManifestRepository(backend)  // returns storage.ManifestRepository
//
// # Usage
//
// Open a persistent manifest:
//
//	backend, err := badger.OpenBackend("/var/lib/docvec/manifest", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	manifest := badger.NewManifestRepository(backend)
//	defer manifest.Close()
//
// Use in tests with in-memory storage:
//
//	manifest, err := badger.NewMemoryManifest()
//
// # Serialization
//
// Entries are encoded with mus-go (see FileStateMUS).
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
