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

package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docvec/core"
	"github.com/poiesic/docvec/storage"
)

// deleteBatchSize bounds the keys deleted per transaction so large
// namespaces don't exceed badger's transaction limits.
const deleteBatchSize = 1000

// ManifestRepository implements storage.ManifestRepository for BadgerDB.
type ManifestRepository struct {
	backend *Backend
}

var _ storage.ManifestRepository = (*ManifestRepository)(nil)

// NewManifestRepository creates a new ManifestRepository. Closing the
// repository closes backend.
func NewManifestRepository(backend *Backend) storage.ManifestRepository {
	return &ManifestRepository{
		backend: backend,
	}
}

// OpenManifest opens a persistent manifest stored in dir.
func OpenManifest(dir string) (storage.ManifestRepository, error) {
	backend, err := OpenBackend(dir, false)
	if err != nil {
		return nil, err
	}
	return NewManifestRepository(backend), nil
}

// Get retrieves the entry for path in namespace.
func (r *ManifestRepository) Get(ctx context.Context, namespace, path string) (*core.FileState, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	var state *core.FileState
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeManifestKey(namespace, path))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			state, unmarshalErr = storage.UnmarshalFileState(val)
			return unmarshalErr
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return state, nil
}

// Put persists state.
func (r *ManifestRepository) Put(ctx context.Context, state *core.FileState) error {
	if err := core.ValidateFileState(state); err != nil {
		return err
	}
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if state.IndexedAt.IsZero() {
		state.IndexedAt = time.Now().UTC()
	}
	return r.backend.WithTransaction(ctx, func(tx *badger.Txn) error {
		return tx.Set(stateKey(state), storage.MarshalFileState(state))
	})
}

// Delete removes the entry for path in namespace.
func (r *ManifestRepository) Delete(ctx context.Context, namespace, path string) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return r.backend.WithTransaction(ctx, func(tx *badger.Txn) error {
		return tx.Delete(makeManifestKey(namespace, path))
	})
}

// List returns every entry in namespace. Keys sort by path, so entries do
// too.
func (r *ManifestRepository) List(ctx context.Context, namespace string) ([]*core.FileState, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	var states []*core.FileState
	err := r.scan(namespace, func(key []byte, state *core.FileState) error {
		states = append(states, state)
		return nil
	})
	return states, err
}

// DeleteNamespace removes every entry in namespace.
func (r *ManifestRepository) DeleteNamespace(ctx context.Context, namespace string) (int, error) {
	return r.deleteMatching(ctx, namespace, func(*core.FileState) bool { return true })
}

// DeleteDocType removes the entries of docType in namespace.
func (r *ManifestRepository) DeleteDocType(ctx context.Context, namespace string, docType core.DocType) (int, error) {
	return r.deleteMatching(ctx, namespace, func(s *core.FileState) bool { return s.DocType == docType })
}

// Close closes the underlying backend.
func (r *ManifestRepository) Close() error {
	if r.backend.IsClosed() {
		return nil
	}
	return r.backend.Close()
}

func (r *ManifestRepository) scan(namespace string, fn func(key []byte, state *core.FileState) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeNamespacePrefix(namespace)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			var state *core.FileState
			err := item.Value(func(val []byte) error {
				var err error
				state, err = storage.UnmarshalFileState(val)
				return err
			})
			if err != nil {
				return err
			}
			if err := fn(item.KeyCopy(nil), state); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

func (r *ManifestRepository) deleteMatching(ctx context.Context, namespace string, match func(*core.FileState) bool) (int, error) {
	if r.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}

	var keys [][]byte
	err := r.scan(namespace, func(key []byte, state *core.FileState) error {
		if match(state) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for start := 0; start < len(keys); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(keys))
		err := r.backend.WithTransaction(ctx, func(tx *badger.Txn) error {
			for _, key := range keys[start:end] {
				if err := tx.Delete(key); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return start, err
		}
	}
	return len(keys), nil
}
