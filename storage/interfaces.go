package storage

import (
	"context"

	"github.com/poiesic/docvec/core"
)

// ManifestRepository records which files have been fully indexed into a
// namespace. Implementations must be safe for concurrent use.
type ManifestRepository interface {
	// Get returns the state of path in namespace.
	// Returns ErrNotFound if the file has never been indexed there.
	Get(ctx context.Context, namespace, path string) (*core.FileState, error)

	// Put stores state, replacing any previous entry for the same
	// namespace and path. IndexedAt is set if zero.
	Put(ctx context.Context, state *core.FileState) error

	// Delete removes one entry. Deleting a missing entry is not an error.
	Delete(ctx context.Context, namespace, path string) error

	// List returns every entry in namespace ordered by path.
	List(ctx context.Context, namespace string) ([]*core.FileState, error)

	// DeleteNamespace removes every entry in namespace and returns how
	// many were removed.
	DeleteNamespace(ctx context.Context, namespace string) (int, error)

	// DeleteDocType removes the entries of one document type in namespace
	// and returns how many were removed.
	DeleteDocType(ctx context.Context, namespace string, docType core.DocType) (int, error)

	// Close releases resources held by the repository.
	Close() error
}
