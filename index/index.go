package index

import (
	"context"

	"github.com/poiesic/docvec/core"
)

// Index is a namespaced vector store. Implementations must be safe for
// concurrent use.
type Index interface {
	// Upsert writes records into namespace, replacing any with the same ID.
	// It returns the number of records the backend acknowledged.
	Upsert(ctx context.Context, namespace string, records []*core.Record) (int, error)

	// DeleteAll removes every vector in namespace. Returns
	// ErrNamespaceNotFound if the namespace has never been written.
	DeleteAll(ctx context.Context, namespace string) error

	// DeleteByDocType removes the vectors of one document type.
	DeleteByDocType(ctx context.Context, namespace string, docType core.DocType) error

	// Close releases connections held by the index.
	Close() error
}

// Metadata keys written by the ingestion pipeline and relied on by the
// backends for filtering.
const (
	FieldText      = "text"
	FieldDocType   = "doc_type"
	FieldNamespace = "namespace"
)

// IDPrefix returns the ID prefix shared by every vector of a doc type.
func IDPrefix(docType core.DocType) string {
	return string(docType) + ":"
}
