// Package memory provides an in-process vector index used for dry runs
// and tests.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/poiesic/docvec/core"
	"github.com/poiesic/docvec/index"
)

// FailFunc decides whether an upsert of the given records should fail.
type FailFunc func(namespace string, records []*core.Record) error

// Index keeps vectors in memory, keyed by namespace and ID.
type Index struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]*core.Record
	dimension  int
	failFunc   FailFunc
	upserts    int
}

var _ index.Index = (*Index)(nil)

// Option configures an Index.
type Option func(*Index)

// WithDimension rejects vectors whose length differs from dim.
func WithDimension(dim int) Option {
	return func(i *Index) {
		i.dimension = dim
	}
}

// WithFailFunc injects upsert failures.
func WithFailFunc(fn FailFunc) Option {
	return func(i *Index) {
		i.failFunc = fn
	}
}

// New returns an empty index.
func New(opts ...Option) *Index {
	i := &Index{namespaces: make(map[string]map[string]*core.Record)}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Upsert stores copies of records.
func (i *Index) Upsert(ctx context.Context, namespace string, records []*core.Record) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if i.failFunc != nil {
		if err := i.failFunc(namespace, records); err != nil {
			return 0, err
		}
	}
	for _, r := range records {
		if i.dimension > 0 && len(r.Values) != i.dimension {
			return 0, fmt.Errorf("%w: %s has %d values, want %d", index.ErrDimensionMismatch, r.ID, len(r.Values), i.dimension)
		}
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	ns, ok := i.namespaces[namespace]
	if !ok {
		ns = make(map[string]*core.Record)
		i.namespaces[namespace] = ns
	}
	for _, r := range records {
		ns[r.ID] = &core.Record{
			ID:       r.ID,
			Text:     r.Text,
			Values:   slices.Clone(r.Values),
			Metadata: maps.Clone(r.Metadata),
		}
	}
	i.upserts++
	return len(records), nil
}

// DeleteAll drops the namespace.
func (i *Index) DeleteAll(ctx context.Context, namespace string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.namespaces[namespace]; !ok {
		return index.ErrNamespaceNotFound
	}
	delete(i.namespaces, namespace)
	return nil
}

// DeleteByDocType removes vectors whose doc_type metadata or ID prefix
// matches docType.
func (i *Index) DeleteByDocType(ctx context.Context, namespace string, docType core.DocType) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	ns, ok := i.namespaces[namespace]
	if !ok {
		return nil
	}
	prefix := index.IDPrefix(docType)
	for id, r := range ns {
		if r.DocType() == docType || strings.HasPrefix(id, prefix) {
			delete(ns, id)
		}
	}
	return nil
}

// Close is a no-op.
func (i *Index) Close() error {
	return nil
}

// Get returns a stored record, or nil.
func (i *Index) Get(namespace, id string) *core.Record {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.namespaces[namespace][id]
}

// IDs returns the sorted IDs stored in namespace.
func (i *Index) IDs(namespace string) []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	ids := slices.Collect(maps.Keys(i.namespaces[namespace]))
	slices.Sort(ids)
	return ids
}

// Count returns the number of vectors in namespace.
func (i *Index) Count(namespace string) int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.namespaces[namespace])
}

// UpsertCalls returns the number of successful Upsert calls.
func (i *Index) UpsertCalls() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.upserts
}
