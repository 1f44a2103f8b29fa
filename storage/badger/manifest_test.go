package badger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/docvec/core"
	"github.com/poiesic/docvec/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManifest(t *testing.T) storage.ManifestRepository {
	t.Helper()
	repo, err := NewMemoryManifest()
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func state(ns, path string, docType core.DocType) *core.FileState {
	return &core.FileState{
		Path:        path,
		Namespace:   ns,
		Fingerprint: core.Fingerprint([]byte(path)),
		DocType:     docType,
		VectorIDs:   []string{path + "-0"},
		RunID:       "run-1",
	}
}

func TestManifest_PutGet(t *testing.T) {
	repo := newManifest(t)
	ctx := context.Background()

	s := state("social", "a.pdf", core.DocTypeGeneral)
	require.NoError(t, repo.Put(ctx, s))
	assert.False(t, s.IndexedAt.IsZero())

	got, err := repo.Get(ctx, "social", "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, s.Fingerprint, got.Fingerprint)
	assert.Equal(t, s.VectorIDs, got.VectorIDs)
	assert.WithinDuration(t, s.IndexedAt, got.IndexedAt, time.Microsecond)

	_, err = repo.Get(ctx, "other", "a.pdf")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestManifest_PutReplaces(t *testing.T) {
	repo := newManifest(t)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, state("social", "a.pdf", core.DocTypeGeneral)))
	updated := state("social", "a.pdf", core.DocTypeGeneral)
	updated.Fingerprint = "changed"
	require.NoError(t, repo.Put(ctx, updated))

	got, err := repo.Get(ctx, "social", "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "changed", got.Fingerprint)

	all, err := repo.List(ctx, "social")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestManifest_PutInvalid(t *testing.T) {
	repo := newManifest(t)
	err := repo.Put(context.Background(), &core.FileState{Path: "a.pdf"})
	assert.ErrorIs(t, err, core.ErrInvalidFileState)
}

func TestManifest_ListIsolatesNamespaces(t *testing.T) {
	repo := newManifest(t)
	ctx := context.Background()

	for _, s := range []*core.FileState{
		state("social", "b.pdf", core.DocTypeBank),
		state("social", "a.pdf", core.DocTypeGeneral),
		state("social2", "c.pdf", core.DocTypeGeneral),
	} {
		require.NoError(t, repo.Put(ctx, s))
	}

	list, err := repo.List(ctx, "social")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a.pdf", list[0].Path)
	assert.Equal(t, "b.pdf", list[1].Path)

	empty, err := repo.List(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestManifest_Delete(t *testing.T) {
	repo := newManifest(t)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, state("social", "a.pdf", core.DocTypeGeneral)))
	require.NoError(t, repo.Delete(ctx, "social", "a.pdf"))
	require.NoError(t, repo.Delete(ctx, "social", "a.pdf"))

	_, err := repo.Get(ctx, "social", "a.pdf")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestManifest_DeleteNamespace(t *testing.T) {
	repo := newManifest(t)
	ctx := context.Background()

	for i := 0; i < deleteBatchSize+5; i++ {
		require.NoError(t, repo.Put(ctx, state("social", fmt.Sprintf("f%04d.pdf", i), core.DocTypeGeneral)))
	}
	require.NoError(t, repo.Put(ctx, state("social2", "keep.pdf", core.DocTypeGeneral)))

	n, err := repo.DeleteNamespace(ctx, "social")
	require.NoError(t, err)
	assert.Equal(t, deleteBatchSize+5, n)

	left, err := repo.List(ctx, "social")
	require.NoError(t, err)
	assert.Empty(t, left)

	kept, err := repo.List(ctx, "social2")
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestManifest_DeleteDocType(t *testing.T) {
	repo := newManifest(t)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, state("social", "bank.pdf", core.DocTypeBank)))
	require.NoError(t, repo.Put(ctx, state("social", "menu.pdf", core.DocTypeGeneral)))

	n, err := repo.DeleteDocType(ctx, "social", core.DocTypeBank)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, err := repo.List(ctx, "social")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "menu.pdf", list[0].Path)
}

func TestManifest_Closed(t *testing.T) {
	repo, err := NewMemoryManifest()
	require.NoError(t, err)
	require.NoError(t, repo.Close())
	require.NoError(t, repo.Close())

	_, err = repo.Get(context.Background(), "social", "a.pdf")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.ErrorIs(t, repo.Put(context.Background(), state("social", "a.pdf", "")), storage.ErrStorageClosed)
}

func TestManifest_Persistent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := OpenManifest(dir)
	require.NoError(t, err)
	require.NoError(t, repo.Put(ctx, state("social", "a.pdf", core.DocTypeGeneral)))
	require.NoError(t, repo.Close())

	repo, err = OpenManifest(dir)
	require.NoError(t, err)
	defer repo.Close()
	got, err := repo.Get(ctx, "social", "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
}
