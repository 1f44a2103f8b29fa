package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/docvec/core"
	"github.com/poiesic/docvec/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id string, docType core.DocType) *core.Record {
	md := map[string]any{"text": id}
	if docType != "" {
		md["doc_type"] = string(docType)
	}
	return &core.Record{ID: id, Values: []float32{1, 2}, Metadata: md}
}

func TestIndex_UpsertReplaces(t *testing.T) {
	ctx := context.Background()
	idx := New()

	n, err := idx.Upsert(ctx, "social", []*core.Record{rec("a", ""), rec("b", "")})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	updated := rec("a", "")
	updated.Values = []float32{9, 9}
	_, err = idx.Upsert(ctx, "social", []*core.Record{updated})
	require.NoError(t, err)

	assert.Equal(t, 2, idx.Count("social"))
	assert.Equal(t, []float32{9, 9}, idx.Get("social", "a").Values)
	assert.Equal(t, 2, idx.UpsertCalls())
}

func TestIndex_NamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	idx := New()

	_, err := idx.Upsert(ctx, "one", []*core.Record{rec("a", "")})
	require.NoError(t, err)
	_, err = idx.Upsert(ctx, "two", []*core.Record{rec("b", "")})
	require.NoError(t, err)

	require.NoError(t, idx.DeleteAll(ctx, "one"))
	assert.Equal(t, 0, idx.Count("one"))
	assert.Equal(t, []string{"b"}, idx.IDs("two"))
}

func TestIndex_DeleteAllMissingNamespace(t *testing.T) {
	err := New().DeleteAll(context.Background(), "never-written")
	assert.ErrorIs(t, err, index.ErrNamespaceNotFound)
}

func TestIndex_DeleteByDocType(t *testing.T) {
	ctx := context.Background()
	idx := New()

	_, err := idx.Upsert(ctx, "social", []*core.Record{
		rec("bank:acct.pdf-p1-0", core.DocTypeBank),
		rec("bank:acct.pdf-p1-1", core.DocTypeBank),
		rec("general:menu.pdf-p1-0", core.DocTypeGeneral),
		rec("faq.json-json-0", ""),
	})
	require.NoError(t, err)

	require.NoError(t, idx.DeleteByDocType(ctx, "social", core.DocTypeBank))
	assert.Equal(t, []string{"faq.json-json-0", "general:menu.pdf-p1-0"}, idx.IDs("social"))

	assert.NoError(t, idx.DeleteByDocType(ctx, "missing", core.DocTypeBank))
}

func TestIndex_DimensionCheck(t *testing.T) {
	idx := New(WithDimension(3))
	_, err := idx.Upsert(context.Background(), "social", []*core.Record{rec("a", "")})
	assert.ErrorIs(t, err, index.ErrDimensionMismatch)
	assert.Equal(t, 0, idx.Count("social"))
}

func TestIndex_FailFunc(t *testing.T) {
	boom := errors.New("boom")
	idx := New(WithFailFunc(func(ns string, records []*core.Record) error {
		for _, r := range records {
			if r.ID == "bad" {
				return boom
			}
		}
		return nil
	}))

	_, err := idx.Upsert(context.Background(), "social", []*core.Record{rec("ok", ""), rec("bad", "")})
	assert.ErrorIs(t, err, boom)

	_, err = idx.Upsert(context.Background(), "social", []*core.Record{rec("ok", "")})
	assert.NoError(t, err)
}

func TestIndex_StoresCopies(t *testing.T) {
	r := rec("a", "")
	idx := New()
	_, err := idx.Upsert(context.Background(), "social", []*core.Record{r})
	require.NoError(t, err)

	r.Values[0] = 42
	r.Metadata["text"] = "changed"
	stored := idx.Get("social", "a")
	assert.Equal(t, float32(1), stored.Values[0])
	assert.Equal(t, "a", stored.Metadata["text"])
}
