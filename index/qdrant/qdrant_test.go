package qdrant

import (
	"context"
	"testing"

	"github.com/poiesic/docvec/core"
	"github.com/poiesic/docvec/index"
	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	exists   bool
	created  *qdrant.CreateCollection
	fieldIdx []string
	upserts  []*qdrant.UpsertPoints
	deletes  []*qdrant.DeletePoints
	count    uint64
	closed   bool
}

func (f *fakeClient) CollectionExists(ctx context.Context, name string) (bool, error) {
	return f.exists, nil
}

func (f *fakeClient) CreateCollection(ctx context.Context, req *qdrant.CreateCollection) error {
	f.created = req
	return nil
}

func (f *fakeClient) CreateFieldIndex(ctx context.Context, req *qdrant.CreateFieldIndexCollection) (*qdrant.UpdateResult, error) {
	f.fieldIdx = append(f.fieldIdx, req.FieldName)
	return &qdrant.UpdateResult{}, nil
}

func (f *fakeClient) Upsert(ctx context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error) {
	f.upserts = append(f.upserts, req)
	return &qdrant.UpdateResult{}, nil
}

func (f *fakeClient) Delete(ctx context.Context, req *qdrant.DeletePoints) (*qdrant.UpdateResult, error) {
	f.deletes = append(f.deletes, req)
	return &qdrant.UpdateResult{}, nil
}

func (f *fakeClient) Count(ctx context.Context, req *qdrant.CountPoints) (uint64, error) {
	return f.count, nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func TestOpen_CreatesCollection(t *testing.T) {
	fc := &fakeClient{}
	_, err := open(context.Background(), Config{Collection: "docs", Dimension: 8}, fc)
	require.NoError(t, err)

	require.NotNil(t, fc.created)
	assert.Equal(t, "docs", fc.created.CollectionName)
	assert.Equal(t, uint64(8), fc.created.VectorsConfig.GetParams().GetSize())
	assert.Equal(t, []string{index.FieldNamespace, index.FieldDocType}, fc.fieldIdx)
}

func TestOpen_ExistingCollection(t *testing.T) {
	fc := &fakeClient{exists: true}
	_, err := open(context.Background(), Config{Collection: "docs"}, fc)
	require.NoError(t, err)
	assert.Nil(t, fc.created)
}

func TestOpen_RequiresDimensionToCreate(t *testing.T) {
	_, err := open(context.Background(), Config{Collection: "docs"}, &fakeClient{})
	assert.Error(t, err)
}

func TestPointID_Deterministic(t *testing.T) {
	a := PointID("social", "bank:acct.pdf-p1-0")
	assert.Equal(t, a, PointID("social", "bank:acct.pdf-p1-0"))
	assert.NotEqual(t, a, PointID("other", "bank:acct.pdf-p1-0"))
	assert.Len(t, a, 36)
}

func TestIndex_UpsertTagsNamespace(t *testing.T) {
	fc := &fakeClient{exists: true}
	idx, err := open(context.Background(), Config{Collection: "docs"}, fc)
	require.NoError(t, err)

	n, err := idx.Upsert(context.Background(), "social", []*core.Record{
		{ID: "faq.json-qa-0", Values: []float32{0.1, 0.2}, Metadata: map[string]any{"text": "Q: a\nA: b", "page": 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, fc.upserts, 1)
	p := fc.upserts[0].Points[0]
	assert.Equal(t, PointID("social", "faq.json-qa-0"), p.Id.GetUuid())
	assert.Equal(t, "social", p.Payload[index.FieldNamespace].GetStringValue())
	assert.Equal(t, "faq.json-qa-0", p.Payload[FieldRecordID].GetStringValue())
	assert.Equal(t, int64(1), p.Payload["page"].GetIntegerValue())
}

func TestIndex_UpsertRejectsUnsupportedPayload(t *testing.T) {
	idx, err := open(context.Background(), Config{Collection: "docs"}, &fakeClient{exists: true})
	require.NoError(t, err)

	_, err = idx.Upsert(context.Background(), "social", []*core.Record{
		{ID: "a", Values: []float32{1}, Metadata: map[string]any{"bad": struct{}{}}},
	})
	assert.Error(t, err)
}

func TestIndex_DeleteAll(t *testing.T) {
	fc := &fakeClient{exists: true}
	idx, err := open(context.Background(), Config{Collection: "docs"}, fc)
	require.NoError(t, err)

	assert.ErrorIs(t, idx.DeleteAll(context.Background(), "social"), index.ErrNamespaceNotFound)
	assert.Empty(t, fc.deletes)

	fc.count = 3
	require.NoError(t, idx.DeleteAll(context.Background(), "social"))
	require.Len(t, fc.deletes, 1)
	assert.Len(t, fc.deletes[0].Points.GetFilter().Must, 1)
}

func TestIndex_DeleteByDocType(t *testing.T) {
	fc := &fakeClient{exists: true}
	idx, err := open(context.Background(), Config{Collection: "docs"}, fc)
	require.NoError(t, err)

	require.NoError(t, idx.DeleteByDocType(context.Background(), "social", core.DocTypeBank))
	require.Len(t, fc.deletes, 1)
	assert.Len(t, fc.deletes[0].Points.GetFilter().Must, 2)

	require.NoError(t, idx.Close())
	assert.True(t, fc.closed)
}
