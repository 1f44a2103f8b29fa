package pinecone

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"github.com/poiesic/docvec/core"
	"github.com/poiesic/docvec/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeControl struct {
	describes   int
	readyAfter  int
	missing     bool
	failRegions map[string]bool
	created     []string
}

func (f *fakeControl) DescribeIndex(ctx context.Context, name string) (*pinecone.Index, error) {
	f.describes++
	if f.missing && len(f.created) == 0 {
		return nil, errors.New("HTTP 404: index not found")
	}
	ready := f.describes > f.readyAfter
	return &pinecone.Index{Name: name, Host: name + ".svc.test", Status: &pinecone.IndexStatus{Ready: ready}}, nil
}

func (f *fakeControl) CreateServerlessIndex(ctx context.Context, in *pinecone.CreateServerlessIndexRequest) (*pinecone.Index, error) {
	loc := string(in.Cloud) + ":" + in.Region
	if f.failRegions[loc] {
		return nil, errors.New("region unavailable")
	}
	f.created = append(f.created, loc)
	return &pinecone.Index{Name: in.Name}, nil
}

type fakeData struct {
	upserted  []*pinecone.Vector
	pages     [][]string
	listCalls int
	listErr   error
	deleted   [][]string
	filtered  int
	deleteAll error
	closed    bool
}

func (f *fakeData) UpsertVectors(ctx context.Context, in []*pinecone.Vector) (uint32, error) {
	f.upserted = append(f.upserted, in...)
	return uint32(len(in)), nil
}

func (f *fakeData) DeleteAllVectorsInNamespace(ctx context.Context) error {
	return f.deleteAll
}

func (f *fakeData) DeleteVectorsById(ctx context.Context, ids []string) error {
	f.deleted = append(f.deleted, ids)
	return nil
}

func (f *fakeData) DeleteVectorsByFilter(ctx context.Context, filter *pinecone.MetadataFilter) error {
	f.filtered++
	return nil
}

func (f *fakeData) ListVectors(ctx context.Context, in *pinecone.ListVectorsRequest) (*pinecone.ListVectorsResponse, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	page := f.pages[f.listCalls]
	f.listCalls++
	resp := &pinecone.ListVectorsResponse{}
	for _, id := range page {
		resp.VectorIds = append(resp.VectorIds, &id)
	}
	if f.listCalls < len(f.pages) {
		token := "next"
		resp.NextPaginationToken = &token
	}
	return resp, nil
}

func (f *fakeData) Close() error {
	f.closed = true
	return nil
}

func openWith(t *testing.T, cfg Config, cp controlPlane, data *fakeData) *Index {
	t.Helper()
	idx, err := open(context.Background(), cfg, cp, func(host, namespace string) (dataPlane, error) {
		return data, nil
	})
	require.NoError(t, err)
	return idx
}

func TestParseEnvironment(t *testing.T) {
	tests := []struct {
		env  string
		want Location
	}{
		{"us-east-1-aws", Location{Cloud: "aws", Region: "us-east-1"}},
		{"us-central1-gcp", Location{Cloud: "gcp", Region: "us-central1"}},
		{"eastus2-azure", Location{Cloud: "azure", Region: "eastus2"}},
		{"", Location{}},
		{"nodash", Location{}},
		{"trailing-", Location{}},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseEnvironment(tt.env))
		})
	}
}

func TestConfig_Location(t *testing.T) {
	assert.Equal(t, Location{Cloud: "aws", Region: "us-east-1"}, (&Config{}).location())
	assert.Equal(t, Location{Cloud: "gcp", Region: "us-central1"}, (&Config{Environment: "us-central1-gcp"}).location())
	assert.Equal(t, Location{Cloud: "gcp", Region: "eu-west-1"}, (&Config{Region: "eu-west-1", Environment: "us-central1-gcp"}).location())
	assert.Equal(t, Location{Cloud: "aws", Region: "us-central1"}, (&Config{Cloud: "aws", Environment: "us-central1-gcp"}).location())
}

func TestOpen_ExistingHostSkipsControlPlane(t *testing.T) {
	cp := &fakeControl{}
	idx := openWith(t, Config{Host: "direct.svc.test"}, cp, &fakeData{})
	assert.Equal(t, "direct.svc.test", idx.host)
	assert.Equal(t, 0, cp.describes)
}

func TestOpen_ExistingIndex(t *testing.T) {
	cp := &fakeControl{}
	idx := openWith(t, Config{IndexName: "docs", Dimension: 4}, cp, &fakeData{})
	assert.Equal(t, "docs.svc.test", idx.host)
	assert.Empty(t, cp.created)
}

func TestOpen_CreatesWithRegionFallback(t *testing.T) {
	cp := &fakeControl{
		missing:     true,
		failRegions: map[string]bool{"aws:eu-west-1": true, "aws:us-east-1": true},
	}
	cfg := Config{IndexName: "docs", Dimension: 4, Region: "eu-west-1", PollInterval: time.Millisecond}
	idx := openWith(t, cfg, cp, &fakeData{})
	assert.Equal(t, []string{"aws:us-west-2"}, cp.created)
	assert.Equal(t, "docs.svc.test", idx.host)
}

func TestOpen_AllRegionsFail(t *testing.T) {
	cp := &fakeControl{
		missing: true,
		failRegions: map[string]bool{
			"aws:us-east-1": true, "aws:us-west-2": true, "gcp:us-central1": true,
		},
	}
	_, err := open(context.Background(), Config{IndexName: "docs", Dimension: 4}, cp, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension=4")
}

func TestOpen_WaitsUntilReady(t *testing.T) {
	cp := &fakeControl{readyAfter: 2}
	cfg := Config{IndexName: "docs", PollInterval: time.Millisecond, ReadyTimeout: time.Second}
	idx := openWith(t, cfg, cp, &fakeData{})
	assert.Equal(t, "docs.svc.test", idx.host)
	assert.Equal(t, 3, cp.describes)
}

func TestOpen_NotReadyTimesOut(t *testing.T) {
	cp := &fakeControl{readyAfter: 1 << 30}
	cfg := Config{IndexName: "docs", PollInterval: time.Millisecond, ReadyTimeout: 5 * time.Millisecond}
	_, err := open(context.Background(), cfg, cp, nil)
	assert.ErrorIs(t, err, index.ErrIndexNotReady)
}

func TestIndex_Upsert(t *testing.T) {
	data := &fakeData{}
	idx := openWith(t, Config{Host: "h"}, &fakeControl{}, data)

	n, err := idx.Upsert(context.Background(), "social", []*core.Record{
		{ID: "a", Values: []float32{1, 0}, Metadata: map[string]any{"text": "hello", "page": 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, data.upserted, 1)
	assert.Equal(t, "hello", data.upserted[0].Metadata.Fields["text"].GetStringValue())
	assert.Equal(t, float64(2), data.upserted[0].Metadata.Fields["page"].GetNumberValue())
}

func TestIndex_DeleteAllNotFound(t *testing.T) {
	data := &fakeData{deleteAll: errors.New("rpc error: code = NotFound desc = Namespace not found")}
	idx := openWith(t, Config{Host: "h"}, &fakeControl{}, data)
	assert.ErrorIs(t, idx.DeleteAll(context.Background(), "social"), index.ErrNamespaceNotFound)
}

func TestIndex_DeleteByDocTypePages(t *testing.T) {
	data := &fakeData{pages: [][]string{{"bank:a-p1-0", "bank:a-p1-1"}, {"bank:b-p1-0"}}}
	idx := openWith(t, Config{Host: "h"}, &fakeControl{}, data)

	require.NoError(t, idx.DeleteByDocType(context.Background(), "social", core.DocTypeBank))
	assert.Equal(t, [][]string{{"bank:a-p1-0", "bank:a-p1-1"}, {"bank:b-p1-0"}}, data.deleted)
	assert.Equal(t, 0, data.filtered)
}

func TestIndex_DeleteByDocTypeFallsBackToFilter(t *testing.T) {
	data := &fakeData{listErr: errors.New("list not supported for pod indexes")}
	idx := openWith(t, Config{Host: "h"}, &fakeControl{}, data)

	require.NoError(t, idx.DeleteByDocType(context.Background(), "social", core.DocTypeBank))
	assert.Equal(t, 1, data.filtered)
}

func TestIndex_DeleteByDocTypeMissingNamespace(t *testing.T) {
	data := &fakeData{listErr: errors.New("HTTP 404")}
	idx := openWith(t, Config{Host: "h"}, &fakeControl{}, data)

	require.NoError(t, idx.DeleteByDocType(context.Background(), "social", core.DocTypeBank))
	assert.Equal(t, 0, data.filtered)
}

func TestIndex_CloseClosesConnections(t *testing.T) {
	data := &fakeData{}
	idx := openWith(t, Config{Host: "h"}, &fakeControl{}, data)
	_, err := idx.Upsert(context.Background(), "social", []*core.Record{{ID: "a", Values: []float32{1}}})
	require.NoError(t, err)
	require.NoError(t, idx.Close())
	assert.True(t, data.closed)
}
