package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New("")

	m.FileOutcome(OutcomeProcessed)
	m.FileOutcome(OutcomeProcessed)
	m.FileOutcome(OutcomeSkipped)
	m.RecordsBuilt(7)
	m.VectorsUpserted(5)
	m.VectorsFailed(2)
	m.VectorsFailed(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.files.WithLabelValues(OutcomeProcessed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.files.WithLabelValues(OutcomeSkipped)))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.recordsBuilt))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.vectorsUpserted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.vectorsFailed))
}

func TestMetrics_Histograms(t *testing.T) {
	m := New("test")
	m.ObserveEmbed(100 * time.Millisecond)
	m.ObserveUpsert(20 * time.Millisecond)
	m.ObserveUpsert(30 * time.Millisecond)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	counts := map[string]uint64{}
	for _, f := range families {
		if f.GetMetric()[0].GetHistogram() != nil {
			counts[f.GetName()] = f.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(1), counts["test_embed_batch_seconds"])
	assert.Equal(t, uint64(2), counts["test_upsert_batch_seconds"])
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.FileOutcome(OutcomeFailed)
		m.RecordsBuilt(1)
		m.VectorsUpserted(1)
		m.VectorsFailed(1)
		m.ObserveEmbed(time.Second)
		m.ObserveUpsert(time.Second)
	})
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.Push(context.Background(), "http://localhost:1", "job"))
}

func TestMetrics_Push(t *testing.T) {
	var pushed atomic.Int32
	var path atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pushed.Add(1)
		path.Store(r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := New("")
	m.RecordsBuilt(3)
	require.NoError(t, m.Push(context.Background(), srv.URL, "docvec_index"))
	assert.Equal(t, int32(1), pushed.Load())
	assert.True(t, strings.Contains(path.Load().(string), "docvec_index"))
}

func TestMetrics_PushError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := New("").Push(context.Background(), srv.URL, "job")
	assert.Error(t, err)
}
