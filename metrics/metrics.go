// Package metrics holds the Prometheus collectors updated by the ingestion
// pipeline. A nil *Metrics is valid and records nothing.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// File outcomes used as the "outcome" label.
const (
	OutcomeProcessed = "processed"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// Metrics is a set of collectors registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	files           *prometheus.CounterVec
	recordsBuilt    prometheus.Counter
	vectorsUpserted prometheus.Counter
	vectorsFailed   prometheus.Counter
	embedLatency    prometheus.Histogram
	upsertLatency   prometheus.Histogram
}

// New creates the collectors with the given metric name prefix.
// An empty prefix defaults to "docvec".
func New(prefix string) *Metrics {
	if prefix == "" {
		prefix = "docvec"
	}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_files_total",
				Help: "Input files by outcome",
			},
			[]string{"outcome"},
		),
		recordsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_records_built_total",
			Help: "Records built from extracted text",
		}),
		vectorsUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_vectors_upserted_total",
			Help: "Vectors acknowledged by the index",
		}),
		vectorsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_vectors_failed_total",
			Help: "Vectors that could not be written",
		}),
		embedLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    prefix + "_embed_batch_seconds",
			Help:    "Latency of one embedding batch",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}),
		upsertLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    prefix + "_upsert_batch_seconds",
			Help:    "Latency of one upsert batch",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}
	m.registry.MustRegister(
		m.files,
		m.recordsBuilt,
		m.vectorsUpserted,
		m.vectorsFailed,
		m.embedLatency,
		m.upsertLatency,
	)
	return m
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// FileOutcome counts one file.
func (m *Metrics) FileOutcome(outcome string) {
	if m == nil {
		return
	}
	m.files.WithLabelValues(outcome).Inc()
}

// RecordsBuilt adds n built records.
func (m *Metrics) RecordsBuilt(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.recordsBuilt.Add(float64(n))
}

// VectorsUpserted adds n written vectors.
func (m *Metrics) VectorsUpserted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.vectorsUpserted.Add(float64(n))
}

// VectorsFailed adds n lost vectors.
func (m *Metrics) VectorsFailed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.vectorsFailed.Add(float64(n))
}

// ObserveEmbed records the latency of one embedding batch.
func (m *Metrics) ObserveEmbed(d time.Duration) {
	if m == nil {
		return
	}
	m.embedLatency.Observe(d.Seconds())
}

// ObserveUpsert records the latency of one upsert batch.
func (m *Metrics) ObserveUpsert(d time.Duration) {
	if m == nil {
		return
	}
	m.upsertLatency.Observe(d.Seconds())
}

// Push sends every collector to a Pushgateway under job.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if m == nil || url == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
