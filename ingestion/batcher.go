package ingestion

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/poiesic/docvec/core"
	"github.com/poiesic/docvec/index"
	"github.com/poiesic/docvec/metrics"
)

// batcher accumulates records from concurrent file workers and writes them
// to the index in fixed-size batches. A batch that still fails after its
// retries is split in halves until the failing records are isolated.
type batcher struct {
	index       index.Index
	namespace   string
	size        int
	maxAttempts int
	retryDelay  time.Duration
	metrics     *metrics.Metrics
	progress    *ProgressTracker
	logger      *slog.Logger

	mu      sync.Mutex
	pending []*core.Record

	statsMu   sync.Mutex
	upserted  int
	failed    map[string]struct{}
	failedIDs []string
}

func (p *Pipeline) newBatcher(namespace string, progress *ProgressTracker) *batcher {
	return &batcher{
		index:       p.index,
		namespace:   namespace,
		size:        p.upsertBatchSize,
		maxAttempts: p.maxAttempts,
		retryDelay:  p.retryBaseDelay,
		metrics:     p.metrics,
		progress:    progress,
		logger:      p.logger,
		failed:      make(map[string]struct{}),
	}
}

// add queues records and writes every full batch.
func (b *batcher) add(ctx context.Context, records ...*core.Record) {
	b.mu.Lock()
	b.pending = append(b.pending, records...)
	var ready [][]*core.Record
	for len(b.pending) >= b.size {
		ready = append(ready, b.pending[:b.size:b.size])
		b.pending = b.pending[b.size:]
	}
	b.mu.Unlock()

	for _, batch := range ready {
		b.write(ctx, batch)
	}
}

// flush writes whatever is still queued.
func (b *batcher) flush(ctx context.Context) {
	b.mu.Lock()
	batch := b.pending
	b.pending = nil
	b.mu.Unlock()

	if len(batch) > 0 {
		b.write(ctx, batch)
	}
}

func (b *batcher) write(ctx context.Context, batch []*core.Record) {
	ctx, span := tracer.Start(ctx, "ingestion.flush", trace.WithAttributes(
		attribute.String("docvec.namespace", b.namespace),
		attribute.Int("docvec.batch.size", len(batch)),
	))
	defer span.End()

	valid := make([]*core.Record, 0, len(batch))
	for _, record := range batch {
		if err := core.ValidateRecord(record); err != nil {
			b.fail(record.ID, err)
			continue
		}
		valid = append(valid, record)
	}
	if len(valid) == 0 {
		return
	}

	err := RetryWithBackoff(ctx, func() error {
		return b.upsert(ctx, valid)
	}, b.maxAttempts, b.retryDelay)
	if err == nil {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "upsert failed")
	b.logger.Warn("upsert batch failed, isolating records", "size", len(valid), "err", err)
	b.split(ctx, valid, err)
}

// split retries each half once and recurses into halves that fail again.
func (b *batcher) split(ctx context.Context, records []*core.Record, cause error) {
	if len(records) == 1 || ctx.Err() != nil {
		if ctx.Err() != nil {
			cause = ctx.Err()
		}
		for _, record := range records {
			b.fail(record.ID, cause)
		}
		return
	}

	mid := len(records) / 2
	for _, half := range [][]*core.Record{records[:mid], records[mid:]} {
		if err := b.upsert(ctx, half); err != nil {
			b.split(ctx, half, err)
		}
	}
}

func (b *batcher) upsert(ctx context.Context, records []*core.Record) error {
	began := time.Now()
	n, err := b.index.Upsert(ctx, b.namespace, records)
	b.metrics.ObserveUpsert(time.Since(began))
	if err != nil {
		return err
	}

	b.statsMu.Lock()
	b.upserted += n
	total := b.upserted
	b.statsMu.Unlock()

	b.metrics.VectorsUpserted(n)
	if b.progress.Increment(n) {
		b.logger.Info("upserted vectors so far", "count", total)
	}
	return nil
}

func (b *batcher) fail(id string, err error) {
	b.statsMu.Lock()
	if _, dup := b.failed[id]; !dup {
		b.failed[id] = struct{}{}
		b.failedIDs = append(b.failedIDs, id)
	}
	b.statsMu.Unlock()

	b.metrics.VectorsFailed(1)
	b.logger.Error("record not upserted", "id", id, "err", err)
}

// written reports whether none of ids failed.
func (b *batcher) written(ids []string) bool {
	b.statsMu.Lock()
	defer b.statsMu.Unlock()
	for _, id := range ids {
		if _, bad := b.failed[id]; bad {
			return false
		}
	}
	return true
}

func (b *batcher) results() (upserted int, failedIDs []string) {
	b.statsMu.Lock()
	defer b.statsMu.Unlock()
	failedIDs = slices.Clone(b.failedIDs)
	slices.Sort(failedIDs)
	return b.upserted, failedIDs
}
