package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/docvec/core"
)

// embedRecords fills in Values for records, embedBatchSize texts at a
// time. Each batch is retried with backoff before the file is given up.
func (p *Pipeline) embedRecords(ctx context.Context, records []*core.Record) error {
	for start := 0; start < len(records); start += p.embedBatchSize {
		end := min(start+p.embedBatchSize, len(records))
		batch := records[start:end]

		texts := make([]string, len(batch))
		for i, record := range batch {
			texts[i] = record.Text
		}

		p.logger.Debug("generating embeddings", "records", len(texts), "offset", start)
		var embeddings [][]float32
		began := time.Now()
		err := RetryWithBackoff(ctx, func() error {
			var err error
			embeddings, err = p.embedder.EmbedTexts(ctx, texts)
			return err
		}, p.maxAttempts, p.retryBaseDelay)
		p.metrics.ObserveEmbed(time.Since(began))
		if err != nil {
			return fmt.Errorf("%w: records %d-%d: %w", ErrEmbeddingFailed, start, end, err)
		}

		if len(embeddings) != len(batch) {
			return fmt.Errorf("%w: expected %d embeddings, received %d", ErrEmbeddingFailed, len(batch), len(embeddings))
		}

		for i := range embeddings {
			batch[i].Values = embeddings[i]
		}
	}
	return nil
}
