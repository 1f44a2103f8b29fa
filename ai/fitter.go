package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrEmbeddingCountMismatch is returned when a provider returns a different
// number of vectors than texts it was given.
var ErrEmbeddingCountMismatch = errors.New("embedding count mismatch")

// Fitter adapts any Embedder to a fixed index dimension.
//
// Inputs are trimmed. Blank inputs map to a zero vector without calling
// the provider. Other inputs are truncated to the token budget and sent
// in batches; returned vectors are sliced or zero-padded to the dimension
// and optionally normalized.
type Fitter struct {
	embedder  Embedder
	dimension int
	batchSize int
	maxTokens int
	normalize bool
	truncator Truncator
	logger    *slog.Logger
}

var _ Embedder = (*Fitter)(nil)

// FitterOption configures a Fitter.
type FitterOption func(*Fitter)

// WithTruncator overrides the tokenizer used to bound inputs.
func WithTruncator(t Truncator) FitterOption {
	return func(f *Fitter) {
		if t != nil {
			f.truncator = t
		}
	}
}

// WithFitterLogger sets the logger. Default is slog.Default().
func WithFitterLogger(logger *slog.Logger) FitterOption {
	return func(f *Fitter) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFitter wraps embedder with the dimension, batching and token limits
// from config.
func NewFitter(embedder Embedder, config *Config, opts ...FitterOption) (*Fitter, error) {
	if embedder == nil {
		return nil, errors.New("embedder required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Dimension <= 0 {
		return nil, errors.New("dimension must be greater than 0")
	}

	f := &Fitter{
		embedder:  embedder,
		dimension: config.Dimension,
		batchSize: config.BatchSize,
		maxTokens: config.MaxTokens,
		normalize: config.Normalize,
		logger:    slog.Default(),
	}
	if f.batchSize <= 0 {
		f.batchSize = DefaultBatchSize
	}
	if f.maxTokens <= 0 {
		f.maxTokens = DefaultMaxTokens
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.truncator == nil {
		f.truncator = CharTruncator{}
	}
	f.logger = f.logger.With("component", "embedding-fitter")
	return f, nil
}

// Dimension returns the length of every vector produced.
func (f *Fitter) Dimension() int {
	return f.dimension
}

// EmbedText embeds a single text.
func (f *Fitter) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts embeds texts in order, batching provider calls.
func (f *Fitter) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))

	// Indices of texts that need the provider.
	pending := make([]int, 0, len(texts))
	trimmed := make([]string, len(texts))
	for i, text := range texts {
		trimmed[i] = strings.TrimSpace(text)
		if trimmed[i] == "" {
			result[i] = ZeroVector(f.dimension)
			continue
		}
		pending = append(pending, i)
	}

	for start := 0; start < len(pending); start += f.batchSize {
		end := start + f.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		inputs := make([]string, len(batch))
		for j, idx := range batch {
			inputs[j] = f.truncator.Truncate(trimmed[idx], f.maxTokens)
		}

		f.logger.Debug("embedding batch", "size", len(inputs))
		vectors, err := f.embedder.EmbedTexts(ctx, inputs)
		if err != nil {
			return nil, err
		}
		if len(vectors) != len(inputs) {
			return nil, fmt.Errorf("%w: expected %d, received %d", ErrEmbeddingCountMismatch, len(inputs), len(vectors))
		}

		for j, idx := range batch {
			v := vectors[j]
			if len(v) != f.dimension {
				f.logger.Debug("fitting vector to index dimension", "from", len(v), "to", f.dimension)
			}
			v = FitDimension(v, f.dimension)
			if f.normalize {
				v = NormalizeVector(v)
			}
			result[idx] = v
		}
	}

	return result, nil
}
