// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package docvec wires embedding, indexing and the ingestion manifest into
// a Service that indexes documents into a namespaced vector store.
package docvec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/docvec/ai"
	"github.com/poiesic/docvec/ai/ollama"
	"github.com/poiesic/docvec/ai/openai"
	"github.com/poiesic/docvec/classify"
	"github.com/poiesic/docvec/core"
	"github.com/poiesic/docvec/extract"
	"github.com/poiesic/docvec/index"
	"github.com/poiesic/docvec/index/memory"
	"github.com/poiesic/docvec/index/milvus"
	"github.com/poiesic/docvec/index/pgvector"
	"github.com/poiesic/docvec/index/pinecone"
	"github.com/poiesic/docvec/index/qdrant"
	"github.com/poiesic/docvec/ingestion"
	"github.com/poiesic/docvec/metrics"
	"github.com/poiesic/docvec/source"
	"github.com/poiesic/docvec/storage"
	"github.com/poiesic/docvec/storage/badger"
)

// Service owns every component needed to index documents.
type Service struct {
	config   *Config
	provider ai.AIProvider
	index    index.Index
	manifest storage.ManifestRepository
	metrics  *metrics.Metrics
	pipeline *ingestion.Pipeline
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	provider ai.AIProvider
	embedder ai.Embedder
	index    index.Index
	progress io.Writer
	logger   *slog.Logger
}

// WithProvider uses provider instead of creating the configured one. The
// Service closes it.
func WithProvider(provider ai.AIProvider) ServiceOption {
	return func(o *serviceOptions) {
		o.provider = provider
	}
}

// WithEmbedder uses embedder instead of creating the configured provider.
// Its vectors are still fitted to AI.Dimension.
func WithEmbedder(embedder ai.Embedder) ServiceOption {
	return func(o *serviceOptions) {
		o.embedder = embedder
	}
}

// WithIndex uses idx instead of opening the configured backend.
func WithIndex(idx index.Index) ServiceOption {
	return func(o *serviceOptions) {
		o.index = idx
	}
}

// WithProgressWriter prints upsert progress to w.
func WithProgressWriter(w io.Writer) ServiceOption {
	return func(o *serviceOptions) {
		o.progress = w
	}
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// Open validates cfg and creates the embedder, index, manifest, metrics and
// pipeline. Everything opened so far is closed again on failure.
func Open(ctx context.Context, cfg *Config, opts ...ServiceOption) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	options := &serviceOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	if options.provider != nil && options.embedder == nil {
		options.embedder = options.provider.Embedder()
	}

	var err error
	if options.embedder == nil {
		err = cfg.Validate()
	} else {
		err = cfg.validateLocal()
	}
	if err != nil {
		return nil, err
	}

	s := &Service{
		config:   cfg,
		provider: options.provider,
		logger:   options.logger.With("component", "docvec"),
	}

	if err := s.open(ctx, options); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Service) open(ctx context.Context, options *serviceOptions) error {
	cfg := s.config

	embedder := options.embedder
	var fitterOpts []ai.FitterOption
	if embedder == nil {
		provider, err := newProvider(cfg.AI)
		if err != nil {
			return err
		}
		s.provider = provider
		embedder = provider.Embedder()
		fitterOpts = append(fitterOpts, ai.WithTruncator(ai.NewTruncator(ai.DefaultEncoding)))
	}
	fitter, err := ai.NewFitter(embedder, cfg.AI, fitterOpts...)
	if err != nil {
		return err
	}

	s.index = options.index
	if s.index == nil {
		s.index, err = OpenIndex(ctx, cfg.Index, cfg.AI.Dimension)
		if err != nil {
			return err
		}
	}

	if cfg.ManifestDir != "" {
		s.manifest, err = badger.OpenManifest(cfg.ManifestDir)
		if err != nil {
			return fmt.Errorf("open manifest: %w", err)
		}
	}

	if cfg.Metrics.Enabled {
		s.metrics = metrics.New(cfg.Metrics.Prefix)
	}

	extractor, classifier, err := newExtraction(cfg.Extract, options.logger)
	if err != nil {
		return err
	}

	var resolverOpts []source.Option
	resolverOpts = append(resolverOpts, source.WithLogger(options.logger))
	if cfg.S3.Endpoint != "" {
		store, err := source.NewMinioStore(cfg.S3)
		if err != nil {
			return err
		}
		resolverOpts = append(resolverOpts, source.WithObjectStore(store))
	}

	pipelineOpts := []ingestion.Option{
		ingestion.WithLogger(options.logger),
		ingestion.WithManifest(s.manifest),
		ingestion.WithMetrics(s.metrics),
		ingestion.WithExtractor(extractor),
		ingestion.WithClassifier(classifier),
		ingestion.WithResolver(source.NewResolver(resolverOpts...)),
	}
	pipelineOpts = append(pipelineOpts, cfg.Ingestion.pipelineOptions()...)
	if options.progress != nil || cfg.Ingestion.ReportInterval > 0 {
		interval := cfg.Ingestion.ReportInterval
		if interval <= 0 {
			interval = ingestion.DefaultReportInterval
		}
		pipelineOpts = append(pipelineOpts, ingestion.WithProgress(options.progress, interval))
	}

	s.pipeline, err = ingestion.NewPipeline(fitter, s.index, pipelineOpts...)
	return err
}

func newProvider(cfg *ai.Config) (ai.AIProvider, error) {
	if cfg.Provider == ai.ProviderOllama {
		return ollama.NewProvider(cfg)
	}
	return openai.NewProvider(cfg)
}

func newExtraction(cfg ExtractConfig, logger *slog.Logger) (*extract.Mux, *classify.Classifier, error) {
	if err := extract.SetLicenseKey(cfg.PDFLicenseKey); err != nil {
		return nil, nil, err
	}
	mux := extract.NewMux(extract.NewPDFExtractor(cfg.PDFPageMaxChars), extract.WithLogger(logger))

	if cfg.RulesFile == "" {
		return mux, classify.New(), nil
	}
	rules, err := classify.LoadRules(cfg.RulesFile)
	if err != nil {
		return nil, nil, err
	}
	return mux, classify.New(rules...), nil
}

// OpenIndex opens the configured backend with vectors of length dim.
func OpenIndex(ctx context.Context, cfg IndexConfig, dim int) (index.Index, error) {
	switch cfg.Backend {
	case BackendPinecone:
		pc := cfg.Pinecone
		pc.Dimension = dim
		return pinecone.Open(ctx, pc)
	case BackendQdrant:
		qc := cfg.Qdrant
		qc.Dimension = dim
		return qdrant.Open(ctx, qc)
	case BackendMilvus:
		mc := cfg.Milvus
		mc.Dimension = dim
		return milvus.Open(ctx, mc)
	case BackendPgvector:
		pg := cfg.Pgvector
		pg.Dimension = dim
		return pgvector.Open(ctx, pg)
	case BackendMemory:
		return memory.New(memory.WithDimension(dim)), nil
	default:
		return nil, fmt.Errorf("%w: %q", index.ErrUnknownBackend, cfg.Backend)
	}
}

// Index runs the ingestion pipeline.
func (s *Service) Index(ctx context.Context, req ingestion.Request) (*ingestion.Report, error) {
	return s.pipeline.Run(ctx, req)
}

// Purge deletes a namespace, or one doc type in it when docType is set.
func (s *Service) Purge(ctx context.Context, namespace string, docType core.DocType) error {
	return s.pipeline.Purge(ctx, namespace, docType)
}

// Manifest returns the ingestion manifest, or nil when disabled.
func (s *Service) Manifest() storage.ManifestRepository {
	return s.manifest
}

// Metrics returns the collectors, or nil when disabled.
func (s *Service) Metrics() *metrics.Metrics {
	return s.metrics
}

// PushMetrics sends the collectors to the configured Pushgateway.
func (s *Service) PushMetrics(ctx context.Context) error {
	return s.metrics.Push(ctx, s.config.Metrics.PushURL, s.config.Metrics.Job)
}

// Close releases the pipeline, the index, the manifest and the provider.
func (s *Service) Close() error {
	if s.pipeline != nil {
		s.pipeline.Release()
	}

	var errs []error
	if s.index != nil {
		if err := s.index.Close(); err != nil {
			s.logger.Error("error closing index", "err", err)
			errs = append(errs, err)
		}
	}
	if s.manifest != nil {
		if err := s.manifest.Close(); err != nil {
			s.logger.Error("error closing manifest", "err", err)
			errs = append(errs, err)
		}
	}
	if s.provider != nil {
		if err := s.provider.Close(); err != nil {
			s.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
