package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/poiesic/docvec/ai"
	"github.com/poiesic/docvec/chunk"
	"github.com/poiesic/docvec/classify"
	"github.com/poiesic/docvec/core"
	"github.com/poiesic/docvec/extract"
	"github.com/poiesic/docvec/index"
	"github.com/poiesic/docvec/metrics"
	"github.com/poiesic/docvec/source"
	"github.com/poiesic/docvec/storage"
)

const (
	// DefaultEmbedBatchSize is the number of chunks embedded per request.
	DefaultEmbedBatchSize = 32
	// DefaultUpsertBatchSize is the number of records written per upsert.
	DefaultUpsertBatchSize = 100
	// DefaultMaxFileSizeMB is the largest input file accepted.
	DefaultMaxFileSizeMB = 2
	// DefaultMaxAttempts is the number of tries per embed or upsert batch.
	DefaultMaxAttempts = 3
	// DefaultRetryBaseDelay is the first backoff delay.
	DefaultRetryBaseDelay = time.Second
	// DefaultReportInterval is the number of upserted vectors between
	// progress reports.
	DefaultReportInterval = 100
)

var tracer = otel.Tracer("github.com/poiesic/docvec/ingestion")

// Pipeline reads input files and writes their chunks as vectors into a
// namespaced index.
type Pipeline struct {
	embedder  ai.Embedder
	index     index.Index
	manifest  storage.ManifestRepository
	resolver  *source.Resolver
	extractor extract.Extractor
	builder   recordBuilder
	pool      *ants.Pool
	metrics   *metrics.Metrics

	embedBatchSize  int
	upsertBatchSize int
	maxFileSize     int64
	maxAttempts     int
	retryBaseDelay  time.Duration
	reportInterval  int
	progressWriter  io.Writer
	now             func() time.Time
	logger          *slog.Logger
}

// Request describes one ingestion run.
type Request struct {
	// Inputs are files, directories or s3:// URLs.
	Inputs    []string
	Namespace string
	// Purge deletes the namespace before indexing. Ignored when
	// PurgeDocType is set.
	Purge        bool
	PurgeDocType core.DocType
	// Force re-indexes files whose fingerprint is unchanged.
	Force bool
	// Patterns filter directory and prefix inputs. Empty means
	// source.DefaultPatterns.
	Patterns []string
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the number of files processed concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithManifest enables skipping of unchanged files.
func WithManifest(manifest storage.ManifestRepository) Option {
	return func(p *Pipeline) error {
		p.manifest = manifest
		return nil
	}
}

// WithResolver sets the input resolver, e.g. one with an object store.
func WithResolver(resolver *source.Resolver) Option {
	return func(p *Pipeline) error {
		if resolver != nil {
			p.resolver = resolver
		}
		return nil
	}
}

// WithExtractor replaces the default extract.Mux.
func WithExtractor(extractor extract.Extractor) Option {
	return func(p *Pipeline) error {
		if extractor != nil {
			p.extractor = extractor
		}
		return nil
	}
}

// WithClassifier replaces the default document type rules.
func WithClassifier(classifier *classify.Classifier) Option {
	return func(p *Pipeline) error {
		if classifier != nil {
			p.builder.classifier = classifier
		}
		return nil
	}
}

// WithChunking sets the base chunk size and overlap. A non-positive size
// keeps each page or text file in one chunk. Overlap is clamped by
// chunk.Split, so any value is accepted.
func WithChunking(size, overlap int) Option {
	return func(p *Pipeline) error {
		p.builder.sizer = chunk.Sizer{Size: size, Overlap: overlap}
		return nil
	}
}

// WithEmbedBatchSize sets the number of chunks per embedding request.
func WithEmbedBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("%w: embed batch size %d", ErrInvalidOption, size)
		}
		p.embedBatchSize = size
		return nil
	}
}

// WithUpsertBatchSize sets the number of records per upsert.
func WithUpsertBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("%w: upsert batch size %d", ErrInvalidOption, size)
		}
		p.upsertBatchSize = size
		return nil
	}
}

// WithMaxFileSizeMB sets the size limit for input files.
func WithMaxFileSizeMB(mb int) Option {
	return func(p *Pipeline) error {
		if mb < 1 {
			return fmt.Errorf("%w: max file size %d MB", ErrInvalidOption, mb)
		}
		p.maxFileSize = int64(mb) * 1024 * 1024
		return nil
	}
}

// WithRetry sets the attempts and first backoff delay for embed and
// upsert batches.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts < 1 {
			return fmt.Errorf("%w: %w", ErrInvalidOption, ErrInvalidMaxAttempts)
		}
		p.maxAttempts = maxAttempts
		p.retryBaseDelay = baseDelay
		return nil
	}
}

// WithProgress prints a progress line to w every interval upserted
// vectors. A nil writer keeps progress in the log only.
func WithProgress(w io.Writer, interval int) Option {
	return func(p *Pipeline) error {
		if interval < 1 {
			return fmt.Errorf("%w: report interval %d", ErrInvalidOption, interval)
		}
		p.progressWriter = w
		p.reportInterval = interval
		return nil
	}
}

// WithMetrics records run statistics in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) error {
		p.metrics = m
		return nil
	}
}

// WithClock overrides time.Now for manifest timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) error {
		if now != nil {
			p.now = now
		}
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline. The embedder is expected to
// return vectors of the index dimension; wrap a provider in ai.Fitter.
func NewPipeline(embedder ai.Embedder, idx index.Index, opts ...Option) (*Pipeline, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if idx == nil {
		return nil, ErrIndexRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		embedder:  embedder,
		index:     idx,
		resolver:  source.NewResolver(),
		extractor: extract.NewMux(nil),
		builder: recordBuilder{
			sizer:      chunk.DefaultSizer(),
			classifier: classify.New(),
		},
		pool:            pool,
		embedBatchSize:  DefaultEmbedBatchSize,
		upsertBatchSize: DefaultUpsertBatchSize,
		maxFileSize:     DefaultMaxFileSizeMB * 1024 * 1024,
		maxAttempts:     DefaultMaxAttempts,
		retryBaseDelay:  DefaultRetryBaseDelay,
		reportInterval:  DefaultReportInterval,
		now:             time.Now,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	return p, nil
}

// fileResult is the outcome of processing one source.
type fileResult struct {
	report      FileReport
	fingerprint string
	ids         []string
}

// Run purges if requested, then indexes every resolved input into
// req.Namespace. Per-file and per-record failures are reported, not
// returned; an error means the run itself could not proceed.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Report, error) {
	if err := core.ValidateNamespace(req.Namespace); err != nil {
		return nil, err
	}

	report := &Report{
		RunID:     uuid.NewString(),
		Namespace: req.Namespace,
		StartedAt: p.now(),
	}
	began := time.Now()

	ctx, span := tracer.Start(ctx, "ingestion.Run", trace.WithAttributes(
		attribute.String("docvec.run.id", report.RunID),
		attribute.String("docvec.namespace", req.Namespace),
	))
	defer span.End()

	logger := p.logger.With("run", report.RunID, "namespace", req.Namespace)

	switch {
	case req.PurgeDocType != "":
		if err := p.Purge(ctx, req.Namespace, req.PurgeDocType); err != nil {
			logger.Warn("doc type purge failed", "doc_type", req.PurgeDocType, "err", err)
		}
	case req.Purge:
		if err := p.Purge(ctx, req.Namespace, ""); err != nil {
			logger.Warn("namespace purge failed", "err", err)
		}
	}

	sources, err := p.resolver.Resolve(ctx, req.Inputs, req.Patterns)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve failed")
		return nil, fmt.Errorf("resolve inputs: %w", err)
	}
	report.FilesFound = len(sources)
	logger.Info("found files to index from inputs", "count", len(sources))

	progress := NewProgressTracker(p.progressWriter, 0, p.reportInterval)
	progress.Start()
	b := p.newBatcher(req.Namespace, progress)

	results := make([]fileResult, len(sources))
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			results[i] = p.processFile(ctx, src, req, b, progress, logger)
		})
		if submitErr != nil {
			wg.Done()
			results[i] = failed(src, submitErr)
		}
	}
	wg.Wait()
	b.flush(ctx)
	progress.Finish()

	for _, res := range results {
		res.report.Complete = res.report.Status == FileProcessed && b.written(res.ids)
		report.add(res.report)
		p.metrics.FileOutcome(string(res.report.Status))
		if res.report.Complete {
			p.remember(ctx, req, report.RunID, res, logger)
		}
	}

	report.VectorsUpserted, report.FailedIDs = b.results()
	report.VectorsFailed = len(report.FailedIDs)
	report.Duration = time.Since(began)

	span.SetAttributes(
		attribute.Int("docvec.vectors.upserted", report.VectorsUpserted),
		attribute.Int("docvec.vectors.failed", report.VectorsFailed),
	)
	logger.Info("indexing complete",
		"vectors_upserted", report.VectorsUpserted,
		"vectors_failed", report.VectorsFailed,
		"files_processed", report.FilesProcessed,
		"files_skipped", report.FilesSkipped,
		"files_failed", report.FilesFailed,
		"duration", report.Duration)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (p *Pipeline) processFile(ctx context.Context, src source.Source, req Request, b *batcher, progress *ProgressTracker, logger *slog.Logger) fileResult {
	ctx, span := tracer.Start(ctx, "ingestion.file", trace.WithAttributes(
		attribute.String("docvec.source", src.Path),
	))
	defer span.End()

	logger = logger.With("source", src.Path)

	if err := ctx.Err(); err != nil {
		return failed(src, err)
	}

	if src.Size != source.SizeUnknown && src.Size > p.maxFileSize {
		logger.Warn("skipping file", "reason", ErrFileTooLarge, "size", src.Size, "limit", p.maxFileSize)
		return skipped(src, ErrFileTooLarge)
	}

	data, err := p.read(ctx, src)
	if err != nil {
		logger.Error("error reading file", "err", err)
		return failed(src, err)
	}
	if int64(len(data)) > p.maxFileSize {
		logger.Warn("skipping file", "reason", ErrFileTooLarge, "size", len(data), "limit", p.maxFileSize)
		return skipped(src, ErrFileTooLarge)
	}

	fingerprint := core.Fingerprint(data)
	if p.unchanged(ctx, req, src.Path, fingerprint) {
		logger.Info("skipping file", "reason", ErrUnchanged)
		res := skipped(src, ErrUnchanged)
		res.fingerprint = fingerprint
		return res
	}

	doc, err := p.extractor.Extract(ctx, src.Name, bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedJSON) || errors.Is(err, extract.ErrInvalidJSON) {
			logger.Warn("skipping file", "reason", err)
			return skipped(src, err)
		}
		logger.Error("error extracting text", "err", err)
		span.RecordError(err)
		return failed(src, err)
	}

	docType, records := p.builder.build(src, req.Namespace, doc)
	span.SetAttributes(
		attribute.String("docvec.doc_type", string(docType)),
		attribute.Int("docvec.records", len(records)),
	)
	p.metrics.RecordsBuilt(len(records))

	res := fileResult{
		report: FileReport{
			Path:    src.Path,
			DocType: string(docType),
			Status:  FileProcessed,
			Records: len(records),
		},
		fingerprint: fingerprint,
		ids:         make([]string, len(records)),
	}
	for i, record := range records {
		res.ids[i] = record.ID
	}
	if len(records) == 0 {
		logger.Info("no text extracted")
		return res
	}

	if err := p.embedRecords(ctx, records); err != nil {
		logger.Error("skipping file", "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "embedding failed")
		res.report.Status = FileFailed
		res.report.Reason = err.Error()
		return res
	}

	logger.Debug("queueing records", "records", len(records), "doc_type", docType)
	progress.AddTotal(len(records))
	b.add(ctx, records...)
	return res
}

func (p *Pipeline) read(ctx context.Context, src source.Source) ([]byte, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	// One byte past the limit is enough to detect an oversized file.
	return io.ReadAll(io.LimitReader(rc, p.maxFileSize+1))
}

func (p *Pipeline) unchanged(ctx context.Context, req Request, path, fingerprint string) bool {
	if p.manifest == nil || req.Force {
		return false
	}
	state, err := p.manifest.Get(ctx, req.Namespace, path)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			p.logger.Warn("error reading manifest", "path", path, "err", err)
		}
		return false
	}
	return state.Fingerprint == fingerprint
}

func (p *Pipeline) remember(ctx context.Context, req Request, runID string, res fileResult, logger *slog.Logger) {
	if p.manifest == nil {
		return
	}
	state := &core.FileState{
		Path:        res.report.Path,
		Namespace:   req.Namespace,
		Fingerprint: res.fingerprint,
		DocType:     core.DocType(res.report.DocType),
		VectorIDs:   res.ids,
		RunID:       runID,
		IndexedAt:   p.now().UTC(),
	}
	if err := p.manifest.Put(ctx, state); err != nil {
		logger.Warn("error updating manifest", "path", state.Path, "err", err)
	}
}

// Purge deletes vectors from namespace: only docType when it is set,
// otherwise everything. A namespace that does not exist yet is not an
// error. Matching manifest entries are dropped as well.
func (p *Pipeline) Purge(ctx context.Context, namespace string, docType core.DocType) error {
	if err := core.ValidateNamespace(namespace); err != nil {
		return err
	}

	ctx, span := tracer.Start(ctx, "ingestion.Purge", trace.WithAttributes(
		attribute.String("docvec.namespace", namespace),
		attribute.String("docvec.doc_type", string(docType)),
	))
	defer span.End()

	if docType != "" {
		if err := p.index.DeleteByDocType(ctx, namespace, docType); err != nil {
			span.RecordError(err)
			return fmt.Errorf("purge doc type %s: %w", docType, err)
		}
		p.logger.Info("purged doc type", "namespace", namespace, "doc_type", docType)
		if p.manifest != nil {
			if _, err := p.manifest.DeleteDocType(ctx, namespace, docType); err != nil {
				p.logger.Warn("error pruning manifest", "err", err)
			}
		}
		return nil
	}

	err := p.index.DeleteAll(ctx, namespace)
	switch {
	case errors.Is(err, index.ErrNamespaceNotFound):
		p.logger.Info("namespace not found, nothing to purge", "namespace", namespace)
	case err != nil:
		span.RecordError(err)
		return fmt.Errorf("purge namespace %s: %w", namespace, err)
	default:
		p.logger.Info("purged namespace", "namespace", namespace)
	}
	if p.manifest != nil {
		if _, err := p.manifest.DeleteNamespace(ctx, namespace); err != nil {
			p.logger.Warn("error pruning manifest", "err", err)
		}
	}
	return nil
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

func skipped(src source.Source, reason error) fileResult {
	return fileResult{report: FileReport{Path: src.Path, Status: FileSkipped, Reason: reason.Error()}}
}

func failed(src source.Source, err error) fileResult {
	return fileResult{report: FileReport{Path: src.Path, Status: FileFailed, Reason: err.Error()}}
}
