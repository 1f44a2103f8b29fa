package docvec

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/docvec/ai"
	"github.com/poiesic/docvec/chunk"
	"github.com/poiesic/docvec/extract"
	"github.com/poiesic/docvec/index"
	"github.com/poiesic/docvec/index/milvus"
	"github.com/poiesic/docvec/index/pgvector"
	"github.com/poiesic/docvec/index/pinecone"
	"github.com/poiesic/docvec/index/qdrant"
	"github.com/poiesic/docvec/ingestion"
	"github.com/poiesic/docvec/source"
)

// Supported index backends.
const (
	BackendPinecone = "pinecone"
	BackendQdrant   = "qdrant"
	BackendMilvus   = "milvus"
	BackendPgvector = "pgvector"
	BackendMemory   = "memory"
)

// Backends lists every supported backend name.
var Backends = []string{BackendPinecone, BackendQdrant, BackendMilvus, BackendPgvector, BackendMemory}

// Config aggregates the settings of every component.
type Config struct {
	AI        *ai.Config
	Index     IndexConfig
	Ingestion IngestionConfig
	Extract   ExtractConfig

	// ManifestDir is the badger directory of the ingestion manifest.
	// Empty disables change detection.
	ManifestDir string

	Metrics MetricsConfig

	// S3 enables s3:// inputs when its Endpoint is set.
	S3 source.S3Config
}

// IndexConfig selects and configures the vector index. The vector
// dimension is taken from AI.Dimension.
type IndexConfig struct {
	Backend  string
	Pinecone pinecone.Config
	Qdrant   qdrant.Config
	Milvus   milvus.Config
	Pgvector pgvector.Config
}

// IngestionConfig holds the pipeline tunables. Zero values keep the
// pipeline defaults. A negative ChunkSize keeps each page or text file in
// a single chunk; ChunkOverlap is clamped when chunks are cut.
type IngestionConfig struct {
	PoolSize        int
	EmbedBatchSize  int
	UpsertBatchSize int
	ChunkSize       int
	ChunkOverlap    int
	MaxFileSizeMB   int
	MaxAttempts     int
	RetryBaseDelay  time.Duration
	ReportInterval  int
}

// ExtractConfig configures text extraction and classification.
type ExtractConfig struct {
	PDFPageMaxChars int
	PDFLicenseKey   string
	// RulesFile is a YAML document type rules file. Empty uses the
	// built-in rules.
	RulesFile string
}

// MetricsConfig configures Prometheus collection.
type MetricsConfig struct {
	Enabled bool
	Prefix  string
	// PushURL is a Pushgateway URL; empty disables pushing.
	PushURL string
	Job     string
}

// DefaultConfig returns a configuration for OpenAI embeddings into
// Pinecone with the pipeline defaults.
func DefaultConfig() *Config {
	return &Config{
		AI: ai.DefaultConfig(),
		Index: IndexConfig{
			Backend: BackendPinecone,
			Pinecone: pinecone.Config{
				IndexName: "docvec",
			},
			Qdrant: qdrant.Config{
				Host:       "localhost",
				Port:       6334,
				Collection: "docvec",
			},
			Milvus: milvus.Config{
				Address:    "localhost:19530",
				Collection: "docvec",
			},
			Pgvector: pgvector.Config{
				Table: pgvector.DefaultTable,
			},
		},
		Ingestion: IngestionConfig{
			EmbedBatchSize:  ingestion.DefaultEmbedBatchSize,
			UpsertBatchSize: ingestion.DefaultUpsertBatchSize,
			ChunkSize:       chunk.DefaultSize,
			ChunkOverlap:    chunk.DefaultOverlap,
			MaxFileSizeMB:   ingestion.DefaultMaxFileSizeMB,
			MaxAttempts:     ingestion.DefaultMaxAttempts,
			RetryBaseDelay:  ingestion.DefaultRetryBaseDelay,
			ReportInterval:  ingestion.DefaultReportInterval,
		},
		Extract: ExtractConfig{
			PDFPageMaxChars: extract.DefaultPageMaxChars,
		},
		Metrics: MetricsConfig{
			Prefix: "docvec",
			Job:    "docvec_index",
		},
	}
}

// Validate checks the configuration and normalizes the backend name.
func (c *Config) Validate() error {
	if c.AI == nil {
		return errors.New("config: AI settings are required")
	}
	if err := c.AI.Validate(); err != nil {
		return err
	}
	return c.validateLocal()
}

// validateLocal checks everything except the embedding provider.
func (c *Config) validateLocal() error {
	if c.AI == nil || c.AI.Dimension <= 0 {
		return errors.New("config: embedding dimension must be greater than 0")
	}

	c.Index.Backend = strings.ToLower(strings.TrimSpace(c.Index.Backend))
	switch c.Index.Backend {
	case BackendPinecone:
		if c.Index.Pinecone.APIKey == "" {
			return errors.New("config: pinecone API key is required")
		}
		if c.Index.Pinecone.IndexName == "" && c.Index.Pinecone.Host == "" {
			return errors.New("config: pinecone index name or host is required")
		}
	case BackendQdrant:
		if c.Index.Qdrant.Host == "" || c.Index.Qdrant.Collection == "" {
			return errors.New("config: qdrant host and collection are required")
		}
	case BackendMilvus:
		if c.Index.Milvus.Address == "" || c.Index.Milvus.Collection == "" {
			return errors.New("config: milvus address and collection are required")
		}
	case BackendPgvector:
		if c.Index.Pgvector.DSN == "" {
			return errors.New("config: pgvector DSN is required")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: %q", index.ErrUnknownBackend, c.Index.Backend)
	}

	in := c.Ingestion
	if in.PoolSize < 0 || in.EmbedBatchSize < 0 || in.UpsertBatchSize < 0 ||
		in.MaxFileSizeMB < 0 || in.MaxAttempts < 0 || in.ReportInterval < 0 {
		return errors.New("config: ingestion settings must not be negative")
	}
	return nil
}

// pipelineOptions translates the non-zero ingestion settings.
func (in IngestionConfig) pipelineOptions() []ingestion.Option {
	var opts []ingestion.Option
	if in.PoolSize > 0 {
		opts = append(opts, ingestion.WithPoolSize(in.PoolSize))
	}
	if in.EmbedBatchSize > 0 {
		opts = append(opts, ingestion.WithEmbedBatchSize(in.EmbedBatchSize))
	}
	if in.UpsertBatchSize > 0 {
		opts = append(opts, ingestion.WithUpsertBatchSize(in.UpsertBatchSize))
	}
	if in.ChunkSize != 0 || in.ChunkOverlap != 0 {
		size := in.ChunkSize
		if size == 0 {
			size = chunk.DefaultSize
		}
		opts = append(opts, ingestion.WithChunking(size, in.ChunkOverlap))
	}
	if in.MaxFileSizeMB > 0 {
		opts = append(opts, ingestion.WithMaxFileSizeMB(in.MaxFileSizeMB))
	}
	if in.MaxAttempts > 0 {
		opts = append(opts, ingestion.WithRetry(in.MaxAttempts, in.RetryBaseDelay))
	}
	return opts
}
