package main

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/docvec"
	"github.com/poiesic/docvec/ai"
	"github.com/poiesic/docvec/chunk"
	"github.com/poiesic/docvec/extract"
	"github.com/poiesic/docvec/ingestion"
)

// serviceFlags configure the embedder, index, manifest and pipeline. Every
// flag also reads its environment variable.
func serviceFlags() []cli.Flag {
	return []cli.Flag{
		// Embeddings
		&cli.StringFlag{Name: "embedding-provider", Usage: "Embedding provider (openai, compat, ollama)", Value: ai.ProviderOpenAI, EnvVars: []string{"EMBEDDING_PROVIDER"}},
		&cli.StringFlag{Name: "embedding-model", Usage: "Embedding model name", Value: ai.DefaultModel, EnvVars: []string{"EMBEDDING_MODEL_ID"}},
		&cli.StringFlag{Name: "embedding-host", Usage: "Embedding service host URL", EnvVars: []string{"EMBEDDING_HOST"}},
		&cli.StringFlag{Name: "openai-api-key", Usage: "OpenAI API key", EnvVars: []string{"OPENAI_API_KEY"}},
		&cli.IntFlag{Name: "embedding-dim", Usage: "Vector dimension of the index", Value: ai.DefaultDimension, EnvVars: []string{"EMBEDDING_DIM"}},
		&cli.IntFlag{Name: "embed-batch-size", Usage: "Texts per embedding request", Value: ingestion.DefaultEmbedBatchSize, EnvVars: []string{"EMBED_BATCH_SIZE"}},
		&cli.BoolFlag{Name: "normalize", Usage: "Scale vectors to unit length", EnvVars: []string{"EMBEDDING_NORMALIZE"}},

		// Index
		&cli.StringFlag{Name: "backend", Usage: "Vector index backend (pinecone, qdrant, milvus, pgvector, memory)", Value: docvec.BackendPinecone, EnvVars: []string{"VECTOR_BACKEND"}},
		&cli.StringFlag{Name: "pinecone-api-key", Usage: "Pinecone API key", EnvVars: []string{"PINECONE_API_KEY"}},
		&cli.StringFlag{Name: "pinecone-env", Usage: "Legacy Pinecone environment, e.g. us-east-1-aws", EnvVars: []string{"PINECONE_ENV"}},
		&cli.StringFlag{Name: "pinecone-host", Usage: "Host of an existing Pinecone index", EnvVars: []string{"PINECONE_HOST"}},
		&cli.StringFlag{Name: "pinecone-index", Usage: "Pinecone index name", Value: "docvec", EnvVars: []string{"PINECONE_INDEX_NAME"}},
		&cli.StringFlag{Name: "pinecone-cloud", Usage: "Cloud for a new Pinecone index", EnvVars: []string{"PINECONE_CLOUD"}},
		&cli.StringFlag{Name: "pinecone-region", Usage: "Region for a new Pinecone index", EnvVars: []string{"PINECONE_REGION"}},
		&cli.StringFlag{Name: "qdrant-host", Usage: "Qdrant host", Value: "localhost", EnvVars: []string{"QDRANT_HOST"}},
		&cli.IntFlag{Name: "qdrant-port", Usage: "Qdrant gRPC port", Value: 6334, EnvVars: []string{"QDRANT_PORT"}},
		&cli.StringFlag{Name: "qdrant-api-key", Usage: "Qdrant API key", EnvVars: []string{"QDRANT_API_KEY"}},
		&cli.BoolFlag{Name: "qdrant-tls", Usage: "Use TLS for Qdrant", EnvVars: []string{"QDRANT_USE_TLS"}},
		&cli.StringFlag{Name: "qdrant-collection", Usage: "Qdrant collection", Value: "docvec", EnvVars: []string{"QDRANT_COLLECTION"}},
		&cli.StringFlag{Name: "milvus-address", Usage: "Milvus address", Value: "localhost:19530", EnvVars: []string{"MILVUS_ADDRESS"}},
		&cli.StringFlag{Name: "milvus-user", Usage: "Milvus user", EnvVars: []string{"MILVUS_USER"}},
		&cli.StringFlag{Name: "milvus-password", Usage: "Milvus password", EnvVars: []string{"MILVUS_PASSWORD"}},
		&cli.StringFlag{Name: "milvus-collection", Usage: "Milvus collection", Value: "docvec", EnvVars: []string{"MILVUS_COLLECTION"}},
		&cli.StringFlag{Name: "pg-dsn", Usage: "PostgreSQL connection string for pgvector", EnvVars: []string{"PGVECTOR_DSN", "DATABASE_URL"}},
		&cli.StringFlag{Name: "pg-table", Usage: "pgvector table", Value: "docvec_chunks", EnvVars: []string{"PGVECTOR_TABLE"}},

		// Pipeline
		&cli.IntFlag{Name: "chunk-size", Usage: "Base chunk size in characters; 0 or less keeps pages whole", Value: chunk.DefaultSize, EnvVars: []string{"CHUNK_SIZE"}},
		&cli.IntFlag{Name: "chunk-overlap", Usage: "Base chunk overlap in characters", Value: chunk.DefaultOverlap, EnvVars: []string{"CHUNK_OVERLAP"}},
		&cli.IntFlag{Name: "max-file-size-mb", Usage: "Skip files larger than this", Value: ingestion.DefaultMaxFileSizeMB, EnvVars: []string{"MAX_FILE_SIZE_MB"}},
		&cli.IntFlag{Name: "pdf-page-max-chars", Usage: "Characters kept per PDF page", Value: extract.DefaultPageMaxChars, EnvVars: []string{"PDF_PAGE_MAX_CHARS"}},
		&cli.StringFlag{Name: "pdf-license-key", Usage: "unipdf metered license key", EnvVars: []string{"UNIDOC_LICENSE_API_KEY"}},
		&cli.StringFlag{Name: "rules", Usage: "YAML file with document type rules", EnvVars: []string{"DOCTYPE_RULES_FILE"}},
		&cli.IntFlag{Name: "upsert-batch-size", Usage: "Records per upsert", Value: ingestion.DefaultUpsertBatchSize, EnvVars: []string{"UPSERT_BATCH_SIZE"}},
		&cli.IntFlag{Name: "workers", Usage: "Files processed concurrently (0 = half the CPUs)", EnvVars: []string{"INGEST_WORKERS"}},
		&cli.IntFlag{Name: "max-retries", Usage: "Maximum attempts per embed or upsert batch", Value: ingestion.DefaultMaxAttempts, EnvVars: []string{"MAX_RETRIES"}},
		&cli.DurationFlag{Name: "retry-delay", Usage: "Base delay for exponential backoff", Value: 1 * time.Second, EnvVars: []string{"RETRY_DELAY"}},
		&cli.IntFlag{Name: "report-interval", Usage: "Report progress every N vectors", Value: ingestion.DefaultReportInterval, EnvVars: []string{"REPORT_INTERVAL"}},
		&cli.StringFlag{Name: "manifest", Usage: "Manifest directory; enables skipping unchanged files", EnvVars: []string{"MANIFEST_DIR"}},

		// Object storage
		&cli.StringFlag{Name: "s3-endpoint", Usage: "S3-compatible endpoint for s3:// inputs", EnvVars: []string{"S3_ENDPOINT"}},
		&cli.StringFlag{Name: "s3-access-key", Usage: "S3 access key", EnvVars: []string{"AWS_ACCESS_KEY_ID"}},
		&cli.StringFlag{Name: "s3-secret-key", Usage: "S3 secret key", EnvVars: []string{"AWS_SECRET_ACCESS_KEY"}},
		&cli.StringFlag{Name: "s3-region", Usage: "S3 region", EnvVars: []string{"AWS_REGION"}},
		&cli.BoolFlag{Name: "s3-ssl", Usage: "Use TLS for the S3 endpoint", Value: true, EnvVars: []string{"S3_USE_SSL"}},

		// Metrics
		&cli.BoolFlag{Name: "metrics", Usage: "Collect Prometheus metrics", EnvVars: []string{"METRICS_ENABLED"}},
		&cli.StringFlag{Name: "pushgateway", Usage: "Pushgateway URL to push metrics to after the run", EnvVars: []string{"PUSHGATEWAY_URL"}},
	}
}

// configFromFlags builds the service configuration from serviceFlags.
func configFromFlags(c *cli.Context) *docvec.Config {
	cfg := docvec.DefaultConfig()

	cfg.AI = ai.NewConfig(
		ai.WithProvider(c.String("embedding-provider")),
		ai.WithModel(c.String("embedding-model")),
		ai.WithHost(c.String("embedding-host")),
		ai.WithAPIKey(c.String("openai-api-key")),
		ai.WithDimension(c.Int("embedding-dim")),
		ai.WithBatchSize(c.Int("embed-batch-size")),
		ai.WithNormalize(c.Bool("normalize")),
	)

	cfg.Index.Backend = c.String("backend")
	cfg.Index.Pinecone.APIKey = c.String("pinecone-api-key")
	cfg.Index.Pinecone.Environment = c.String("pinecone-env")
	cfg.Index.Pinecone.Host = c.String("pinecone-host")
	cfg.Index.Pinecone.IndexName = c.String("pinecone-index")
	cfg.Index.Pinecone.Cloud = c.String("pinecone-cloud")
	cfg.Index.Pinecone.Region = c.String("pinecone-region")
	cfg.Index.Qdrant.Host = c.String("qdrant-host")
	cfg.Index.Qdrant.Port = c.Int("qdrant-port")
	cfg.Index.Qdrant.APIKey = c.String("qdrant-api-key")
	cfg.Index.Qdrant.UseTLS = c.Bool("qdrant-tls")
	cfg.Index.Qdrant.Collection = c.String("qdrant-collection")
	cfg.Index.Milvus.Address = c.String("milvus-address")
	cfg.Index.Milvus.Username = c.String("milvus-user")
	cfg.Index.Milvus.Password = c.String("milvus-password")
	cfg.Index.Milvus.Collection = c.String("milvus-collection")
	cfg.Index.Pgvector.DSN = c.String("pg-dsn")
	cfg.Index.Pgvector.Table = c.String("pg-table")

	cfg.Ingestion = docvec.IngestionConfig{
		PoolSize:        c.Int("workers"),
		EmbedBatchSize:  c.Int("embed-batch-size"),
		UpsertBatchSize: c.Int("upsert-batch-size"),
		ChunkSize:       chunkSize(c.Int("chunk-size")),
		ChunkOverlap:    c.Int("chunk-overlap"),
		MaxFileSizeMB:   c.Int("max-file-size-mb"),
		MaxAttempts:     c.Int("max-retries"),
		RetryBaseDelay:  c.Duration("retry-delay"),
		ReportInterval:  c.Int("report-interval"),
	}
	cfg.Extract = docvec.ExtractConfig{
		PDFPageMaxChars: c.Int("pdf-page-max-chars"),
		PDFLicenseKey:   c.String("pdf-license-key"),
		RulesFile:       c.String("rules"),
	}
	cfg.ManifestDir = c.String("manifest")

	cfg.S3.Endpoint = c.String("s3-endpoint")
	cfg.S3.AccessKey = c.String("s3-access-key")
	cfg.S3.SecretKey = c.String("s3-secret-key")
	cfg.S3.Region = c.String("s3-region")
	cfg.S3.UseSSL = c.Bool("s3-ssl")

	cfg.Metrics.Enabled = c.Bool("metrics") || c.String("pushgateway") != ""
	cfg.Metrics.PushURL = c.String("pushgateway")

	return cfg
}

// chunkSize maps a non-positive flag value to the config's whole-text
// setting, since a zero ChunkSize means the default there.
func chunkSize(n int) int {
	if n <= 0 {
		return -1
	}
	return n
}
