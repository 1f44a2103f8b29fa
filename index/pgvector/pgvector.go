// Package pgvector implements index.Index on a PostgreSQL table using the
// pgvector extension.
package pgvector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvec "github.com/pgvector/pgvector-go"
	"github.com/poiesic/docvec/core"
	"github.com/poiesic/docvec/index"
)

// DefaultTable is used when Config.Table is empty.
const DefaultTable = "docvec_chunks"

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// Config configures the pgvector backend.
type Config struct {
	// DSN is a libpq connection string or postgres:// URL.
	DSN       string
	Table     string
	Dimension int
}

// Index stores one row per record keyed by (namespace, id).
type Index struct {
	pool      *pgxpool.Pool
	stmts     statements
	dimension int
	logger    *slog.Logger
}

var _ index.Index = (*Index)(nil)

type statements struct {
	table     string
	extension string
	create    string
	docIndex  string
	upsert    string
	deleteNS  string
	deleteDT  string
	count     string
}

func buildStatements(table string, dimension int) (statements, error) {
	if !identRe.MatchString(table) {
		return statements{}, fmt.Errorf("pgvector: invalid table name %q", table)
	}
	return statements{
		table:     table,
		extension: `CREATE EXTENSION IF NOT EXISTS vector`,
		create: fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	namespace  text        NOT NULL,
	id         text        NOT NULL,
	doc_type   text        NOT NULL DEFAULT '',
	content    text        NOT NULL DEFAULT '',
	metadata   jsonb       NOT NULL DEFAULT '{}',
	embedding  vector(%d)  NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, id)
)`, table, dimension),
		docIndex: fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_doc_type_idx ON %s (namespace, doc_type)`, table, table),
		upsert: fmt.Sprintf(`INSERT INTO %s (namespace, id, doc_type, content, metadata, embedding)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (namespace, id) DO UPDATE SET
	doc_type = EXCLUDED.doc_type,
	content = EXCLUDED.content,
	metadata = EXCLUDED.metadata,
	embedding = EXCLUDED.embedding,
	updated_at = now()`, table),
		deleteNS: fmt.Sprintf(`DELETE FROM %s WHERE namespace = $1`, table),
		deleteDT: fmt.Sprintf(`DELETE FROM %s WHERE namespace = $1 AND (doc_type = $2 OR starts_with(id, $3))`, table),
		count:    fmt.Sprintf(`SELECT count(*) FROM %s WHERE namespace = $1`, table),
	}, nil
}

// Open connects to PostgreSQL and creates the extension, table and index
// when missing.
func Open(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.Dimension <= 0 {
		return nil, errors.New("pgvector: Dimension is required")
	}
	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}
	stmts, err := buildStatements(table, cfg.Dimension)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgvector: create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgvector: ping database: %w", err)
	}

	idx := &Index{
		pool:      pool,
		stmts:     stmts,
		dimension: cfg.Dimension,
		logger:    slog.Default().With("component", "pgvector-index", "table", table),
	}
	if err := idx.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return idx, nil
}

func (i *Index) migrate(ctx context.Context) error {
	for _, stmt := range []string{i.stmts.extension, i.stmts.create, i.stmts.docIndex} {
		if _, err := i.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("pgvector: migrate: %w", err)
		}
	}
	return nil
}

// Upsert writes records in a single round trip.
func (i *Index) Upsert(ctx context.Context, namespace string, records []*core.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		if len(r.Values) != i.dimension {
			return 0, fmt.Errorf("%w: %s has %d values, want %d", index.ErrDimensionMismatch, r.ID, len(r.Values), i.dimension)
		}
		metadata := r.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		content, _ := metadata[index.FieldText].(string)
		batch.Queue(i.stmts.upsert, namespace, r.ID, string(r.DocType()), content, metadata, pgvec.NewVector(r.Values))
	}

	br := i.pool.SendBatch(ctx, batch)
	for range records {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return 0, fmt.Errorf("pgvector: upsert %d rows: %w", len(records), err)
		}
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("pgvector: upsert %d rows: %w", len(records), err)
	}
	return len(records), nil
}

// DeleteAll removes every row in namespace.
func (i *Index) DeleteAll(ctx context.Context, namespace string) error {
	tag, err := i.pool.Exec(ctx, i.stmts.deleteNS, namespace)
	if err != nil {
		return fmt.Errorf("pgvector: delete namespace %s: %w", namespace, err)
	}
	if tag.RowsAffected() == 0 {
		return index.ErrNamespaceNotFound
	}
	return nil
}

// DeleteByDocType removes rows whose doc type or ID prefix matches.
func (i *Index) DeleteByDocType(ctx context.Context, namespace string, docType core.DocType) error {
	tag, err := i.pool.Exec(ctx, i.stmts.deleteDT, namespace, string(docType), index.IDPrefix(docType))
	if err != nil {
		return fmt.Errorf("pgvector: delete %s: %w", docType, err)
	}
	i.logger.Info("deleted rows by doc type", "namespace", namespace, "docType", docType, "deleted", tag.RowsAffected())
	return nil
}

// Count returns the number of rows in namespace.
func (i *Index) Count(ctx context.Context, namespace string) (int, error) {
	var n int
	if err := i.pool.QueryRow(ctx, i.stmts.count, namespace).Scan(&n); err != nil {
		return 0, fmt.Errorf("pgvector: count %s: %w", namespace, err)
	}
	return n, nil
}

// Close closes the pool.
func (i *Index) Close() error {
	i.pool.Close()
	return nil
}
