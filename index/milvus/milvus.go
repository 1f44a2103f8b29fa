// Package milvus implements index.Index on a Milvus collection.
package milvus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/poiesic/docvec/core"
	"github.com/poiesic/docvec/index"
)

const (
	fieldPK       = "pk"
	fieldMetadata = "metadata"
	fieldVector   = "vector"

	maxPKLength        = 1024
	maxNamespaceLength = 256
	maxDocTypeLength   = 64
)

// Config configures the Milvus backend.
type Config struct {
	Address    string
	DBName     string
	Username   string
	Password   string
	UseTLS     bool
	Collection string
	Dimension  int
}

// Index writes rows to one collection. Namespace and doc type are scalar
// columns so deletes can use boolean expressions.
type Index struct {
	client     client.Client
	collection string
	dimension  int
	logger     *slog.Logger
}

var _ index.Index = (*Index)(nil)

// Open connects to Milvus and creates, indexes and loads the collection
// when missing.
func Open(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.Collection == "" {
		return nil, errors.New("milvus: Collection is required")
	}
	if cfg.Dimension <= 0 {
		return nil, errors.New("milvus: Dimension is required")
	}

	c, err := client.NewClient(ctx, client.Config{
		Address:       cfg.Address,
		DBName:        cfg.DBName,
		Username:      cfg.Username,
		Password:      cfg.Password,
		EnableTLSAuth: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("milvus: create client: %w", err)
	}

	idx := &Index{
		client:     c,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		logger:     slog.Default().With("component", "milvus-index", "collection", cfg.Collection),
	}
	if err := idx.ensureCollection(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return idx, nil
}

// Schema returns the collection schema for the given name and dimension.
func Schema(name string, dimension int) *entity.Schema {
	return &entity.Schema{
		CollectionName: name,
		Description:    "docvec document chunks",
		Fields: []*entity.Field{
			{
				Name:       fieldPK,
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{"max_length": strconv.Itoa(maxPKLength)},
			},
			{
				Name:       index.FieldNamespace,
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": strconv.Itoa(maxNamespaceLength)},
			},
			{
				Name:       index.FieldDocType,
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": strconv.Itoa(maxDocTypeLength)},
			},
			{
				Name:     fieldMetadata,
				DataType: entity.FieldTypeJSON,
			},
			{
				Name:       fieldVector,
				DataType:   entity.FieldTypeFloatVector,
				TypeParams: map[string]string{"dim": strconv.Itoa(dimension)},
			},
		},
	}
}

func (i *Index) ensureCollection(ctx context.Context) error {
	has, err := i.client.HasCollection(ctx, i.collection)
	if err != nil {
		return fmt.Errorf("milvus: check collection: %w", err)
	}
	if !has {
		i.logger.Info("creating collection", "dimension", i.dimension)
		if err := i.client.CreateCollection(ctx, Schema(i.collection, i.dimension), entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("milvus: create collection: %w", err)
		}
		idx, err := entity.NewIndexHNSW(entity.COSINE, 8, 64)
		if err != nil {
			return fmt.Errorf("milvus: build index: %w", err)
		}
		if err := i.client.CreateIndex(ctx, i.collection, fieldVector, idx, false); err != nil {
			return fmt.Errorf("milvus: create index: %w", err)
		}
	}
	if err := i.client.LoadCollection(ctx, i.collection, false); err != nil {
		return fmt.Errorf("milvus: load collection: %w", err)
	}
	return nil
}

// PrimaryKey scopes a record ID to its namespace.
func PrimaryKey(namespace, id string) string {
	return namespace + "/" + id
}

// Columns converts records into column data for namespace.
func Columns(namespace string, dimension int, records []*core.Record) ([]entity.Column, error) {
	pks := make([]string, 0, len(records))
	namespaces := make([]string, 0, len(records))
	docTypes := make([]string, 0, len(records))
	metadata := make([][]byte, 0, len(records))
	vectors := make([][]float32, 0, len(records))

	for _, r := range records {
		if len(r.Values) != dimension {
			return nil, fmt.Errorf("%w: %s has %d values, want %d", index.ErrDimensionMismatch, r.ID, len(r.Values), dimension)
		}
		pk := PrimaryKey(namespace, r.ID)
		if len(pk) > maxPKLength {
			return nil, fmt.Errorf("milvus: primary key for %s exceeds %d bytes", r.ID, maxPKLength)
		}
		md, err := json.Marshal(r.Metadata)
		if err != nil {
			return nil, fmt.Errorf("milvus: metadata for %s: %w", r.ID, err)
		}
		pks = append(pks, pk)
		namespaces = append(namespaces, namespace)
		docTypes = append(docTypes, string(r.DocType()))
		metadata = append(metadata, md)
		vectors = append(vectors, r.Values)
	}

	return []entity.Column{
		entity.NewColumnVarChar(fieldPK, pks),
		entity.NewColumnVarChar(index.FieldNamespace, namespaces),
		entity.NewColumnVarChar(index.FieldDocType, docTypes),
		entity.NewColumnJSONBytes(fieldMetadata, metadata),
		entity.NewColumnFloatVector(fieldVector, dimension, vectors),
	}, nil
}

// Upsert writes records to namespace.
func (i *Index) Upsert(ctx context.Context, namespace string, records []*core.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	columns, err := Columns(namespace, i.dimension, records)
	if err != nil {
		return 0, err
	}
	if _, err := i.client.Upsert(ctx, i.collection, "", columns...); err != nil {
		return 0, fmt.Errorf("milvus: upsert %d rows: %w", len(records), err)
	}
	return len(records), nil
}

// DeleteAll removes every row in namespace.
func (i *Index) DeleteAll(ctx context.Context, namespace string) error {
	return i.delete(ctx, NamespaceExpr(namespace))
}

// DeleteByDocType removes rows of one document type in namespace.
func (i *Index) DeleteByDocType(ctx context.Context, namespace string, docType core.DocType) error {
	return i.delete(ctx, DocTypeExpr(namespace, docType))
}

func (i *Index) delete(ctx context.Context, expr string) error {
	if err := i.client.Delete(ctx, i.collection, "", expr); err != nil {
		return fmt.Errorf("milvus: delete %q: %w", expr, err)
	}
	if err := i.client.Flush(ctx, i.collection, false); err != nil {
		i.logger.Warn("flush after delete failed", "err", err)
	}
	return nil
}

// Close closes the client.
func (i *Index) Close() error {
	return i.client.Close()
}

// NamespaceExpr matches every row in namespace.
func NamespaceExpr(namespace string) string {
	return fmt.Sprintf("%s == %s", index.FieldNamespace, quote(namespace))
}

// DocTypeExpr matches rows of docType in namespace.
func DocTypeExpr(namespace string, docType core.DocType) string {
	return fmt.Sprintf("%s && %s == %s", NamespaceExpr(namespace), index.FieldDocType, quote(string(docType)))
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
