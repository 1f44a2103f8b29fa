// Package qdrant implements index.Index on a Qdrant collection. Namespaces
// are a keyword payload field rather than separate collections.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/poiesic/docvec/core"
	"github.com/poiesic/docvec/index"
	"github.com/qdrant/go-client/qdrant"
)

// FieldRecordID holds the original record ID. Qdrant point IDs must be
// integers or UUIDs, so record IDs are mapped to UUIDv5.
const FieldRecordID = "record_id"

// idSpace seeds the UUIDv5 point IDs.
var idSpace = uuid.MustParse("6f1c53f4-8f0e-4a0e-9a43-0c5d7e0b6a11")

// Config configures the Qdrant backend.
type Config struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	Dimension  int
}

// client is the subset of *qdrant.Client used here.
type client interface {
	CollectionExists(ctx context.Context, name string) (bool, error)
	CreateCollection(ctx context.Context, req *qdrant.CreateCollection) error
	CreateFieldIndex(ctx context.Context, req *qdrant.CreateFieldIndexCollection) (*qdrant.UpdateResult, error)
	Upsert(ctx context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Delete(ctx context.Context, req *qdrant.DeletePoints) (*qdrant.UpdateResult, error)
	Count(ctx context.Context, req *qdrant.CountPoints) (uint64, error)
	Close() error
}

// Index writes points to a single collection.
type Index struct {
	client     client
	collection string
	logger     *slog.Logger
}

var _ index.Index = (*Index)(nil)

// PointID maps a namespaced record ID to its Qdrant point UUID.
func PointID(namespace, id string) string {
	return uuid.NewSHA1(idSpace, []byte(namespace+"/"+id)).String()
}

// Open dials Qdrant and creates the collection and its payload indexes
// when missing.
func Open(ctx context.Context, cfg Config) (*Index, error) {
	c, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: create client: %w", err)
	}
	idx, err := open(ctx, cfg, c)
	if err != nil {
		c.Close()
		return nil, err
	}
	return idx, nil
}

func open(ctx context.Context, cfg Config, c client) (*Index, error) {
	if cfg.Collection == "" {
		return nil, errors.New("qdrant: Collection is required")
	}
	idx := &Index{
		client:     c,
		collection: cfg.Collection,
		logger:     slog.Default().With("component", "qdrant-index", "collection", cfg.Collection),
	}
	if err := idx.ensureCollection(ctx, cfg.Dimension); err != nil {
		return nil, err
	}
	return idx, nil
}

func (i *Index) ensureCollection(ctx context.Context, dimension int) error {
	exists, err := i.client.CollectionExists(ctx, i.collection)
	if err != nil {
		return fmt.Errorf("qdrant: check collection: %w", err)
	}
	if exists {
		return nil
	}
	if dimension <= 0 {
		return errors.New("qdrant: Dimension is required to create a collection")
	}

	i.logger.Info("creating collection", "dimension", dimension)
	err = i.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: i.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: create collection: %w", err)
	}

	for _, field := range []string{index.FieldNamespace, index.FieldDocType} {
		_, err := i.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: i.collection,
			Wait:           qdrant.PtrOf(true),
			FieldName:      field,
			FieldType:      qdrant.PtrOf(qdrant.FieldType_FieldTypeKeyword),
		})
		if err != nil {
			return fmt.Errorf("qdrant: index payload field %s: %w", field, err)
		}
	}
	return nil
}

// Upsert writes records as points tagged with namespace.
func (i *Index) Upsert(ctx context.Context, namespace string, records []*core.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, r := range records {
		payload := make(map[string]any, len(r.Metadata)+2)
		for k, v := range r.Metadata {
			payload[k] = v
		}
		payload[index.FieldNamespace] = namespace
		payload[FieldRecordID] = r.ID

		values, err := qdrant.TryValueMap(payload)
		if err != nil {
			return 0, fmt.Errorf("qdrant: payload for %s: %w", r.ID, err)
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(PointID(namespace, r.ID)),
			Vectors: qdrant.NewVectors(r.Values...),
			Payload: values,
		})
	}

	_, err := i.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: i.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant: upsert %d points: %w", len(points), err)
	}
	return len(points), nil
}

// DeleteAll removes every point in namespace.
func (i *Index) DeleteAll(ctx context.Context, namespace string) error {
	filter := &qdrant.Filter{Must: []*qdrant.Condition{
		qdrant.NewMatchKeyword(index.FieldNamespace, namespace),
	}}

	n, err := i.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: i.collection,
		Filter:         filter,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant: count namespace %s: %w", namespace, err)
	}
	if n == 0 {
		return index.ErrNamespaceNotFound
	}
	return i.deleteFilter(ctx, filter)
}

// DeleteByDocType removes the points of one document type in namespace.
func (i *Index) DeleteByDocType(ctx context.Context, namespace string, docType core.DocType) error {
	return i.deleteFilter(ctx, &qdrant.Filter{Must: []*qdrant.Condition{
		qdrant.NewMatchKeyword(index.FieldNamespace, namespace),
		qdrant.NewMatchKeyword(index.FieldDocType, string(docType)),
	}})
}

func (i *Index) deleteFilter(ctx context.Context, filter *qdrant.Filter) error {
	_, err := i.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: i.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelectorFilter(filter),
	})
	if err != nil {
		return fmt.Errorf("qdrant: delete points: %w", err)
	}
	return nil
}

// Close closes the gRPC connection.
func (i *Index) Close() error {
	return i.client.Close()
}
