// Package pinecone implements index.Index on a Pinecone serverless index.
package pinecone

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"github.com/poiesic/docvec/core"
	"github.com/poiesic/docvec/index"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	defaultCloud        = "aws"
	defaultRegion       = "us-east-1"
	defaultReadyTimeout = 60 * time.Second
	defaultPollInterval = time.Second

	// listPageSize is the largest page the list endpoint returns.
	listPageSize = 100
)

// fallbackRegions are tried in order when creating the index in the
// configured region fails.
var fallbackRegions = []Location{
	{Cloud: "aws", Region: "us-east-1"},
	{Cloud: "aws", Region: "us-west-2"},
	{Cloud: "gcp", Region: "us-central1"},
}

// Location is a serverless cloud and region.
type Location struct {
	Cloud  string
	Region string
}

func (l Location) String() string {
	return l.Cloud + ":" + l.Region
}

// Config configures the Pinecone backend.
type Config struct {
	APIKey    string
	IndexName string
	// Host connects directly to an existing index, skipping the control
	// plane entirely.
	Host      string
	Dimension int
	// Cloud and Region select where a missing index is created.
	Cloud  string
	Region string
	// Environment is a legacy "<region>-<cloud>" string used when Cloud
	// or Region is unset.
	Environment  string
	ReadyTimeout time.Duration
	PollInterval time.Duration
}

// ParseEnvironment splits a "<region>-<cloud>" string such as
// "us-east-1-aws". It returns empty strings when env has no dash.
func ParseEnvironment(env string) Location {
	i := strings.LastIndex(env, "-")
	if i <= 0 || i == len(env)-1 {
		return Location{}
	}
	return Location{Cloud: env[i+1:], Region: env[:i]}
}

func (c *Config) location() Location {
	loc := Location{Cloud: c.Cloud, Region: c.Region}
	parsed := ParseEnvironment(c.Environment)
	if loc.Cloud == "" {
		loc.Cloud = parsed.Cloud
	}
	if loc.Region == "" {
		loc.Region = parsed.Region
	}
	if loc.Cloud == "" {
		loc.Cloud = defaultCloud
	}
	if loc.Region == "" {
		loc.Region = defaultRegion
	}
	return loc
}

// controlPlane is the subset of *pinecone.Client used to manage indexes.
type controlPlane interface {
	DescribeIndex(ctx context.Context, name string) (*pinecone.Index, error)
	CreateServerlessIndex(ctx context.Context, in *pinecone.CreateServerlessIndexRequest) (*pinecone.Index, error)
}

// dataPlane is the subset of *pinecone.IndexConnection used per namespace.
type dataPlane interface {
	UpsertVectors(ctx context.Context, in []*pinecone.Vector) (uint32, error)
	DeleteAllVectorsInNamespace(ctx context.Context) error
	DeleteVectorsById(ctx context.Context, ids []string) error
	DeleteVectorsByFilter(ctx context.Context, filter *pinecone.MetadataFilter) error
	ListVectors(ctx context.Context, in *pinecone.ListVectorsRequest) (*pinecone.ListVectorsResponse, error)
	Close() error
}

type connectFunc func(host, namespace string) (dataPlane, error)

// Index writes to one Pinecone index, holding a connection per namespace.
type Index struct {
	host    string
	connect connectFunc
	logger  *slog.Logger

	mu    sync.Mutex
	conns map[string]dataPlane
}

var _ index.Index = (*Index)(nil)

// Open connects to the configured index, creating it if it does not
// exist and no host was given.
func Open(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("pinecone: APIKey is required")
	}
	client, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("pinecone: create client: %w", err)
	}
	connect := func(host, namespace string) (dataPlane, error) {
		return client.Index(pinecone.NewIndexConnParams{Host: host, Namespace: namespace})
	}
	return open(ctx, cfg, client, connect)
}

func open(ctx context.Context, cfg Config, cp controlPlane, connect connectFunc) (*Index, error) {
	logger := slog.Default().With("component", "pinecone-index")

	host := cfg.Host
	if host == "" {
		if cfg.IndexName == "" {
			return nil, errors.New("pinecone: IndexName or Host is required")
		}
		var err error
		host, err = ensureIndex(ctx, cfg, cp, logger)
		if err != nil {
			return nil, err
		}
	} else {
		logger.Info("connecting to existing index", "host", host)
	}

	return &Index{
		host:    host,
		connect: connect,
		logger:  logger,
		conns:   make(map[string]dataPlane),
	}, nil
}

// ensureIndex returns the host of the named index, creating a serverless
// cosine index when it does not exist.
func ensureIndex(ctx context.Context, cfg Config, cp controlPlane, logger *slog.Logger) (string, error) {
	loc := cfg.location()
	logger.Info("ensuring index", "name", cfg.IndexName, "dimension", cfg.Dimension, "cloud", loc.Cloud, "region", loc.Region)

	desc, err := cp.DescribeIndex(ctx, cfg.IndexName)
	if err == nil && desc != nil {
		if desc.Status != nil && desc.Status.Ready && desc.Host != "" {
			return desc.Host, nil
		}
		return waitReady(ctx, cfg, cp, logger)
	}
	if err != nil && !isNotFound(err) {
		return "", fmt.Errorf("pinecone: describe index %s: %w", cfg.IndexName, err)
	}

	if cfg.Dimension <= 0 {
		return "", errors.New("pinecone: Dimension is required to create an index")
	}

	logger.Info("index not found, creating", "name", cfg.IndexName)
	tried := map[Location]bool{}
	candidates := append([]Location{loc}, fallbackRegions...)
	var lastErr error
	created := false
	for _, c := range candidates {
		if tried[c] {
			continue
		}
		tried[c] = true
		_, lastErr = cp.CreateServerlessIndex(ctx, &pinecone.CreateServerlessIndexRequest{
			Name:      cfg.IndexName,
			Dimension: int32(cfg.Dimension),
			Metric:    pinecone.Cosine,
			Cloud:     pinecone.Cloud(c.Cloud),
			Region:    c.Region,
		})
		if lastErr == nil {
			logger.Info("created index", "name", cfg.IndexName, "location", c.String())
			created = true
			break
		}
		logger.Warn("index creation failed", "location", c.String(), "err", lastErr)
	}
	if !created {
		return "", fmt.Errorf("pinecone: create index %s (dimension=%d, metric=cosine): %w", cfg.IndexName, cfg.Dimension, lastErr)
	}

	return waitReady(ctx, cfg, cp, logger)
}

func waitReady(ctx context.Context, cfg Config, cp controlPlane, logger *slog.Logger) (string, error) {
	timeout := cfg.ReadyTimeout
	if timeout <= 0 {
		timeout = defaultReadyTimeout
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	deadline := time.Now().Add(timeout)
	for {
		desc, err := cp.DescribeIndex(ctx, cfg.IndexName)
		if err == nil && desc != nil && desc.Status != nil && desc.Status.Ready && desc.Host != "" {
			logger.Info("index is ready", "name", cfg.IndexName, "host", desc.Host)
			return desc.Host, nil
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("%w: %s after %s", index.ErrIndexNotReady, cfg.IndexName, timeout)
		}
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
}

func (i *Index) conn(namespace string) (dataPlane, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if c, ok := i.conns[namespace]; ok {
		return c, nil
	}
	c, err := i.connect(i.host, namespace)
	if err != nil {
		return nil, fmt.Errorf("pinecone: connect namespace %s: %w", namespace, err)
	}
	i.conns[namespace] = c
	return c, nil
}

// Upsert writes records to namespace.
func (i *Index) Upsert(ctx context.Context, namespace string, records []*core.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	c, err := i.conn(namespace)
	if err != nil {
		return 0, err
	}

	vectors := make([]*pinecone.Vector, 0, len(records))
	for _, r := range records {
		md, err := structpb.NewStruct(r.Metadata)
		if err != nil {
			return 0, fmt.Errorf("pinecone: metadata for %s: %w", r.ID, err)
		}
		vectors = append(vectors, &pinecone.Vector{
			Id:       r.ID,
			Values:   r.Values,
			Metadata: md,
		})
	}

	n, err := c.UpsertVectors(ctx, vectors)
	if err != nil {
		return 0, fmt.Errorf("pinecone: upsert %d vectors: %w", len(vectors), err)
	}
	return int(n), nil
}

// DeleteAll removes every vector in namespace.
func (i *Index) DeleteAll(ctx context.Context, namespace string) error {
	c, err := i.conn(namespace)
	if err != nil {
		return err
	}
	if err := c.DeleteAllVectorsInNamespace(ctx); err != nil {
		if isNotFound(err) {
			return index.ErrNamespaceNotFound
		}
		return fmt.Errorf("pinecone: delete namespace %s: %w", namespace, err)
	}
	return nil
}

// DeleteByDocType lists IDs with the "<docType>:" prefix and deletes them
// page by page. Indexes that cannot list fall back to a metadata filter.
func (i *Index) DeleteByDocType(ctx context.Context, namespace string, docType core.DocType) error {
	c, err := i.conn(namespace)
	if err != nil {
		return err
	}

	deleted, err := i.deleteByPrefix(ctx, c, index.IDPrefix(docType))
	if err == nil {
		i.logger.Info("deleted vectors by prefix", "namespace", namespace, "docType", docType, "deleted", deleted)
		return nil
	}
	if isNotFound(err) {
		return nil
	}
	i.logger.Warn("list and delete failed, falling back to metadata filter", "namespace", namespace, "docType", docType, "err", err)

	filter, err := structpb.NewStruct(map[string]any{
		index.FieldDocType: map[string]any{"$eq": string(docType)},
	})
	if err != nil {
		return err
	}
	if err := c.DeleteVectorsByFilter(ctx, filter); err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("pinecone: delete %s by filter: %w", docType, err)
	}
	return nil
}

func (i *Index) deleteByPrefix(ctx context.Context, c dataPlane, prefix string) (int, error) {
	limit := uint32(listPageSize)
	var token *string
	total := 0
	for {
		resp, err := c.ListVectors(ctx, &pinecone.ListVectorsRequest{
			Prefix:          &prefix,
			Limit:           &limit,
			PaginationToken: token,
		})
		if err != nil {
			return total, err
		}

		ids := make([]string, 0, len(resp.VectorIds))
		for _, id := range resp.VectorIds {
			if id != nil && *id != "" {
				ids = append(ids, *id)
			}
		}
		if len(ids) > 0 {
			if err := c.DeleteVectorsById(ctx, ids); err != nil {
				return total, err
			}
			total += len(ids)
		}

		if resp.NextPaginationToken == nil || *resp.NextPaginationToken == "" {
			return total, nil
		}
		token = resp.NextPaginationToken
	}
}

// Close closes every namespace connection.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	var errs []error
	for ns, c := range i.conns {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close namespace %s: %w", ns, err))
		}
	}
	i.conns = make(map[string]dataPlane)
	return errors.Join(errs...)
}

// isNotFound matches the 404 and "Namespace not found" errors Pinecone
// returns for namespaces and indexes that don't exist.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "404") || strings.Contains(msg, "not found") || strings.Contains(msg, "notfound")
}
