package source

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const s3Scheme = "s3://"

// Object describes one stored object.
type Object struct {
	Key  string
	Size int64
}

// ObjectStore lists and reads objects in buckets.
type ObjectStore interface {
	List(ctx context.Context, bucket, prefix string) ([]Object, error)
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// S3Config configures an S3-compatible object store.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// MinioStore is an ObjectStore backed by minio-go.
type MinioStore struct {
	client *minio.Client
}

var _ ObjectStore = (*MinioStore)(nil)

// NewMinioStore creates a client for cfg.Endpoint. Any scheme prefix on
// the endpoint is stripped.
func NewMinioStore(cfg S3Config) (*MinioStore, error) {
	endpoint := cfg.Endpoint
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")
	if endpoint == "" {
		return nil, fmt.Errorf("%w: endpoint not configured", ErrNoObjectStore)
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinioStore{client: client}, nil
}

// List returns every object under prefix.
func (m *MinioStore) List(ctx context.Context, bucket, prefix string) ([]Object, error) {
	var objects []Object
	for obj := range m.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", bucket, prefix, obj.Err)
		}
		objects = append(objects, Object{Key: obj.Key, Size: obj.Size})
	}
	return objects, nil
}

// Open streams one object.
func (m *MinioStore) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	return obj, nil
}

// IsS3 reports whether input is an s3:// URL.
func IsS3(input string) bool {
	return strings.HasPrefix(strings.ToLower(input), s3Scheme)
}

// ParseS3 splits an s3://bucket/key URL.
func ParseS3(input string) (bucket, key string, err error) {
	rest := input[len(s3Scheme):]
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidS3URL, input)
	}
	return bucket, key, nil
}

func (r *Resolver) resolveS3(ctx context.Context, input string, patterns []string) ([]Source, error) {
	if r.store == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoObjectStore, input)
	}
	bucket, key, err := ParseS3(input)
	if err != nil {
		return nil, err
	}

	prefixMode := key == "" || strings.HasSuffix(key, "/")
	objects, err := r.store.List(ctx, bucket, key)
	if err != nil {
		return nil, err
	}

	var out []Source
	for _, obj := range objects {
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		if prefixMode {
			if !Match(obj.Key, patterns) {
				continue
			}
		} else if obj.Key != key {
			continue
		}
		out = append(out, r.s3Source(bucket, obj))
	}
	if len(out) == 0 {
		r.logger.Warn("no objects matched", "input", input)
	}
	return out, nil
}

func (r *Resolver) s3Source(bucket string, obj Object) Source {
	store := r.store
	key := obj.Key
	return Source{
		Name: path.Base(key),
		Path: s3Scheme + bucket + "/" + key,
		Size: obj.Size,
		open: func(ctx context.Context) (io.ReadCloser, error) {
			return store.Open(ctx, bucket, key)
		},
	}
}
