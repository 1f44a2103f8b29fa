// Package source resolves ingestion inputs into readable files. Inputs may
// be local files, local directories or s3:// URLs.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultPatterns select files when walking a directory.
var DefaultPatterns = []string{"*.pdf"}

// SizeUnknown marks a Source whose size could not be determined.
const SizeUnknown int64 = -1

// Source is one input file.
type Source struct {
	// Name is the base file name.
	Name string
	// Path is the local path or s3:// URL.
	Path string
	Size int64

	open func(ctx context.Context) (io.ReadCloser, error)
}

// Open returns the file contents.
func (s Source) Open(ctx context.Context) (io.ReadCloser, error) {
	if s.open == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotOpenable, s.Path)
	}
	return s.open(ctx)
}

// Local returns a Source for a local file.
func Local(p string) Source {
	size := SizeUnknown
	if info, err := os.Stat(p); err == nil {
		size = info.Size()
	}
	return Source{
		Name: filepath.Base(p),
		Path: p,
		Size: size,
		open: func(ctx context.Context) (io.ReadCloser, error) {
			return os.Open(p)
		},
	}
}

// Resolver expands inputs into sources.
type Resolver struct {
	store  ObjectStore
	logger *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithObjectStore enables s3:// inputs.
func WithObjectStore(store ObjectStore) Option {
	return func(r *Resolver) {
		r.store = store
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver returns a Resolver for local inputs plus any configured
// object store.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "source-resolver")
	return r
}

// Resolve resolves local inputs only.
func Resolve(ctx context.Context, inputs, patterns []string) ([]Source, error) {
	return NewResolver().Resolve(ctx, inputs, patterns)
}

// Resolve expands inputs in order. Directories and s3:// prefixes ending
// in "/" are filtered by patterns (DefaultPatterns when empty). Missing
// paths are skipped with a warning. A path reached twice is kept once.
func (r *Resolver) Resolve(ctx context.Context, inputs, patterns []string) ([]Source, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}

	var out []Source
	seen := make(map[string]bool)
	add := func(s Source) {
		if seen[s.Path] {
			return
		}
		seen[s.Path] = true
		out = append(out, s)
	}

	for _, raw := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		in := CleanInput(raw)
		if in == "" {
			continue
		}

		if IsS3(in) {
			sources, err := r.resolveS3(ctx, in, patterns)
			if err != nil {
				return nil, err
			}
			for _, s := range sources {
				add(s)
			}
			continue
		}

		info, err := os.Stat(in)
		if err != nil {
			r.logger.Warn("skipping missing input", "path", in)
			continue
		}
		if !info.IsDir() {
			add(Local(in))
			continue
		}

		files, err := walk(in, patterns)
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", in, err)
		}
		for _, f := range files {
			add(Local(f))
		}
	}
	return out, nil
}

// CleanInput trims whitespace and surrounding double quotes.
func CleanInput(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}

// Match reports whether the base of name matches any pattern.
func Match(name string, patterns []string) bool {
	base := path.Base(filepath.ToSlash(name))
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
		if ok, _ := filepath.Match(strings.ToLower(p), strings.ToLower(base)); ok {
			return true
		}
	}
	return false
}

func walk(dir string, patterns []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return nil
			}
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if Match(p, patterns) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}
