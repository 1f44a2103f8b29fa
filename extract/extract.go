package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/docvec/core"
)

// Page is the text of one PDF page. Number is 1-based.
type Page struct {
	Number int
	Text   string
}

// Item is one element of a top-level JSON array.
// Q/A items have IsQA set and carry Question, Answer and Category;
// every other element is kept as its compact JSON encoding in Raw.
type Item struct {
	Index    int
	IsQA     bool
	Question string
	Answer   string
	Category string
	Raw      string
}

// Content returns the text embedded for the item.
func (it Item) Content() string {
	if it.IsQA {
		return "Q: " + it.Question + "\nA: " + it.Answer
	}
	return it.Raw
}

// Document is the extracted content of one file. Exactly one of Pages,
// Items or Text is populated, depending on Kind.
type Document struct {
	Kind  core.Kind
	Pages []Page
	Items []Item
	Text  string
}

// Extractor turns file contents into a Document.
type Extractor interface {
	Extract(ctx context.Context, name string, r io.Reader) (*Document, error)
}

// Mux dispatches to a per-kind extractor based on the file extension.
type Mux struct {
	byKind map[core.Kind]Extractor
	logger *slog.Logger
}

var _ Extractor = (*Mux)(nil)

// Option configures a Mux.
type Option func(*Mux)

// WithExtractor overrides the extractor used for a kind.
func WithExtractor(kind core.Kind, e Extractor) Option {
	return func(m *Mux) {
		m.byKind[kind] = e
	}
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mux) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMux returns a Mux with the PDF, JSON and text extractors installed.
func NewMux(pdf *PDFExtractor, opts ...Option) *Mux {
	if pdf == nil {
		pdf = NewPDFExtractor(DefaultPageMaxChars)
	}
	m := &Mux{
		byKind: map[core.Kind]Extractor{
			core.KindPDF:  pdf,
			core.KindJSON: JSONExtractor{},
			core.KindText: TextExtractor{},
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "extract")
	return m
}

// Extract runs the extractor registered for name's kind.
func (m *Mux) Extract(ctx context.Context, name string, r io.Reader) (*Document, error) {
	kind := core.KindOf(name)
	e, ok := m.byKind[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
	m.logger.Debug("extracting", "name", name, "kind", kind)
	doc, err := e.Extract(ctx, name, r)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", name, err)
	}
	return doc, nil
}
