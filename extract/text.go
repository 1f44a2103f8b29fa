package extract

import (
	"context"
	"io"
	"unicode/utf8"

	"github.com/poiesic/docvec/core"
)

// TextExtractor reads a whole file as UTF-8 text.
type TextExtractor struct{}

var _ Extractor = TextExtractor{}

// Extract returns the file contents unchanged.
func (TextExtractor) Extract(ctx context.Context, name string, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, ErrInvalidUTF8
	}
	return &Document{Kind: core.KindText, Text: string(data)}, nil
}
