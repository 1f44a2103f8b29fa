package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/poiesic/docvec/chunk"
	"github.com/poiesic/docvec/core"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

const (
	// DefaultPageMaxChars caps the normalized text kept per PDF page.
	DefaultPageMaxChars = 50000

	// minPageScanChars is the least raw text examined per page, so a very
	// low cap still sees enough input to survive whitespace collapsing.
	minPageScanChars = 10000
)

// PageText bounds and normalizes the raw text of one page: it keeps the
// first max(maxChars, 10000) characters, collapses whitespace and trims,
// then truncates to maxChars.
func PageText(raw string, maxChars int) string {
	scan := maxChars
	if scan < minPageScanChars {
		scan = minPageScanChars
	}
	limited := chunk.Truncate(raw, scan)
	return chunk.Truncate(chunk.NormalizeWhitespace(limited), maxChars)
}

// SetLicenseKey installs a metered unipdf license key. It must be called
// before the first PDF is opened.
func SetLicenseKey(key string) error {
	if key == "" {
		return nil
	}
	if err := license.SetMeteredKey(key); err != nil {
		return fmt.Errorf("set pdf license: %w", err)
	}
	return nil
}

// pageReader reads the raw text of a PDF one page at a time. Page numbers
// are 1-based.
type pageReader interface {
	NumPages() (int, error)
	PageText(number int) (string, error)
}

// PDFExtractor extracts per-page text from PDF files.
type PDFExtractor struct {
	maxChars int
	open     func(data []byte) (pageReader, error)
	logger   *slog.Logger
}

var _ Extractor = (*PDFExtractor)(nil)

// NewPDFExtractor returns an extractor that keeps at most maxChars
// characters per page. A non-positive value uses DefaultPageMaxChars.
func NewPDFExtractor(maxChars int) *PDFExtractor {
	if maxChars <= 0 {
		maxChars = DefaultPageMaxChars
	}
	return &PDFExtractor{
		maxChars: maxChars,
		open:     openUnipdf,
		logger:   slog.Default().With("component", "pdf-extractor"),
	}
}

// Extract returns one Page per page that has text. Pages whose text
// cannot be extracted are logged and skipped. When no page could be
// extracted at all the file is reported as ErrUnreadablePDF; unipdf fails
// every page this way when no license key is installed.
func (p *PDFExtractor) Extract(ctx context.Context, name string, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	reader, err := p.open(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadablePDF, err)
	}

	numPages, err := reader.NumPages()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadablePDF, err)
	}

	pages := make([]Page, 0, numPages)
	var firstErr error
	failures := 0
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := reader.PageText(i)
		if err != nil {
			p.logger.Warn("failed to extract page text", "name", name, "page", i, "err", err)
			if firstErr == nil {
				firstErr = err
			}
			failures++
			continue
		}
		if strings.TrimSpace(raw) == "" {
			continue
		}
		text := PageText(raw, p.maxChars)
		if text == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}

	if numPages > 0 && failures == numPages {
		return nil, fmt.Errorf("%w: no page could be extracted: %w", ErrUnreadablePDF, firstErr)
	}

	p.logger.Debug("extracted pdf", "name", name, "pages", numPages, "withText", len(pages))
	return &Document{Kind: core.KindPDF, Pages: pages}, nil
}

type unipdfReader struct {
	reader *model.PdfReader
}

func openUnipdf(data []byte) (pageReader, error) {
	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return unipdfReader{reader: reader}, nil
}

func (u unipdfReader) NumPages() (int, error) {
	return u.reader.GetNumPages()
}

func (u unipdfReader) PageText(number int) (string, error) {
	page, err := u.reader.GetPage(number)
	if err != nil {
		return "", fmt.Errorf("read page %d: %w", number, err)
	}
	ex, err := extractor.New(page)
	if err != nil {
		return "", fmt.Errorf("page %d extractor: %w", number, err)
	}
	return ex.ExtractText()
}
