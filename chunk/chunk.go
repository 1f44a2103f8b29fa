package chunk

import (
	"strings"
	"unicode/utf8"

	"github.com/poiesic/docvec/core"
)

const (
	// DefaultSize is the base window length in characters.
	DefaultSize = 700
	// DefaultOverlap is the base number of characters shared by
	// consecutive windows.
	DefaultOverlap = 100

	shortFormMin = 200
	shortFormMax = 400
)

// Split cuts text into windows of at most size characters, each starting
// size-overlap characters after the previous one. The last window is the
// first one that reaches the end of the text.
//
// Empty text yields no chunks. A non-positive size returns the whole text
// as a single chunk. Lengths are counted in runes.
func Split(text string, size, overlap int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 {
		return []string{text}
	}
	if overlap < 0 {
		overlap = 0
	}
	step := size - overlap
	if step < 1 {
		step = 1
	}

	// Byte offset of every rune, plus the end of the string, so windows
	// can be sliced without copying through []rune.
	offsets := make([]int, 0, utf8.RuneCountInString(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	n := len(offsets)
	offsets = append(offsets, len(text))

	var chunks []string
	for start := 0; start < n; start += step {
		end := start + size
		if end > n {
			end = n
		}
		chunks = append(chunks, text[offsets[start]:offsets[end]])
		if end == n {
			break
		}
	}
	return chunks
}

// SizeFor returns the window length for a document type. Short-form
// documents (inventory, promotions, bank and address details) use a
// window clamped to [200, 400] so each vector holds few facts.
func SizeFor(docType core.DocType, base int) int {
	if !docType.IsShortForm() {
		return base
	}
	size := base
	if size > shortFormMax {
		size = shortFormMax
	}
	if size < shortFormMin {
		size = shortFormMin
	}
	return size
}

// OverlapFor returns the overlap for a window length: the base overlap,
// capped at a quarter of the window.
func OverlapFor(size, base int) int {
	quarter := int(float64(size) * 0.25)
	if base < quarter {
		return base
	}
	return quarter
}

// NormalizeWhitespace collapses every run of whitespace into a single
// space and trims the result.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate returns at most max runes of s.
func Truncate(s string, max int) string {
	if max < 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}

// Plan is the window configuration used for one document.
type Plan struct {
	Size    int
	Overlap int
}

// Split applies the plan to text.
func (p Plan) Split(text string) []string {
	return Split(text, p.Size, p.Overlap)
}

// Sizer derives per-document chunk plans from base settings.
type Sizer struct {
	Size    int
	Overlap int
}

// DefaultSizer returns a sizer with DefaultSize and DefaultOverlap.
func DefaultSizer() Sizer {
	return Sizer{Size: DefaultSize, Overlap: DefaultOverlap}
}

// PlanFor returns the chunk plan for a document type.
func (s Sizer) PlanFor(docType core.DocType) Plan {
	size := SizeFor(docType, s.Size)
	return Plan{Size: size, Overlap: OverlapFor(size, s.Overlap)}
}
