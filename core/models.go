package core

import (
	"encoding/hex"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// DocType categorizes a source document. It drives chunk sizing and is
// stored on every vector so a namespace can be purged one type at a time.
type DocType string

const (
	DocTypeGeneral        DocType = "general"
	DocTypeConsiderations DocType = "considerations"
	DocTypeConversations  DocType = "conversations"
	DocTypeBank           DocType = "bank"
	DocTypeAddress        DocType = "address"
	DocTypePromotions     DocType = "promotions"
	DocTypeInventory      DocType = "inventory"
)

// AllDocTypes lists every document type in a stable order.
var AllDocTypes = []DocType{
	DocTypeGeneral,
	DocTypeConsiderations,
	DocTypeConversations,
	DocTypeBank,
	DocTypeAddress,
	DocTypePromotions,
	DocTypeInventory,
}

// IsShortForm reports whether documents of this type hold short, dense
// facts that are chunked with a smaller window.
func (d DocType) IsShortForm() bool {
	switch d {
	case DocTypeInventory, DocTypePromotions, DocTypeBank, DocTypeAddress:
		return true
	}
	return false
}

// Valid reports whether d is one of the known document types.
func (d DocType) Valid() bool {
	for _, known := range AllDocTypes {
		if d == known {
			return true
		}
	}
	return false
}

// Record types written to the "type" metadata field of JSON records.
const (
	RecordTypeQA   = "qa"
	RecordTypeJSON = "json"
)

// Kind identifies how a file's text is extracted.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindJSON Kind = "json"
	KindText Kind = "text"
)

// KindOf detects the file kind from the extension, case-insensitively.
// Anything that is neither .pdf nor .json is treated as plain text.
func KindOf(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return KindPDF
	case ".json":
		return KindJSON
	default:
		return KindText
	}
}

// Title returns the base name of path without its extension.
func Title(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Record is a single vector ready to be written to an index.
type Record struct {
	ID       string
	Text     string
	Values   []float32
	Metadata map[string]any
}

// DocType returns the doc_type metadata value, or the empty string if the
// record has none (JSON records).
func (r *Record) DocType() DocType {
	if r == nil || r.Metadata == nil {
		return ""
	}
	if v, ok := r.Metadata["doc_type"].(string); ok {
		return DocType(v)
	}
	if v, ok := r.Metadata["doc_type"].(DocType); ok {
		return v
	}
	return ""
}

// FileState records a file that was fully written to a namespace.
// It lets later runs skip files whose contents have not changed.
type FileState struct {
	Path        string
	Namespace   string
	Fingerprint string
	DocType     DocType
	VectorIDs   []string
	RunID       string
	IndexedAt   time.Time
}

// Fingerprint returns the hex-encoded BLAKE2b-256 digest of data.
func Fingerprint(data []byte) string {
	h, _ := blake2b.New(32, nil)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
