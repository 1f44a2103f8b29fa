package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/docvec/core"
)

// DefaultCategory is used for Q/A items without a category.
const DefaultCategory = "general"

// JSONExtractor reads a top-level JSON array of items.
type JSONExtractor struct{}

var _ Extractor = JSONExtractor{}

// Extract decodes r. Only arrays are accepted.
func (JSONExtractor) Extract(ctx context.Context, name string, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var top any
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	if _, ok := top.([]any); !ok {
		return nil, ErrUnsupportedJSON
	}

	// Decode again as raw elements so non-Q/A items keep their key order.
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	items := make([]Item, 0, len(elems))
	for i, raw := range elems {
		items = append(items, parseItem(i, raw))
	}
	return &Document{Kind: core.KindJSON, Items: items}, nil
}

func parseItem(index int, raw json.RawMessage) Item {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		q, hasQ := obj["question"]
		a, hasA := obj["answer"]
		if hasQ && hasA {
			category := DefaultCategory
			if c, ok := obj["category"]; ok {
				category = stringify(c)
			}
			return Item{
				Index:    index,
				IsQA:     true,
				Question: stringify(q),
				Answer:   stringify(a),
				Category: category,
			}
		}
	}

	text, err := dumpJSON(raw)
	if err != nil {
		return Item{Index: index, Raw: string(raw)}
	}
	return Item{Index: index, Raw: text}
}

// dumpJSON renders raw on one line with ", " and ": " separators. Key
// order is kept and strings are re-encoded without escaping non-ASCII
// text, so `{"a":"caf\u00e9"}` becomes `{"a": "café"}`.
func dumpJSON(raw json.RawMessage) (string, error) {
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return "", err
	}
	src := compact.Bytes()

	var out strings.Builder
	for i := 0; i < len(src); i++ {
		switch c := src[i]; c {
		case '"':
			end := stringEnd(src, i)
			var s string
			if err := json.Unmarshal(src[i:end], &s); err != nil {
				return "", err
			}
			quoted, err := encode(s)
			if err != nil {
				return "", err
			}
			out.WriteString(quoted)
			i = end - 1
		case ',':
			out.WriteString(", ")
		case ':':
			out.WriteString(": ")
		default:
			out.WriteByte(c)
		}
	}
	return out.String(), nil
}

// stringEnd returns the index just past the string literal starting at
// src[start].
func stringEnd(src []byte, start int) int {
	for i := start + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '"':
			return i + 1
		}
	}
	return len(src)
}

// stringify renders a decoded JSON value for embedding. Strings are used
// as-is; everything else is re-encoded.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return "null"
	}
	text, err := encode(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return text
}

func encode(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
