package ai

import (
	"log/slog"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the tokenizer used by OpenAI embedding models.
const DefaultEncoding = "cl100k_base"

// charsPerToken approximates token counts when no tokenizer is available.
const charsPerToken = 4

// Truncator bounds text to a token budget.
type Truncator interface {
	Truncate(text string, maxTokens int) string
}

// TokenTruncator counts tokens with tiktoken.
type TokenTruncator struct {
	enc *tiktoken.Tiktoken
}

// Truncate returns the longest prefix of text that fits in maxTokens.
func (t *TokenTruncator) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	tokens := t.enc.EncodeOrdinary(text)
	if len(tokens) <= maxTokens {
		return text
	}
	return t.enc.Decode(tokens[:maxTokens])
}

// CharTruncator approximates tokens as four characters each.
type CharTruncator struct{}

// Truncate returns at most maxTokens*4 runes of text.
func (CharTruncator) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	limit := maxTokens * charsPerToken
	if len(text) <= limit {
		return text
	}
	count := 0
	for i := range text {
		if count == limit {
			return text[:i]
		}
		count++
	}
	return text
}

// NewTruncator loads the named tiktoken encoding. If it cannot be loaded
// (the BPE ranks are fetched on first use) it falls back to CharTruncator.
func NewTruncator(encoding string) Truncator {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		slog.Default().With("component", "tokenizer").Warn("tokenizer unavailable, approximating by characters",
			"encoding", encoding, "err", err)
		return CharTruncator{}
	}
	return &TokenTruncator{enc: enc}
}
