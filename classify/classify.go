package classify

import (
	"fmt"
	"os"
	"strings"

	"github.com/poiesic/docvec/core"
	"gopkg.in/yaml.v3"
)

// Rule maps file-name keywords to a document type. A rule matches when
// the lowercase title contains any AnyOf keyword, or contains every AllOf
// keyword. Both lists may be set.
type Rule struct {
	DocType core.DocType `yaml:"doc_type"`
	AnyOf   []string     `yaml:"any_of"`
	AllOf   []string     `yaml:"all_of"`
}

// Matches reports whether the rule applies to a lowercase title.
func (r Rule) Matches(title string) bool {
	for _, kw := range r.AnyOf {
		if strings.Contains(title, kw) {
			return true
		}
	}
	if len(r.AllOf) == 0 {
		return false
	}
	for _, kw := range r.AllOf {
		if !strings.Contains(title, kw) {
			return false
		}
	}
	return true
}

// DefaultRules is the built-in table. Order matters: the first matching
// rule wins, so "conversation about promotions.pdf" is a conversation.
var DefaultRules = []Rule{
	{DocType: core.DocTypeConsiderations, AnyOf: []string{"consideration"}},
	{DocType: core.DocTypeConversations, AnyOf: []string{"conversation"}},
	{DocType: core.DocTypeBank, AnyOf: []string{"bank account"}, AllOf: []string{"bank", "detail"}},
	{DocType: core.DocTypeAddress, AnyOf: []string{"address", "location"}},
	{DocType: core.DocTypePromotions, AnyOf: []string{"promotion", "promo"}},
	{DocType: core.DocTypeInventory, AnyOf: []string{"live stock", "stock list", "price"}},
}

// Classifier infers document types from file names.
type Classifier struct {
	rules []Rule
}

// New returns a classifier using rules, or DefaultRules if none are given.
func New(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Classifier{rules: rules}
}

// Infer returns the document type for path. Paths that match no rule are
// general documents.
func (c *Classifier) Infer(path string) core.DocType {
	title := strings.ToLower(core.Title(path))
	for _, r := range c.rules {
		if r.Matches(title) {
			return r.DocType
		}
	}
	return core.DocTypeGeneral
}

// Rules returns the rules in evaluation order.
func (c *Classifier) Rules() []Rule {
	return c.rules
}

// Infer classifies path with the default rules.
func Infer(path string) core.DocType {
	return defaultClassifier.Infer(path)
}

var defaultClassifier = New()

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads a YAML rules file of the form:
//
//	rules:
//	  - doc_type: promotions
//	    any_of: [promotion, promo]
//
// Keywords are lowercased. Unknown doc types are rejected.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes rules from YAML bytes.
func ParseRules(data []byte) ([]Rule, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, ErrNoRules
	}
	for i := range f.Rules {
		r := &f.Rules[i]
		if err := core.ValidateDocType(r.DocType); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		if len(r.AnyOf) == 0 && len(r.AllOf) == 0 {
			return nil, fmt.Errorf("rule %d: %w", i, ErrEmptyRule)
		}
		r.AnyOf = lower(r.AnyOf)
		r.AllOf = lower(r.AllOf)
	}
	return f.Rules, nil
}

func lower(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// canonicalKeywords are the file-name fragments picked up by the default
// ingest driver.
var canonicalKeywords = []string{
	"consideration",
	"conversation",
	"promotion",
	"promo",
	"bank",
	"address",
	"location",
	"live stock",
	"stock list",
}

// IsCanonicalKeyword reports whether a file name contains one of the
// default-ingest keywords.
func IsCanonicalKeyword(name string) bool {
	lowered := strings.ToLower(name)
	for _, kw := range canonicalKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}
