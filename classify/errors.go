package classify

import "errors"

var (
	// ErrNoRules is returned when a rules file defines no rules.
	ErrNoRules = errors.New("no classification rules defined")

	// ErrEmptyRule is returned when a rule has no keywords.
	ErrEmptyRule = errors.New("rule has no keywords")
)
