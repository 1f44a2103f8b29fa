package core

import (
	"fmt"
	"strings"
)

// MaxIDLength is the longest vector ID accepted by the supported indexes.
const MaxIDLength = 512

// ValidateRecord validates a Record before it is written to an index.
//
// Validation rules:
//   - ID must not be empty and must fit in MaxIDLength bytes
//   - Values must not be empty
//   - Metadata must not be nil
//
// NOT validated:
//   - Text (empty chunks are embedded as zero vectors upstream)
func ValidateRecord(record *Record) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if record.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyID)
	}

	if len(record.ID) > MaxIDLength {
		return fmt.Errorf("%w: %w: %d bytes", ErrInvalidRecord, ErrIDTooLong, len(record.ID))
	}

	if len(record.Values) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyVector)
	}

	if record.Metadata == nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrMissingMetadata)
	}

	return nil
}

// ValidateNamespace checks that a namespace is usable.
func ValidateNamespace(namespace string) error {
	if strings.TrimSpace(namespace) == "" {
		return ErrEmptyNamespace
	}
	return nil
}

// ValidateDocType checks that d is a known document type.
func ValidateDocType(d DocType) error {
	if !d.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDocType, string(d))
	}
	return nil
}

// ValidateFileState validates a manifest entry before it is persisted.
func ValidateFileState(state *FileState) error {
	if state == nil {
		return fmt.Errorf("%w: state is nil", ErrInvalidFileState)
	}
	if state.Path == "" {
		return fmt.Errorf("%w: path is empty", ErrInvalidFileState)
	}
	if err := ValidateNamespace(state.Namespace); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFileState, err)
	}
	if state.Fingerprint == "" {
		return fmt.Errorf("%w: fingerprint is empty", ErrInvalidFileState)
	}
	return nil
}
