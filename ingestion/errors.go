package ingestion

import "errors"

var (
	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrIndexRequired is returned when a vector index is not provided.
	ErrIndexRequired = errors.New("vector index required")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrInvalidOption is returned when an option value is out of range.
	ErrInvalidOption = errors.New("invalid pipeline option")

	// ErrFileTooLarge marks a file skipped for exceeding the size limit.
	ErrFileTooLarge = errors.New("file size exceeds limit")

	// ErrUnchanged marks a file skipped because its manifest fingerprint
	// matches.
	ErrUnchanged = errors.New("file unchanged since last run")

	// ErrEmbeddingFailed marks a file whose chunks could not be embedded.
	ErrEmbeddingFailed = errors.New("embedding failed")
)
