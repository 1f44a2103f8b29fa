package index

import "errors"

var (
	// ErrNamespaceNotFound is returned when deleting from a namespace that
	// does not exist yet. Callers purging before a first run treat it as
	// benign.
	ErrNamespaceNotFound = errors.New("namespace not found")

	// ErrUnknownBackend is returned by the factory for an unsupported
	// backend name.
	ErrUnknownBackend = errors.New("unknown index backend")

	// ErrDimensionMismatch is returned when a vector does not match the
	// index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrIndexNotReady is returned when a newly created index does not
	// become ready in time.
	ErrIndexNotReady = errors.New("index not ready")
)
