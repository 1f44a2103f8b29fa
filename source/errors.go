package source

import "errors"

var (
	// ErrNotOpenable is returned by Source.Open for a Source built without
	// a reader.
	ErrNotOpenable = errors.New("source cannot be opened")

	// ErrNoObjectStore is returned for s3:// inputs when no object store
	// is configured.
	ErrNoObjectStore = errors.New("no object store configured")

	// ErrInvalidS3URL is returned for s3:// inputs without a bucket.
	ErrInvalidS3URL = errors.New("invalid s3 url")

	// ErrNothingFound is returned by Gather when no canonical files exist.
	ErrNothingFound = errors.New("no expected files found")
)
