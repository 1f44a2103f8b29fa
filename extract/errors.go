package extract

import "errors"

var (
	// ErrUnsupportedKind is returned when no extractor handles a file kind.
	ErrUnsupportedKind = errors.New("unsupported file kind")

	// ErrInvalidJSON is returned when a .json file cannot be parsed.
	ErrInvalidJSON = errors.New("invalid JSON")

	// ErrUnsupportedJSON is returned when a .json file is valid but its
	// top-level value is not an array.
	ErrUnsupportedJSON = errors.New("unsupported JSON structure")

	// ErrInvalidUTF8 is returned when a text file is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("text is not valid UTF-8")

	// ErrUnreadablePDF is returned when a PDF cannot be opened.
	ErrUnreadablePDF = errors.New("unreadable PDF")
)
