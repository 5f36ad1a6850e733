package engine

import "errors"

var (
	// ErrMalformedDocument wraps parse failures. The cycle aborts and
	// previously emitted spans stay in place.
	ErrMalformedDocument = errors.New("malformed document")
	// ErrReadDocument wraps failures to obtain a document's text.
	ErrReadDocument = errors.New("cannot read document")
	// ErrListDirectory wraps batch-mode listing failures.
	ErrListDirectory = errors.New("cannot list directory")
)
