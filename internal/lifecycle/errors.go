package lifecycle

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the manager can report. The HTTP layer
// maps kinds to status codes and user-facing messages; the manager
// never returns an unclassified error.
type Kind string

const (
	// KindDuplicateContent - the uploaded bytes hash identically to an
	// already-registered document. Recoverable; batch continues.
	KindDuplicateContent Kind = "duplicate_content"

	// KindUnsupportedType - declared type is neither plain text nor PDF.
	// Recoverable; the file is skipped.
	KindUnsupportedType Kind = "unsupported_type"

	// KindExtractionFailed - text extraction failed or yielded nothing.
	// Recoverable; the file is skipped.
	KindExtractionFailed Kind = "extraction_failed"

	// KindStorageCorrupt - index state unreadable. Fatal: implies lost
	// retrievability.
	KindStorageCorrupt Kind = "storage_corrupt"

	// KindPersistFailed - I/O error while committing. The operation
	// failed; prior durable state is unchanged.
	KindPersistFailed Kind = "persist_failed"

	// KindNotFound - removal of an unknown filename. Recoverable no-op.
	KindNotFound Kind = "not_found"
)

// Error tags a failure with its kind and the offending filename.
type Error struct {
	Kind     Kind
	Filename string
	Err      error
}

func (e *Error) Error() string {
	if e.Filename == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Kind, e.Filename, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, filename string, err error) *Error {
	return &Error{Kind: kind, Filename: filename, Err: err}
}

// KindOf extracts the classification from err. Returns "" if err is not
// a lifecycle error.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
