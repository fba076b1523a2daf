package archive

import (
	"errors"
	"fmt"
)

// Error kinds for archive integrity failures
type ErrorKind string

const (
	// KindBadMagic means the blob does not start with the expected magic bytes
	KindBadMagic ErrorKind = "bad_magic"

	// KindTruncated means a field ended before its declared length
	KindTruncated ErrorKind = "truncated"

	// KindPathTooLong means an entry path length is at or above the limit
	KindPathTooLong ErrorKind = "path_too_long"

	// KindUnsafePath means an entry path could escape the extraction root
	KindUnsafePath ErrorKind = "unsafe_path"

	// KindCorrupt means an entry payload failed to decompress to its recorded size
	KindCorrupt ErrorKind = "corrupt"
)

// FormatError represents an archive integrity failure
type FormatError struct {
	Kind       ErrorKind
	Path       string
	Offset     int
	Underlying error
}

// NewFormatError creates a new format error at the given byte offset
func NewFormatError(kind ErrorKind, offset int) *FormatError {
	return &FormatError{Kind: kind, Offset: offset}
}

// WithPath adds the offending entry path to the error
func (e *FormatError) WithPath(path string) *FormatError {
	e.Path = path
	return e
}

// WithUnderlying adds the underlying error
func (e *FormatError) WithUnderlying(err error) *FormatError {
	e.Underlying = err
	return e
}

// Error implements the error interface
func (e *FormatError) Error() string {
	msg := ""
	switch e.Kind {
	case KindBadMagic:
		msg = "invalid archive format"
	case KindTruncated:
		msg = "truncated archive"
	case KindPathTooLong:
		msg = "entry path too long"
	case KindUnsafePath:
		msg = "unsafe entry path"
	case KindCorrupt:
		msg = "corrupt entry payload"
	default:
		msg = string(e.Kind)
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %q", msg, e.Path)
	}
	msg = fmt.Sprintf("%s at offset %d", msg, e.Offset)
	if e.Underlying != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Underlying)
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As
func (e *FormatError) Unwrap() error {
	return e.Underlying
}

// IsKind reports whether err is a FormatError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var fe *FormatError
	return errors.As(err, &fe) && fe.Kind == kind
}
