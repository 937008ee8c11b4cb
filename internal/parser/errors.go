package parser

import (
	"errors"

	apperrors "github.com/heaptrace/pkg/errors"
)

// Parse failures. All of them abort the parse; callers match with errors.Is.
var (
	// ErrIO is returned when the trace cannot be read.
	ErrIO = apperrors.ErrIOError

	// ErrSchemaMismatch is returned when the header does not declare every
	// expected row layout before EndHeader.
	ErrSchemaMismatch = apperrors.ErrSchemaMismatch

	// ErrInvalidHex is returned for a hex field without the 0x prefix or with
	// non-hex digits.
	ErrInvalidHex = apperrors.ErrInvalidHex

	// ErrInvalidDecimal is returned for a non-numeric stack depth.
	ErrInvalidDecimal = apperrors.ErrInvalidDecimal

	// ErrMissingField is returned when a recognised row is shorter than its layout.
	ErrMissingField = apperrors.ErrMissingField

	// ErrCountMismatch is returned when the number of events and completed
	// stacks differ at the end of the input.
	ErrCountMismatch = apperrors.ErrCountMismatch

	// ErrUnsupportedFormat is returned when no parser is registered for a format.
	ErrUnsupportedFormat = errors.New("unsupported format")
)
