// Package errors defines common error types for the application.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the application.
const (
	CodeUnknown        = "UNKNOWN_ERROR"
	CodeIOError        = "IO_ERROR"
	CodeSchemaMismatch = "SCHEMA_MISMATCH"
	CodeInvalidHex     = "INVALID_HEX"
	CodeInvalidDecimal = "INVALID_DECIMAL"
	CodeMissingField   = "MISSING_FIELD"
	CodeCountMismatch  = "COUNT_MISMATCH"
	CodeStorageError   = "STORAGE_ERROR"
	CodeDatabaseError  = "DATABASE_ERROR"
	CodeInvalidInput   = "INVALID_INPUT"
	CodeNotFound       = "NOT_FOUND"
	CodeConfigError    = "CONFIG_ERROR"
)

// AppError represents an application error with a code and message.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error instances.
var (
	ErrIOError        = New(CodeIOError, "failed to read trace")
	ErrSchemaMismatch = New(CodeSchemaMismatch, "trace header does not declare the expected row layouts")
	ErrInvalidHex     = New(CodeInvalidHex, "invalid hexadecimal field")
	ErrInvalidDecimal = New(CodeInvalidDecimal, "invalid decimal field")
	ErrMissingField   = New(CodeMissingField, "row has fewer fields than its layout")
	ErrCountMismatch  = New(CodeCountMismatch, "event count does not match stack count")
	ErrStorageError   = New(CodeStorageError, "storage error")
	ErrDatabaseError  = New(CodeDatabaseError, "database error")
	ErrInvalidInput   = New(CodeInvalidInput, "invalid input")
	ErrNotFound       = New(CodeNotFound, "resource not found")
	ErrConfigError    = New(CodeConfigError, "configuration error")
)

// IsIOError checks if the error is an I/O error.
func IsIOError(err error) bool {
	return errors.Is(err, ErrIOError)
}

// IsSchemaError checks if the error is a header schema mismatch.
func IsSchemaError(err error) bool {
	return errors.Is(err, ErrSchemaMismatch)
}

// IsFieldFormatError checks if the error comes from a malformed row field.
func IsFieldFormatError(err error) bool {
	return errors.Is(err, ErrInvalidHex) ||
		errors.Is(err, ErrInvalidDecimal) ||
		errors.Is(err, ErrMissingField)
}

// IsConsistencyError checks if the error is an event/stack count mismatch.
func IsConsistencyError(err error) bool {
	return errors.Is(err, ErrCountMismatch)
}

// IsDatabaseError checks if the error is a database error.
func IsDatabaseError(err error) bool {
	return errors.Is(err, ErrDatabaseError)
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetErrorMessage extracts the error message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
