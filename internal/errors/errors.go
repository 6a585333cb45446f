package errors

import (
	"fmt"
)

// VerbexError is the structured error type for the Verbex engine.
// It provides rich context for error handling, logging, and caller
// retry decisions.
type VerbexError struct {
	// Code is the unique error code (e.g., "ERR_301_DUPLICATE_NAME").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Validation, Conflict, Storage, ...).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs,
	// typically the operation name and entity id.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried as-is.
	Retryable bool
}

// Error implements the error interface.
func (e *VerbexError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *VerbexError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with VerbexError.
func (e *VerbexError) Is(target error) bool {
	if t, ok := target.(*VerbexError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *VerbexError) WithDetail(key, value string) *VerbexError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new VerbexError with the given code and message.
// Category, severity, and the retryable flag are derived from the code.
func New(code string, message string, cause error) *VerbexError {
	return &VerbexError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a VerbexError from an existing error.
// The error's message becomes the VerbexError message.
func Wrap(code string, err error) *VerbexError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ValidationError creates an input-validation error.
func ValidationError(message string) *VerbexError {
	return New(ErrCodeInvalidInput, message, nil)
}

// ConfigError creates a configuration-validation error.
func ConfigError(message string) *VerbexError {
	return New(ErrCodeInvalidConfig, message, nil)
}

// ConflictError creates a uniqueness-violation error.
func ConflictError(message string) *VerbexError {
	return New(ErrCodeDuplicateName, message, nil)
}

// StorageError creates a storage I/O error wrapping the driver error.
func StorageError(operation string, cause error) *VerbexError {
	return New(ErrCodeStorageIO, fmt.Sprintf("%s: %v", operation, cause), cause).
		WithDetail("operation", operation)
}

// BusyError creates a retryable storage-contention error.
func BusyError(operation string, cause error) *VerbexError {
	return New(ErrCodeStorageBusy, fmt.Sprintf("%s: storage busy", operation), cause).
		WithDetail("operation", operation)
}

// NotOpenError creates a lifecycle error for operations against an
// unopened or closed engine.
func NotOpenError(operation string) *VerbexError {
	return New(ErrCodeNotOpen, fmt.Sprintf("%s: engine is not open", operation), nil).
		WithDetail("operation", operation)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is a VerbexError with the Retryable flag set.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if ve, ok := err.(*VerbexError); ok {
		return ve.Retryable
	}
	return false
}

// IsConflict checks if an error is a uniqueness-violation error.
func IsConflict(err error) bool {
	return GetCategory(err) == CategoryConflict
}

// IsNotFound checks if an error is a not-found error.
func IsNotFound(err error) bool {
	return GetCategory(err) == CategoryNotFound
}

// GetCode extracts the error code from a VerbexError.
// Returns empty string if not a VerbexError.
func GetCode(err error) string {
	if ve, ok := err.(*VerbexError); ok {
		return ve.Code
	}
	return ""
}

// GetCategory extracts the category from a VerbexError.
// Returns empty string if not a VerbexError.
func GetCategory(err error) Category {
	if ve, ok := err.(*VerbexError); ok {
		return ve.Category
	}
	return ""
}
