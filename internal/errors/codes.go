// Package errors provides structured error handling for the Verbex engine.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Validation errors (bad caller input, bad configuration)
//   - 2XX: Not-found errors
//   - 3XX: Conflict errors (uniqueness violations)
//   - 4XX: Storage errors (I/O, lock contention, corruption)
//   - 5XX: Lifecycle errors (engine not open, already closed)
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryValidation indicates input or configuration validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryNotFound indicates a referenced entity does not exist.
	CategoryNotFound Category = "NOT_FOUND"
	// CategoryConflict indicates a uniqueness violation.
	CategoryConflict Category = "CONFLICT"
	// CategoryStorage indicates underlying storage I/O errors.
	CategoryStorage Category = "STORAGE"
	// CategoryLifecycle indicates operations against a closed or unopened engine.
	CategoryLifecycle Category = "LIFECYCLE"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but the engine can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Validation errors (100-199)
	ErrCodeInvalidInput      = "ERR_101_INVALID_INPUT"
	ErrCodeInvalidConfig     = "ERR_102_INVALID_CONFIG"
	ErrCodeTokenLengthBounds = "ERR_103_TOKEN_LENGTH_BOUNDS"
	ErrCodeEmptyContent      = "ERR_104_EMPTY_CONTENT"

	// Not-found errors (200-299)
	ErrCodeDocumentNotFound = "ERR_201_DOCUMENT_NOT_FOUND"
	ErrCodeTermNotFound     = "ERR_202_TERM_NOT_FOUND"
	ErrCodeIndexNotFound    = "ERR_203_INDEX_NOT_FOUND"

	// Conflict errors (300-399)
	ErrCodeDuplicateName = "ERR_301_DUPLICATE_NAME"
	ErrCodeDuplicateTerm = "ERR_302_DUPLICATE_TERM"
	ErrCodeDuplicateKey  = "ERR_303_DUPLICATE_KEY"

	// Storage errors (400-499)
	ErrCodeStorageIO      = "ERR_401_STORAGE_IO"
	ErrCodeStorageBusy    = "ERR_402_STORAGE_BUSY"
	ErrCodeCorruptIndex   = "ERR_403_CORRUPT_INDEX"
	ErrCodeFlushFailed    = "ERR_404_FLUSH_FAILED"
	ErrCodeIndexLocked    = "ERR_405_INDEX_LOCKED"

	// Lifecycle errors (500-599)
	ErrCodeNotOpen       = "ERR_501_NOT_OPEN"
	ErrCodeAlreadyClosed = "ERR_502_ALREADY_CLOSED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryStorage
	}

	switch code[4] {
	case '1':
		return CategoryValidation
	case '2':
		return CategoryNotFound
	case '3':
		return CategoryConflict
	case '4':
		return CategoryStorage
	case '5':
		return CategoryLifecycle
	default:
		return CategoryStorage
	}
}

// severityFromCode derives severity from error code.
// Corruption is fatal; everything else is a recoverable operation failure.
func severityFromCode(code string) Severity {
	if code == ErrCodeCorruptIndex {
		return SeverityFatal
	}
	return SeverityError
}

// isRetryableCode reports whether an operation failing with this code is
// safe to retry without caller-side correction.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeStorageBusy, ErrCodeIndexLocked:
		return true
	default:
		return false
	}
}
