package errors

import "fmt"

// ErrorCode represents a draftkeep error code.
type ErrorCode string

const (
	ErrInvalidContext ErrorCode = "INVALID_CONTEXT" // caller passed a context key with no conversation id
	ErrNotFound       ErrorCode = "NOT_FOUND"       // no draft record for the given context key
	ErrStoreFailure   ErrorCode = "STORE_FAILURE"   // the persistent store rejected a read or write
	ErrTimeout        ErrorCode = "TIMEOUT"         // a cross-boundary editor call did not respond in its window
	ErrInternal       ErrorCode = "INTERNAL"        // unexpected failure
)

// DraftError represents a structured error with code, message, and details.
type DraftError struct {
	Code    ErrorCode
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *DraftError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidContext creates an error for a malformed context key.
func NewInvalidContext(msg string) *DraftError {
	return &DraftError{
		Code:    ErrInvalidContext,
		Message: msg,
	}
}

// NewNotFound creates an error for a missing draft record.
func NewNotFound(key string) *DraftError {
	return &DraftError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("draft not found: %s", key),
		Details: map[string]any{"context_key": key},
	}
}

// NewStoreFailure wraps a persistent store failure. Callers in the capture
// path log these and continue; only the CLI surfaces them.
func NewStoreFailure(err error) *DraftError {
	msg := "store failure"
	if err != nil {
		msg = err.Error()
	}
	return &DraftError{
		Code:    ErrStoreFailure,
		Message: msg,
	}
}

// NewTimeout creates an error for an editor-surface call that exceeded its window.
func NewTimeout(op string) *DraftError {
	return &DraftError{
		Code:    ErrTimeout,
		Message: fmt.Sprintf("editor call timed out: %s", op),
		Details: map[string]any{"op": op},
	}
}

// NewInternal creates an error for unexpected internal failures.
func NewInternal(err error) *DraftError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &DraftError{
		Code:    ErrInternal,
		Message: msg,
	}
}

// Is checks if an error is a DraftError with the given code.
func Is(err error, code ErrorCode) bool {
	if dErr, ok := err.(*DraftError); ok {
		return dErr.Code == code
	}
	return false
}
