package types

import (
	"errors"
	"fmt"
)

// ErrorCode is a namespaced error code for engine errors.
type ErrorCode string

// Resolution error codes. These map one-to-one onto the failure modes the
// resolver distinguishes: everything except DIRECTORY_UNAVAILABLE is
// swallowed at the strategy boundary and surfaced as a logged warning plus
// an empty or partial result.
const (
	UNKNOWN_SPEC_TYPE     ErrorCode = "UNKNOWN_SPEC_TYPE"
	MISSING_CONTEXT_FIELD ErrorCode = "MISSING_CONTEXT_FIELD"
	DIRECTORY_READ_FAILED ErrorCode = "DIRECTORY_READ_FAILED"
	DIRECTORY_UNAVAILABLE ErrorCode = "DIRECTORY_UNAVAILABLE"
	CYCLE_DETECTED        ErrorCode = "CYCLE_DETECTED"
	INVALID_FIELD_PATH    ErrorCode = "INVALID_FIELD_PATH"
)

// Configuration and storage error codes used by the ambient modules.
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
	DB_OPEN_FAILED           ErrorCode = "DB_OPEN_FAILED"
	DB_QUERY_FAILED          ErrorCode = "DB_QUERY_FAILED"
	SNAPSHOT_LOAD_FAILED     ErrorCode = "SNAPSHOT_LOAD_FAILED"
)

// EngineError is a structured error with a code, message, and optional
// cause. Retryable marks transient failures (a directory that may come
// back) as opposed to data or configuration problems.
type EngineError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error formats as "[CODE] message" or "[CODE] message: cause".
func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/errors.As chains.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// Is matches EngineErrors by code.
func (e *EngineError) Is(target error) bool {
	var engineErr *EngineError
	if errors.As(target, &engineErr) {
		return e.Code == engineErr.Code
	}
	return false
}

// NewError creates a non-retryable EngineError.
func NewError(code ErrorCode, message string) *EngineError {
	return &EngineError{Code: code, Message: message}
}

// NewRetryableError creates a retryable EngineError for transient failures.
func NewRetryableError(code ErrorCode, message string) *EngineError {
	return &EngineError{Code: code, Message: message, Retryable: true}
}

// WrapError creates a non-retryable EngineError wrapping a cause.
func WrapError(code ErrorCode, message string, cause error) *EngineError {
	return &EngineError{Code: code, Message: message, Cause: cause}
}

// WrapRetryableError creates a retryable EngineError wrapping a cause.
func WrapRetryableError(code ErrorCode, message string, cause error) *EngineError {
	return &EngineError{Code: code, Message: message, Retryable: true, Cause: cause}
}

// IsCode reports whether err carries the given engine error code anywhere
// in its chain.
func IsCode(err error, code ErrorCode) bool {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Code == code
	}
	return false
}
