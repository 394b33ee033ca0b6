package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Configuration errors
	ErrConfigLoad ErrorCode = "CONFIG_LOAD"
	ErrConfigSave ErrorCode = "CONFIG_SAVE"

	// Source directory / baseline errors
	ErrBaselineMissing ErrorCode = "BASELINE_MISSING"
	ErrSourceDirAccess ErrorCode = "SOURCE_DIR_ACCESS"

	// Container errors
	ErrPakRead       ErrorCode = "PAK_READ"
	ErrPakWrite      ErrorCode = "PAK_WRITE"
	ErrArchiveRead   ErrorCode = "ARCHIVE_READ"
	ErrArchiveFormat ErrorCode = "ARCHIVE_FORMAT"

	// Merge errors
	ErrResolverAborted ErrorCode = "RESOLVER_ABORTED"
	ErrMergeCancelled  ErrorCode = "MERGE_CANCELLED"

	// Output errors
	ErrOutputStage   ErrorCode = "OUTPUT_STAGE"
	ErrOutputPromote ErrorCode = "OUTPUT_PROMOTE"
)

// UnleashError represents a structured error with code and details
type UnleashError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *UnleashError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *UnleashError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *UnleashError) Is(target error) bool {
	var targetErr *UnleashError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new UnleashError with the given code and message
func New(code ErrorCode, message string) *UnleashError {
	return &UnleashError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new UnleashError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *UnleashError {
	return &UnleashError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with an UnleashError
func Wrap(err error, code ErrorCode, message string) *UnleashError {
	if err == nil {
		return nil
	}
	return &UnleashError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *UnleashError {
	if err == nil {
		return nil
	}
	return &UnleashError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *UnleashError) WithDetail(key string, value interface{}) *UnleashError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var uerr *UnleashError
	if errors.As(err, &uerr) {
		return uerr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not an UnleashError
func GetErrorCode(err error) ErrorCode {
	var uerr *UnleashError
	if errors.As(err, &uerr) {
		return uerr.Code
	}
	return ErrUnknown
}
