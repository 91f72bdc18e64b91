package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for medqa errors.
type ErrorCode string

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
	CONFIG_NOT_FOUND         ErrorCode = "CONFIG_NOT_FOUND"
)

// Startup error codes. Any of these aborts initialization.
const (
	LEXICON_LOAD_FAILED ErrorCode = "LEXICON_LOAD_FAILED"
	LEXICON_EMPTY       ErrorCode = "LEXICON_EMPTY"
	TEMPLATE_INVALID    ErrorCode = "TEMPLATE_INVALID"
	INIT_FAILED         ErrorCode = "INIT_FAILED"
)

// Input error codes
const (
	INTENT_UNKNOWN   ErrorCode = "INTENT_UNKNOWN"
	CATEGORY_UNKNOWN ErrorCode = "CATEGORY_UNKNOWN"
	RELATION_UNKNOWN ErrorCode = "RELATION_UNKNOWN"
	INPUT_INVALID    ErrorCode = "INPUT_INVALID"
)

// Fallback classifier error codes
const (
	FALLBACK_FAILED ErrorCode = "FALLBACK_FAILED"
)

// Cache error codes
const (
	CACHE_UNAVAILABLE ErrorCode = "CACHE_UNAVAILABLE"
	CACHE_ENCODING    ErrorCode = "CACHE_ENCODING"
)

// Observability error codes
const (
	TRACING_INIT_FAILED ErrorCode = "TRACING_INIT_FAILED"
)

// Error represents a structured error with error code, message, and optional cause.
// It supports error wrapping and retryability hints for error handling logic.
type Error struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// NewError creates a new non-retryable Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// NewRetryableError creates a new retryable Error with the given code and message.
// Use this for transient errors that may succeed on retry (e.g., dropped connections).
func NewRetryableError(code ErrorCode, message string) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// WrapError creates a new non-retryable Error that wraps an existing error.
func WrapError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapRetryableError creates a new retryable Error that wraps an existing error.
func WrapRetryableError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Retryable: true,
		Cause:     cause,
	}
}

// IsRetryable reports whether any *Error in err's chain is marked retryable.
func IsRetryable(err error) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Retryable {
			return true
		}
		err = e.Cause
	}
	return false
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
