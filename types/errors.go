package types

import (
	"errors"
	"fmt"
)

// Standard error types
type ErrorType string

const (
	ErrTypeConfig           ErrorType = "CONFIG_ERROR"
	ErrTypeValidation       ErrorType = "VALIDATION_ERROR"
	ErrTypeInvalidValue     ErrorType = "INVALID_VALUE"
	ErrTypeDatabase         ErrorType = "DATABASE_ERROR"
	ErrTypeNetwork          ErrorType = "NETWORK_ERROR"
	ErrTypeInternal         ErrorType = "INTERNAL_ERROR"
	ErrTypeNotFound         ErrorType = "NOT_FOUND"
	ErrTypeBadRequest       ErrorType = "BAD_REQUEST"
	ErrTypeTimeout          ErrorType = "TIMEOUT"
	ErrTypeTraceUnavailable ErrorType = "TRACE_UNAVAILABLE"
	ErrTypeMalformedTrace   ErrorType = "MALFORMED_TRACE"
)

// StandardError provides consistent error formatting
type StandardError struct {
	Type    ErrorType
	Message string
	Details map[string]any
	Cause   error
}

func (e *StandardError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.Cause
}

// IsErrorType reports whether err is, or wraps, a StandardError of the
// given type.
func IsErrorType(err error, t ErrorType) bool {
	var se *StandardError
	return errors.As(err, &se) && se.Type == t
}

// Error constructors for common cases

func NewConfigError(msg string, cause error) error {
	return &StandardError{
		Type:    ErrTypeConfig,
		Message: msg,
		Cause:   cause,
	}
}

func NewValidationError(field, msg string) error {
	return &StandardError{
		Type:    ErrTypeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, msg),
		Details: map[string]any{"field": field},
	}
}

func NewInvalidValueError(field, value, msg string) error {
	return &StandardError{
		Type:    ErrTypeInvalidValue,
		Message: fmt.Sprintf("invalid value for %s: %s (%s)", field, value, msg),
		Details: map[string]any{"field": field, "value": value},
	}
}

func NewDatabaseError(operation string, cause error) error {
	return &StandardError{
		Type:    ErrTypeDatabase,
		Message: fmt.Sprintf("database %s failed", operation),
		Cause:   cause,
	}
}

func NewNetworkError(url string, cause error) error {
	return &StandardError{
		Type:    ErrTypeNetwork,
		Message: fmt.Sprintf("network request to %s failed", url),
		Details: map[string]any{"url": url},
		Cause:   cause,
	}
}

func NewNotFoundError(resource string) error {
	return &StandardError{
		Type:    ErrTypeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Details: map[string]any{"resource": resource},
	}
}

func NewBadRequestError(msg string) error {
	return &StandardError{
		Type:    ErrTypeBadRequest,
		Message: msg,
	}
}

func NewTimeoutError(operation string) error {
	return &StandardError{
		Type:    ErrTypeTimeout,
		Message: fmt.Sprintf("%s operation timed out", operation),
		Details: map[string]any{"operation": operation},
	}
}

func NewInternalError(msg string, cause error) error {
	return &StandardError{
		Type:    ErrTypeInternal,
		Message: msg,
		Cause:   cause,
	}
}

// NewTraceUnavailableError reports that the external collaborator could not
// produce a trace for the given transaction. Fatal for that extraction.
func NewTraceUnavailableError(txHash string, cause error) error {
	return &StandardError{
		Type:    ErrTypeTraceUnavailable,
		Message: fmt.Sprintf("trace unavailable for tx %s", txHash),
		Details: map[string]any{"tx_hash": txHash},
		Cause:   cause,
	}
}

// NewMalformedTraceError reports that a supplied trace violates the minimal
// frame shape the walker requires. Fatal; no partial output is produced.
func NewMalformedTraceError(msg string, cause error) error {
	return &StandardError{
		Type:    ErrTypeMalformedTrace,
		Message: msg,
		Cause:   cause,
	}
}
