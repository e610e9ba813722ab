// Package errors provides standardized error handling for console actions.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Client-side, raised before any network call.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeRequestInFlight  ErrorCode = "REQUEST_IN_FLIGHT"
	ErrCodeStaleResponse    ErrorCode = "STALE_RESPONSE"
	ErrCodeConfigInvalid    ErrorCode = "CONFIG_INVALID"

	// Raised by the API gateway.
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrCodeApplicationError ErrorCode = "APPLICATION_ERROR"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeNetworkError     ErrorCode = "NETWORK_ERROR"
	ErrCodeDecodeFailed     ErrorCode = "DECODE_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// UserMessage is the single line shown to the operator.
func (e *StandardError) UserMessage() string {
	if e.Code == ErrCodeValidationFailed && e.Details != "" {
		return e.Details
	}
	if e.Code == ErrCodeApplicationError && e.Details != "" {
		return e.Details
	}
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationError creates a recoverable, client-side validation error
// pinned to a single field.
func NewValidationError(field, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Validation failed",
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"field": field},
		Timestamp: time.Now().UTC(),
	}
}

// NewUnauthorizedError is returned once the session has been torn down.
func NewUnauthorizedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnauthorized,
		Message:   "Your session has expired or you are not authorized. Please log in again.",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewApplicationError wraps a backend-reported failure.
func NewApplicationError(status int, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeApplicationError,
		Message:   "Request rejected by server",
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"status": status},
		Timestamp: time.Now().UTC(),
	}
}

// NewNotFoundError creates a non-retryable not found error.
func NewNotFoundError(resource, id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("%s not found", resource),
		Details:   fmt.Sprintf("id: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNetworkError creates a retryable transport error. Retries are manual.
func NewNetworkError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNetworkError,
		Message:   "Network error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewDecodeError creates a non-retryable response decoding error.
func NewDecodeError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDecodeFailed,
		Message:   "Unexpected response from server",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewRequestInFlightError is returned when a form already has a mutating
// request outstanding.
func NewRequestInFlightError(form string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRequestInFlight,
		Message:   "A request for this form is already in progress",
		Details:   fmt.Sprintf("form: %s", form),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStaleResponseError marks a response that arrived for a superseded session.
func NewStaleResponseError(resource string) *StandardError {
	return &StandardError{
		Code:      ErrCodeStaleResponse,
		Message:   "Response discarded",
		Details:   fmt.Sprintf("%s was reset while the request was pending", resource),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigInvalid,
		Message:   "Invalid configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// CodeOf returns the error code carried by err, or "" for nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	return Normalize(err).Code
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// FieldOf returns the offending field of a validation error.
func FieldOf(err error) string {
	var stdErr *StandardError
	if !stderrors.As(err, &stdErr) || stdErr.Metadata == nil {
		return ""
	}
	field, _ := stdErr.Metadata["field"].(string)
	return field
}

// IsRetryableErrorCode checks if an error code may be retried manually.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeNetworkError, ErrCodeRequestInFlight:
		return true
	default:
		return false
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeValidationFailed:
		return "VALIDATION"
	case ErrCodeUnauthorized:
		return "UNAUTHORIZED"
	case ErrCodeApplicationError, ErrCodeNotFound:
		return "APPLICATION"
	case ErrCodeNetworkError, ErrCodeDecodeFailed:
		return "TRANSPORT"
	case ErrCodeRequestInFlight, ErrCodeStaleResponse:
		return "CONCURRENCY"
	default:
		return "INTERNAL"
	}
}
