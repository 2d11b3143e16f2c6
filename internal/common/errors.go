package common

import (
	"errors"
	"net/http"
)

// Error codes used across the gateway. Each maps to one branch of the
// error taxonomy: validation, configuration, upstream, signature, payload.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeNotConfigured    = "NOT_CONFIGURED"
	CodeUpstream         = "UPSTREAM_ERROR"
	CodeInvalidSignature = "INVALID_SIGNATURE"
	CodeMalformedPayload = "MALFORMED_PAYLOAD"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// ValidationError builds the terminal error for inbound payloads that fail
// schema constraints. Details carries human-readable messages, one per failed
// constraint.
func ValidationError(details []string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    "Validation failed",
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// ConfigurationError signals a missing or placeholder server secret. This is
// a deployment fault but is detected per request so the process keeps serving.
func ConfigurationError(message string) *AppError {
	return &AppError{
		Code:       CodeNotConfigured,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}
