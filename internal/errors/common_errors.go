package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeAuth       ErrorType = "AUTH"
	ErrTypeFetch      ErrorType = "FETCH"
	ErrTypeNoData     ErrorType = "NO_DATA"
	ErrTypeMalformed  ErrorType = "MALFORMED_RESPONSE"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeStorage    ErrorType = "STORAGE"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}

	// Retryable marks transient fetch failures the caller may retry
	// by re-running the whole invocation. Only meaningful for
	// ErrTypeFetch.
	Retryable bool
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Helper constructors for the error kinds the pipeline produces

// NewAuthError marks invalid, missing or expired credentials. Fatal to
// the invocation; the caller should prompt for re-authentication.
func NewAuthError(message string, cause error) *AppError {
	return NewAppError(ErrTypeAuth, message, cause)
}

// NewFetchError marks a transport or provider-side failure.
func NewFetchError(message string, cause error, retryable bool) *AppError {
	err := NewAppError(ErrTypeFetch, message, cause)
	err.Retryable = retryable
	return err
}

// NewNoDataError marks an empty-but-valid result: zero reports in the
// requested range. Callers render this as an informational empty state,
// not a failure.
func NewNoDataError(message string) *AppError {
	return NewAppError(ErrTypeNoData, message, nil)
}

// NewMalformedResponseError marks an unexpected provider response shape.
// Fatal, since it usually means the provider contract changed upstream.
func NewMalformedResponseError(message string, cause error) *AppError {
	return NewAppError(ErrTypeMalformed, message, cause)
}

// NewValidationError marks rejected caller input.
func NewValidationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeValidation, message, cause)
}

// NewConfigError marks broken or missing configuration.
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewStorageError marks a local filesystem failure (report output,
// boss registry persistence).
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// Classification helpers for caller dispatch

// TypeOf extracts the AppError type from an error chain, or "" when the
// chain carries no AppError.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsAuth reports whether the error chain contains an auth failure.
func IsAuth(err error) bool {
	return TypeOf(err) == ErrTypeAuth
}

// IsNoData reports whether the error chain is the valid empty-result state.
func IsNoData(err error) bool {
	return TypeOf(err) == ErrTypeNoData
}

// IsMalformed reports whether the error chain contains a provider
// contract violation.
func IsMalformed(err error) bool {
	return TypeOf(err) == ErrTypeMalformed
}

// IsRetryable reports whether the error chain contains a fetch failure
// worth retrying.
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrTypeFetch && appErr.Retryable
	}
	return false
}
