// Package errors defines the application error taxonomy shared by the
// scoring engine, the community workflow and the transports.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies an AppError
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypePermission   ErrorType = "permission"
	ErrorTypeInternal     ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// StatusCode maps the error type onto an HTTP status
func (e *AppError) StatusCode() int {
	switch e.Type {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeConflict:
		return http.StatusConflict
	case ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case ErrorTypePermission:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func NewValidationError(code, message string) *AppError {
	return &AppError{Type: ErrorTypeValidation, Code: code, Message: message}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Code:    "RESOURCE_NOT_FOUND",
		Message: fmt.Sprintf("%s not found", resource),
	}
}

func NewConflictError(code, message string) *AppError {
	return &AppError{Type: ErrorTypeConflict, Code: code, Message: message}
}

// NewUnauthorizedError reports a request that carries no usable identity
func NewUnauthorizedError(message string) *AppError {
	return &AppError{Type: ErrorTypeUnauthorized, Code: "UNAUTHENTICATED", Message: message}
}

func NewPermissionError(message string) *AppError {
	return &AppError{Type: ErrorTypePermission, Code: "PERMISSION_DENIED", Message: message}
}

func NewInternalError(message string) *AppError {
	return &AppError{Type: ErrorTypeInternal, Code: "INTERNAL_ERROR", Message: message}
}

// IsType checks if an error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

func IsValidation(err error) bool   { return IsType(err, ErrorTypeValidation) }
func IsNotFound(err error) bool     { return IsType(err, ErrorTypeNotFound) }
func IsConflict(err error) bool     { return IsType(err, ErrorTypeConflict) }
func IsUnauthorized(err error) bool { return IsType(err, ErrorTypeUnauthorized) }
func IsPermission(err error) bool   { return IsType(err, ErrorTypePermission) }

// As extracts the AppError from a chain, if present
func As(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}
