// Package apperr classifies errors returned to HTTP clients.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Type is the category of an error.
type Type string

const (
	TypeNotFound    Type = "not_found"
	TypeValidation  Type = "validation"
	TypeConflict    Type = "conflict"
	TypeRateLimited Type = "rate_limited"
	TypeExternal    Type = "external"
	TypeInternal    Type = "internal"
)

// AppError carries a category and a client-facing message.
type AppError struct {
	Type    Type
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFoundf creates a not found error with formatting.
func NotFoundf(format string, args ...any) error {
	return &AppError{Type: TypeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validationf creates a validation error with formatting.
func Validationf(format string, args ...any) error {
	return &AppError{Type: TypeValidation, Message: fmt.Sprintf(format, args...)}
}

// WrapValidation wraps an error as a validation error.
func WrapValidation(message string, err error) error {
	return &AppError{Type: TypeValidation, Message: message, Err: err}
}

// WrapConflict wraps an error as a conflict error.
func WrapConflict(message string, err error) error {
	return &AppError{Type: TypeConflict, Message: message, Err: err}
}

// RateLimited creates a rate limit error.
func RateLimited(message string) error {
	return &AppError{Type: TypeRateLimited, Message: message}
}

// WrapExternal wraps a failure of a backing service.
func WrapExternal(message string, err error) error {
	return &AppError{Type: TypeExternal, Message: message, Err: err}
}

// WrapInternal wraps an error as an internal error.
func WrapInternal(message string, err error) error {
	return &AppError{Type: TypeInternal, Message: message, Err: err}
}

// TypeOf returns the category of err. Unclassified errors are internal.
func TypeOf(err error) Type {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return TypeInternal
}

// StatusCode maps an error category to an HTTP status.
func StatusCode(t Type) int {
	switch t {
	case TypeNotFound:
		return http.StatusNotFound
	case TypeValidation:
		return http.StatusBadRequest
	case TypeConflict:
		return http.StatusConflict
	case TypeRateLimited:
		return http.StatusTooManyRequests
	case TypeExternal:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
