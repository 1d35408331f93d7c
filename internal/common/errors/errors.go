// Package errors provides application-level error types with HTTP status
// mapping used by all API handlers.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a category of application error.
type ErrorCode string

const (
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeInvalidInput  ErrorCode = "INVALID_INPUT"
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
	CodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	CodeForbidden     ErrorCode = "FORBIDDEN"
	CodeInternal      ErrorCode = "INTERNAL"
	CodeUnavailable   ErrorCode = "UNAVAILABLE"
	CodeConflict      ErrorCode = "CONFLICT"
)

// AppError is an application error with an error code, human-readable message
// and an optional wrapped cause.
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a not-found error.
func NotFound(format string, args ...any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf(format, args...),
		HTTPStatus: http.StatusNotFound,
	}
}

// InvalidInput creates a validation error.
func InvalidInput(format string, args ...any) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    fmt.Sprintf(format, args...),
		HTTPStatus: http.StatusBadRequest,
	}
}

// AlreadyExists creates a duplicate-resource error.
func AlreadyExists(format string, args ...any) *AppError {
	return &AppError{
		Code:       CodeAlreadyExists,
		Message:    fmt.Sprintf(format, args...),
		HTTPStatus: http.StatusConflict,
	}
}

// Unauthorized creates an authentication error.
func Unauthorized(format string, args ...any) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    fmt.Sprintf(format, args...),
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Forbidden creates an authorization error.
func Forbidden(format string, args ...any) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    fmt.Sprintf(format, args...),
		HTTPStatus: http.StatusForbidden,
	}
}

// Conflict creates a state-conflict error.
func Conflict(format string, args ...any) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    fmt.Sprintf(format, args...),
		HTTPStatus: http.StatusConflict,
	}
}

// Internal creates an internal server error wrapping a cause.
func Internal(err error, format string, args ...any) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    fmt.Sprintf(format, args...),
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// Unavailable creates a service-unavailable error wrapping a cause.
func Unavailable(err error, format string, args ...any) *AppError {
	return &AppError{
		Code:       CodeUnavailable,
		Message:    fmt.Sprintf(format, args...),
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// AsAppError extracts an *AppError from err, or wraps it as an internal error.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err, "internal error")
}

// IsNotFound reports whether err is a not-found application error.
func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == CodeNotFound
}

// IsInvalidInput reports whether err is a validation application error.
func IsInvalidInput(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == CodeInvalidInput
}
