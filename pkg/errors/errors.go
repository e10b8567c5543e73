package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a class of application error
type ErrorCode string

const (
	ErrValidation       ErrorCode = "VALIDATION_ERROR"
	ErrNotFound         ErrorCode = "NOT_FOUND"
	ErrConflict         ErrorCode = "CONFLICT"
	ErrStateConflict    ErrorCode = "STATE_CONFLICT"
	ErrAuthRequired     ErrorCode = "AUTH_REQUIRED"
	ErrAuthInvalid      ErrorCode = "AUTH_INVALID"
	ErrPermissionDenied ErrorCode = "PERMISSION_DENIED"
	ErrForbidden        ErrorCode = "FORBIDDEN"
	ErrInternal         ErrorCode = "INTERNAL"
)

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
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

// HTTPStatus maps the error code to an HTTP status code
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrConflict, ErrStateConflict:
		return http.StatusConflict
	case ErrAuthRequired, ErrAuthInvalid:
		return http.StatusUnauthorized
	case ErrPermissionDenied, ErrForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// AsAppError returns the AppError wrapped anywhere in err's chain, or nil.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// Error constructors
func Validation(message string) *AppError {
	return &AppError{Code: ErrValidation, Message: message}
}

func NotFound(resource string) *AppError {
	return &AppError{Code: ErrNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

func Conflict(message string) *AppError {
	return &AppError{Code: ErrConflict, Message: message}
}

func StateConflict(message string) *AppError {
	return &AppError{Code: ErrStateConflict, Message: message}
}

func AuthRequired(message string) *AppError {
	return &AppError{Code: ErrAuthRequired, Message: message}
}

func AuthInvalid(err error) *AppError {
	return &AppError{Code: ErrAuthInvalid, Message: "invalid or expired token", Err: err}
}

func PermissionDenied(message string) *AppError {
	return &AppError{Code: ErrPermissionDenied, Message: message}
}

func Forbidden(message string) *AppError {
	return &AppError{Code: ErrForbidden, Message: message}
}

func Internal(err error) *AppError {
	return &AppError{Code: ErrInternal, Message: "internal server error", Err: err}
}
