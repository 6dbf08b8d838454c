package errors

import (
	"errors"
	"net/http"
)

// ErrorType classifies an AppError so the REST layer can pick a status code
type ErrorType string

const (
	NotFound            ErrorType = "NotFound"
	ValidationError     ErrorType = "ValidationError"
	MalformedRequest    ErrorType = "MalformedRequest"
	NotAuthenticated    ErrorType = "NotAuthenticated"
	ProviderUnavailable ErrorType = "ProviderUnavailable"
	NotImplemented      ErrorType = "NotImplemented"
	UnknownError        ErrorType = "UnknownError"
)

var defaultMessages = map[ErrorType]string{
	NotFound:            "record not found",
	ValidationError:     "validation error",
	MalformedRequest:    "invalid request body",
	NotAuthenticated:    "not authenticated",
	ProviderUnavailable: "delivery provider unavailable",
	NotImplemented:      "not implemented",
	UnknownError:        "something went wrong",
}

// AppError is the error type shared between use cases, repositories and controllers
type AppError struct {
	Err  error
	Type ErrorType
}

// NewAppError wraps err with the given type
func NewAppError(err error, errType ErrorType) *AppError {
	return &AppError{
		Err:  err,
		Type: errType,
	}
}

// NewAppErrorWithType builds an AppError carrying the default message of its type
func NewAppErrorWithType(errType ErrorType) *AppError {
	msg, ok := defaultMessages[errType]
	if !ok {
		msg = defaultMessages[UnknownError]
	}
	return &AppError{
		Err:  errors.New(msg),
		Type: errType,
	}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return defaultMessages[e.Type]
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// IsType reports whether err is an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// AppErrorToHTTP maps an error to a status code and a client-facing message
func AppErrorToHTTP(err error) (int, string) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, defaultMessages[UnknownError]
	}
	switch appErr.Type {
	case NotFound:
		return http.StatusNotFound, appErr.Error()
	case ValidationError:
		return http.StatusBadRequest, appErr.Error()
	case NotAuthenticated:
		return http.StatusUnauthorized, appErr.Error()
	case NotImplemented:
		return http.StatusNotImplemented, appErr.Error()
	case ProviderUnavailable, MalformedRequest:
		return http.StatusInternalServerError, appErr.Error()
	default:
		return http.StatusInternalServerError, appErr.Error()
	}
}
