package shared

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies every failure the data layer can return.
type ErrorKind string

const (
	KindNotFound            ErrorKind = "NOT_FOUND"
	KindInvalidInput        ErrorKind = "INVALID_INPUT"
	KindConstraintViolation ErrorKind = "CONSTRAINT_VIOLATION"
	KindStorageUnavailable  ErrorKind = "STORAGE_UNAVAILABLE"
	KindInternal            ErrorKind = "INTERNAL_ERROR"
)

type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewNotFoundError(err error, message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message, Err: err}
}

func NewBadRequestError(err error, message string) *AppError {
	return &AppError{Kind: KindInvalidInput, Message: message, Err: err}
}

func NewConflictError(err error, message string) *AppError {
	return &AppError{Kind: KindConstraintViolation, Message: message, Err: err}
}

func NewStorageError(err error, message string) *AppError {
	return &AppError{Kind: KindStorageUnavailable, Message: message, Err: err}
}

// KindOf extracts the error kind, defaulting to INTERNAL_ERROR for
// anything that did not come through the taxonomy.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// StatusCode maps an error kind onto the HTTP status the local API
// reports to the UI shell.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindConstraintViolation:
		return http.StatusConflict
	case KindStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
