// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation is returned for missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials is returned when login credentials do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated is returned when no valid session token is present.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when an authenticated caller is not permitted.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when a user or lecture does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned for duplicate usernames or emails.
	ErrConflict = errors.New("conflict")
	// ErrStoreFailure is returned when the database or object storage fails.
	ErrStoreFailure = errors.New("store failure")
)

// Error pairs a taxonomy kind with a client-facing message and an optional cause.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// New creates an Error of the given kind.
func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error of the given kind caused by err.
func Wrap(kind error, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Cause: err}
}

// Validation is shorthand for New(ErrValidation, message).
func Validation(message string) *Error {
	return New(ErrValidation, message)
}

// StoreFailure is shorthand for Wrap(ErrStoreFailure, message, err).
func StoreFailure(message string, err error) *Error {
	return Wrap(ErrStoreFailure, message, err)
}

// HTTPStatus maps an error to its response status code.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing message for err.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	switch HTTPStatus(err) {
	case http.StatusBadRequest:
		return "Invalid request"
	case http.StatusUnauthorized:
		return "Unauthorized"
	case http.StatusForbidden:
		return "Forbidden"
	case http.StatusNotFound:
		return "Not found"
	default:
		return "Server error"
	}
}
