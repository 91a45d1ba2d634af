// Package apperr provides typed errors that the HTTP layer maps to status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind represents the category of error.
type Kind int

const (
	// KindUnknown is the default error kind when none is specified.
	KindUnknown Kind = iota
	// KindValidation indicates caller-correctable input.
	KindValidation
	// KindProvider indicates an upstream provider rejected or failed the request.
	KindProvider
	// KindConfiguration indicates the server is missing required setup, such as an API key.
	KindConfiguration
	// KindInternal indicates an unexpected internal error.
	KindInternal
)

// Error is a domain error with a typed Kind for HTTP mapping.
type Error struct {
	Kind    Kind
	Message string
	Op      string // Operation that failed (optional)
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code for this error kind.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindProvider:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WithOp sets the operation on the error and returns it.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// New creates a new domain error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation creates a validation error.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// Validationf creates a validation error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

// Provider creates an upstream provider error carrying a caller-safe reason.
func Provider(message string) *Error {
	return New(KindProvider, message)
}

// Configuration wraps err as a configuration error.
func Configuration(message string, err error) *Error {
	return Wrap(KindConfiguration, message, err)
}

// Internal wraps err as an unexpected internal error.
func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}

// As extracts an *Error from the chain of err.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// GetKind extracts the error kind from an error.
// Returns KindUnknown if no *Error is found in the chain.
func GetKind(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindUnknown
}

// Is checks if err carries an *Error with the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
