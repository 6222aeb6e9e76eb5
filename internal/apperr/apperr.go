// Package apperr defines the coded errors shared by services, stores and the HTTP layer.
//
// Services return *Error values; handlers translate them with Kind.HTTPStatus.
// errors.Is matches two *Error values when their kinds are equal, so a
// package sentinel such as book.ErrNotFound matches any NOT_FOUND error.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the stable, machine-readable error category.
type Kind string

const (
	KindValidation        Kind = "VALIDATION_ERROR"
	KindNotFound          Kind = "NOT_FOUND"
	KindConflict          Kind = "CONFLICT"
	KindDependencyFailure Kind = "DEPENDENCY_FAILURE"
	KindUnauthorized      Kind = "UNAUTHORIZED"
	KindInternal          Kind = "INTERNAL_ERROR"
)

// HTTPStatus returns the status code a handler should answer with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindDependencyFailure:
		return http.StatusBadGateway
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error carrying a kind, a client-safe message and optional details.
type Error struct {
	Kind    Kind
	Message string
	Details any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// WithCause returns a copy of e wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Details: e.Details, cause: err}
}

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Details: details, cause: e.cause}
}

func Validation(msg string) *Error        { return &Error{Kind: KindValidation, Message: msg} }
func NotFound(msg string) *Error          { return &Error{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) *Error          { return &Error{Kind: KindConflict, Message: msg} }
func DependencyFailure(msg string) *Error { return &Error{Kind: KindDependencyFailure, Message: msg} }
func Unauthorized(msg string) *Error      { return &Error{Kind: KindUnauthorized, Message: msg} }
func Internal(msg string) *Error          { return &Error{Kind: KindInternal, Message: msg} }

// Sentinels for errors.Is checks that only care about the kind.
var (
	ErrValidation        = Validation("validation failed")
	ErrNotFound          = NotFound("not found")
	ErrConflict          = Conflict("conflict")
	ErrDependencyFailure = DependencyFailure("dependency failure")
	ErrUnauthorized      = Unauthorized("unauthorized")
	ErrInternal          = Internal("internal error")
)

// KindOf returns the kind of err, or KindInternal for errors that are not *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// From returns err as an *Error, wrapping unknown errors as internal with msg.
func From(err error, msg string) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(msg).WithCause(err)
}
