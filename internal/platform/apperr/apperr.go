// Package apperr defines the typed failures returned by the auth core. Each
// failure carries a Kind that the transport layer maps to a status code; the
// core never returns a bare error for an expected condition.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failure for the boundary layer.
type Kind int

const (
	// KindInternal covers store outages, hashing and signing failures.
	KindInternal Kind = iota
	// KindValidation covers missing or malformed input fields.
	KindValidation
	// KindUnauthorized covers bad credentials and invalid, expired or replayed tokens.
	KindUnauthorized
	// KindNotFound covers an identity that no longer exists.
	KindNotFound
	// KindConflict covers an identity that already exists.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// HTTPStatus returns the status class for the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a typed failure. Message is safe to show to clients; Err is the
// underlying cause and is only exposed outside production.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// New returns an Error with no underlying cause. Values returned by New are
// meant to be package-level sentinels compared with errors.Is.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Internal wraps cause as a KindInternal failure with a generic message. If
// cause is already an *Error it is returned unchanged so the original kind
// survives every layer.
func Internal(cause error) error {
	if cause == nil {
		return nil
	}
	var e *Error
	if errors.As(cause, &e) {
		return cause
	}
	return &Error{Kind: KindInternal, Message: "internal server error", Err: cause}
}

// Validation returns a KindValidation failure with message.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus returns the status class of the failure.
func (e *Error) HTTPStatus() int { return e.Kind.HTTPStatus() }

// KindOf returns the Kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As returns err as an *Error, wrapping unknown errors with Internal.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindInternal, Message: "internal server error", Err: err}
}
