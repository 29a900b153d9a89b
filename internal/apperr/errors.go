// Package apperr defines the error taxonomy shared by repositories, the
// intake service and the HTTP handlers. Every error that leaves a handler is
// classified into exactly one Kind, and the Kind alone decides the HTTP status.
package apperr

import (
	"context"
	"errors"
	"net/http"
)

// Kind classifies an error by who can fix it.
type Kind uint8

const (
	// KindStorage is the zero value so unclassified errors are treated as faults.
	KindStorage Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindVerification
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindVerification:
		return "verification"
	default:
		return "storage"
	}
}

// HTTPStatus maps a kind to the response status code. Conflicts are reported
// as 400 like other client-correctable input problems.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindConflict, KindVerification:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a kind, a human-readable message safe to show to clients and
// an optional underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an error of the given kind without a cause. It is used for
// package-level sentinels.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap attaches a kind and client message to err.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Validation(msg string) *Error   { return New(KindValidation, msg) }
func Conflict(msg string) *Error     { return New(KindConflict, msg) }
func NotFound(msg string) *Error     { return New(KindNotFound, msg) }
func Verification(msg string) *Error { return New(KindVerification, msg) }

// Storage wraps an unexpected store error. Deadline and cancellation errors end
// up here too.
func Storage(err error) *Error {
	return Wrap(KindStorage, "internal error", err)
}

// KindOf returns the kind of the outermost *Error in err's chain, or
// KindStorage when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

// PublicMessage returns the text that may be sent to a client. Storage
// faults never expose their cause.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindStorage {
		return e.Message
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out, please try again later"
	}
	return "something went wrong, please try again later"
}
