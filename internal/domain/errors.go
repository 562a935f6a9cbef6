package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an error so transports can map it to a status code
type Kind string

const (
	KindValidation     Kind = "validation_error"
	KindAuthentication Kind = "authentication_error"
	KindAuthorization  Kind = "authorization_error"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindInvalidState   Kind = "invalid_state"
	KindServer         Kind = "server_error"
)

// Error is the error type returned by services and repositories
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the bare per-kind sentinels below, so errors.Is(err, ErrNotFound)
// holds for every not-found error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrValidation     = &Error{Kind: KindValidation}
	ErrAuthentication = &Error{Kind: KindAuthentication}
	ErrAuthorization  = &Error{Kind: KindAuthorization}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrConflict       = &Error{Kind: KindConflict}
	ErrInvalidState   = &Error{Kind: KindInvalidState}
	ErrServer         = &Error{Kind: KindServer}
)

// ErrHouseNotAvailable is returned when a house is already rented
var ErrHouseNotAvailable = &Error{Kind: KindInvalidState, Message: "house is not available"}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validation reports input the caller can fix
func Validation(format string, args ...any) error {
	return newError(KindValidation, format, args...)
}

// Unauthenticated reports a missing or invalid credential
func Unauthenticated(format string, args ...any) error {
	return newError(KindAuthentication, format, args...)
}

// Forbidden reports an authenticated actor lacking permission
func Forbidden(format string, args ...any) error {
	return newError(KindAuthorization, format, args...)
}

// Conflict reports a clash with existing state, such as a duplicate pending request
func Conflict(format string, args ...any) error {
	return newError(KindConflict, format, args...)
}

// InvalidState reports an operation the current status does not allow
func InvalidState(format string, args ...any) error {
	return newError(KindInvalidState, format, args...)
}

// NotFound reports a missing entity, e.g. NotFound("house")
func NotFound(entity string) error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

// Internal wraps a persistence or invariant failure
func Internal(message string, err error) error {
	return &Error{Kind: KindServer, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindServer
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindServer
}
