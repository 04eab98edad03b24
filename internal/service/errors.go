package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure; handlers map it to an HTTP status.
type Kind int

const (
	KindServer Kind = iota
	KindValidation
	KindAuth
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "server"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

func ValidationError(msg string) error { return newError(KindValidation, msg) }
func AuthError(msg string) error       { return newError(KindAuth, msg) }
func ForbiddenError(msg string) error  { return newError(KindForbidden, msg) }
func NotFoundError(msg string) error   { return newError(KindNotFound, msg) }
func ConflictError(msg string) error   { return newError(KindConflict, msg) }

// ServerError wraps an unexpected failure. The message is safe to show clients.
func ServerError(msg string, err error) error {
	return &Error{Kind: KindServer, Message: msg, Err: err}
}

// KindOf reports the kind of err; errors that are not *Error are server errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindServer
}

// MessageOf returns the client-facing message of err.
func MessageOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Message
	}
	return "Internal server error"
}
