// Package apperr defines the error kinds that cross package boundaries.
// Services wrap failures with a Kind; the HTTP layer maps kinds to status
// codes without inspecting messages.
package apperr

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	Unknown Kind = iota
	InvalidToken
	Unauthenticated
	DuplicateVote
	NotFound
	Conflict
	Invalid
	Internal
)

func (k Kind) String() string {
	switch k {
	case Unknown:
		return "Unknown"
	case InvalidToken:
		return "InvalidToken"
	case Unauthenticated:
		return "Unauthenticated"
	case DuplicateVote:
		return "DuplicateVote"
	case NotFound:
		return "NotFound"
	case Conflict:
		return "Conflict"
	case Invalid:
		return "Invalid"
	case Internal:
		return "Internal"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Error carries the operation that failed, its kind and the cause.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

// E wraps err. A nil err yields nil so call sites can wrap unconditionally.
func E(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op
	}
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the outermost *Error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err carries kind k.
func Is(err error, k Kind) bool { return err != nil && KindOf(err) == k }

// Message returns the innermost cause text, suitable for API responses.
func Message(err error) string {
	var e *Error
	for errors.As(err, &e) {
		if e.Err == nil {
			return e.Op
		}
		err = e.Err
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
