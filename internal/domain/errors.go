package domain

import "errors"

// Error kinds. Callers match with errors.Is; the transport layer maps each
// kind to one HTTP status.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrPrecondition = errors.New("precondition failed")
	ErrConflict     = errors.New("conflict")
)

// Error is a kind plus a message that is safe to show to the caller.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.Error()
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func E(kind error, msg string) error { return &Error{Kind: kind, Msg: msg} }

func Invalid(msg string) error      { return E(ErrInvalidInput, msg) }
func NotFound(msg string) error     { return E(ErrNotFound, msg) }
func Precondition(msg string) error { return E(ErrPrecondition, msg) }
func Conflict(msg string) error     { return E(ErrConflict, msg) }
func Forbidden(msg string) error    { return E(ErrForbidden, msg) }
func Unauthorized(msg string) error { return E(ErrUnauthorized, msg) }
