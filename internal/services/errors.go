package services

import (
	"errors"
	"fmt"

	"medimart/internal/repos"
)

// Error kinds. Handlers map them to HTTP status codes with errors.Is.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotProvisioned  = errors.New("user not found in database")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrUpstream        = errors.New("upstream failure")
)

// Error carries a client-facing message alongside its kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func fail(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Message returns the client-facing text of err, or fallback.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return fallback
}

// notFoundAs turns a repo miss into a NotFound error named after what.
func notFoundAs(err error, what string) error {
	if errors.Is(err, repos.ErrNotFound) {
		return fail(ErrNotFound, "%s not found", what)
	}
	return err
}

func checkID(id, what string) error {
	if !repos.ValidID(id) {
		return fail(ErrNotFound, "%s not found", what)
	}
	return nil
}
