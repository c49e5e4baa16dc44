package app

import (
	"errors"
	"fmt"
)

var (
	ErrTaskNotFound     = errors.New("app: task not found")
	ErrAmbiguousTask    = errors.New("app: task reference is ambiguous")
	ErrCategoryRequired = errors.New("app: choose a category")
	ErrUnknownCategory  = errors.New("app: unknown category")
	ErrSignedOut        = errors.New("app: not signed in")
)

type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindStore      ErrorKind = "store"
	KindNotify     ErrorKind = "notify"
)

// OpError is a failed step of a board operation. Store and notify
// failures leave the in-memory change in place.
type OpError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err contains an *OpError of the given kind,
// including inside joined errors.
func IsKind(err error, kind ErrorKind) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *OpError:
		return e.Kind == kind || IsKind(e.Err, kind)
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if IsKind(inner, kind) {
				return true
			}
		}
	case interface{ Unwrap() error }:
		return IsKind(e.Unwrap(), kind)
	}
	return false
}

func opErr(kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Kind: kind, Op: op, Err: err}
}
