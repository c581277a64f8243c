// Package errx provides the error kinds shared by the link store, the
// resolution engine and the HTTP layer. A kind says what went wrong from the
// caller's point of view; the wrapped error keeps the detail for the logs.
package errx

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	Unknown Kind = iota
	// NotFound covers both missing and expired links.
	NotFound
	Invalid
	Unauthorized
	// Unavailable is any failure of an external collaborator (record store,
	// object storage).
	Unavailable
	Internal
)

var kindNames = [...]string{
	Unknown:      "Unknown",
	NotFound:     "NotFound",
	Invalid:      "Invalid",
	Unauthorized: "Unauthorized",
	Unavailable:  "Unavailable",
	Internal:     "Internal",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Error is a classified failure raised by operation Op.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

// E classifies err. A nil err stays nil so call sites can wrap
// unconditionally.
func E(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// Errorf builds a classified error from a message.
func Errorf(op string, kind Kind, format string, args ...any) error {
	return &Error{Op: op, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Wrap re-labels err under op while keeping its kind. It is the usual way a
// layer passes an error up without reclassifying it.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return E(op, KindOf(err), err)
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return e.Op
	case e.Op == "":
		return e.Err.Error()
	default:
		return e.Op + ": " + e.Err.Error()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the outermost *Error in the chain.
func KindOf(err error) Kind {
	if e, ok := as(err); ok {
		return e.Kind
	}
	return Unknown
}

// OpOf returns the op of the outermost *Error in the chain.
func OpOf(err error) string {
	if e, ok := as(err); ok {
		return e.Op
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func as(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
