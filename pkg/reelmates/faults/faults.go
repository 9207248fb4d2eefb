// Package faults defines the error kinds shared by all services. Services
// return these instead of transport errors; HTTP handlers translate kinds
// into status codes at the edge.
package faults

import (
	"errors"
	"fmt"
)

// Kind classifies a service error.
type Kind int

const (
	// KindUnknown is any error without an assigned kind.
	KindUnknown Kind = iota
	// KindValidation marks malformed input.
	KindValidation
	// KindNotFound marks a missing group, membership or user.
	KindNotFound
	// KindForbidden marks an actor lacking the required role or status.
	KindForbidden
	// KindConflict marks a uniqueness violation or a stale optimistic write.
	KindConflict
	// KindLimitExceeded marks an operation that would exceed group capacity.
	KindLimitExceeded
)

// String returns a short lowercase name for the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindLimitExceeded:
		return "limit_exceeded"
	}
	return "unknown"
}

// Error is a kinded error. Wrapped causes stay reachable via errors.Is/As.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind.
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Validation builds a KindValidation error.
func Validation(format string, args ...any) error {
	return New(KindValidation, format, args...)
}

// NotFound builds a KindNotFound error.
func NotFound(format string, args ...any) error {
	return New(KindNotFound, format, args...)
}

// Forbidden builds a KindForbidden error.
func Forbidden(format string, args ...any) error {
	return New(KindForbidden, format, args...)
}

// Conflict builds a KindConflict error.
func Conflict(format string, args ...any) error {
	return New(KindConflict, format, args...)
}

// LimitExceeded builds a KindLimitExceeded error.
func LimitExceeded(format string, args ...any) error {
	return New(KindLimitExceeded, format, args...)
}

// KindOf returns the kind of err, or KindUnknown for unclassified errors.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
