// Package rterr defines the runtime error taxonomy. Every error produced by
// the scheduler carries a stable Kind and a human readable message, and
// wraps its cause so callers can use errors.Is and errors.As.
//
// Matching works against the package sentinels:
//
//	if errors.Is(err, rterr.ErrInvalidRange) { ... }
//
// A sentinel matches any error of the same kind; sentinels that also carry a
// code (ErrAccessorOutsideCommandGroup, ErrDestroyed) only match errors with
// that code.
package rterr

import (
	"errors"
	"fmt"
)

// Kind classifies an error. Kinds are stable and safe to switch on.
type Kind int

const (
	// KindRuntime covers submission failures not attributable to an accessor.
	KindRuntime Kind = iota + 1
	// KindAccessor covers accessor contract violations.
	KindAccessor
	// KindRange covers invalid offsets, ranges and dimensions.
	KindRange
	// KindEvent covers misuse of events and waits.
	KindEvent
	// KindAllocation covers allocator failures.
	KindAllocation
	// KindDevice covers backend faults, including kernel build failures.
	KindDevice
	// KindExecution covers payload errors and panics captured on an event.
	KindExecution
	// KindDependency marks a command failed because a predecessor failed.
	KindDependency
)

var kindNames = map[Kind]string{
	KindRuntime:    "runtime",
	KindAccessor:   "accessor",
	KindRange:      "range",
	KindEvent:      "event",
	KindAllocation: "allocation",
	KindDevice:     "device",
	KindExecution:  "execution",
	KindDependency: "dependency",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the concrete error type used throughout the runtime.
type Error struct {
	Kind Kind
	// Code narrows the kind for errors callers need to tell apart.
	Code string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Code
	}
	switch {
	case msg == "" && e.Err == nil:
		return e.Kind.String() + " error"
	case e.Err == nil:
		return fmt.Sprintf("%s error: %s", e.Kind, msg)
	case msg == "":
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s error: %s: %v", e.Kind, msg, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel matching e's kind and code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Msg != "" || t.Err != nil {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrRuntime                     = &Error{Kind: KindRuntime}
	ErrDestroyed                   = &Error{Kind: KindRuntime, Code: "destroyed"}
	ErrAccessorContract            = &Error{Kind: KindAccessor}
	ErrAccessorOutsideCommandGroup = &Error{Kind: KindAccessor, Code: "outside_command_group"}
	ErrInvalidRange                = &Error{Kind: KindRange}
	ErrEvent                       = &Error{Kind: KindEvent}
	ErrAllocation                  = &Error{Kind: KindAllocation}
	ErrDevice                      = &Error{Kind: KindDevice}
	ErrExecution                   = &Error{Kind: KindExecution}
	ErrDependencyFailed            = &Error{Kind: KindDependency}
)

// New creates an error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Coded creates an error carrying a code in addition to its kind.
func Coded(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

// Wrap attaches a kind and message to a cause. A nil cause yields nil.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsKind reports whether any error in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	return errors.Is(err, &Error{Kind: kind})
}
