package cmd

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateName     = errors.New("duplicate command name")
	ErrInvalidDescriptor = errors.New("invalid command descriptor")
)

// RegistrationError is returned by Registry.Register. It matches
// ErrDuplicateName or ErrInvalidDescriptor with errors.Is.
type RegistrationError struct {
	Command string
	Name    string
	Err     error
	Detail  string
}

func (e *RegistrationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("register %q: %v: %s", e.Command, e.Err, e.Detail)
	}
	return fmt.Sprintf("register %q: %v %q", e.Command, e.Err, e.Name)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// Reason classifies why an argument could not be produced.
type Reason int

const (
	ReasonSyntax Reason = iota + 1
	ReasonLookup
	ReasonMissing
	ReasonTrailing
	// ReasonCustom marks a failure returned by a caller-supplied decoder.
	ReasonCustom
)

func (r Reason) String() string {
	switch r {
	case ReasonSyntax:
		return "syntax error"
	case ReasonLookup:
		return "lookup failed"
	case ReasonMissing:
		return "missing argument"
	case ReasonTrailing:
		return "trailing arguments"
	case ReasonCustom:
		return "invalid value"
	}
	return "unknown"
}

// ArgumentError is a decode failure. Index is the zero-based parameter index;
// for ReasonTrailing it equals the number of declared parameters. Pos is the
// cursor position where the failing argument was read: a byte offset into
// the argument text, or the number of options consumed.
type ArgumentError struct {
	Index  int
	Param  string
	Reason Reason
	Input  string
	Pos    int
	Err    error
}

func (e *ArgumentError) Error() string {
	msg := fmt.Sprintf("argument %d", e.Index+1)
	if e.Param != "" {
		msg += fmt.Sprintf(" (%s)", e.Param)
	}
	msg += ": " + e.Reason.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// Is matches another *ArgumentError by reason, so callers can write
// errors.Is(err, &ArgumentError{Reason: ReasonMissing}).
func (e *ArgumentError) Is(target error) bool {
	t, ok := target.(*ArgumentError)
	if !ok {
		return false
	}
	return t.Reason == e.Reason
}

// PanicError wraps a value recovered from a panicking handler.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("handler panic: %v", e.Value) }

// DenyReason says which authorization rule rejected an invocation.
type DenyReason int

const (
	DenyGuildOnly DenyReason = iota + 1
	DenyOwnersOnly
	DenyMissingPermissions
	DenyCheck
)

func (r DenyReason) String() string {
	switch r {
	case DenyGuildOnly:
		return "guild only"
	case DenyOwnersOnly:
		return "owners only"
	case DenyMissingPermissions:
		return "missing permissions"
	case DenyCheck:
		return "check failed"
	}
	return "denied"
}

// PermissionError explains a PermissionDenied outcome. Missing holds the
// required permission bits the author lacks.
type PermissionError struct {
	Reason  DenyReason
	Missing int64
	Err     error
}

func (e *PermissionError) Error() string {
	msg := "permission denied: " + e.Reason.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PermissionError) Unwrap() error { return e.Err }
