// Package errz defines the error taxonomy shared by the decompiler packages.
package errz

import (
	"errors"
	"fmt"

	"github.com/neonux/mozilla-all-sub004/op"
)

// ErrorKind represents the category of an error.
type ErrorKind int

const (
	// ErrOutOfMemory indicates that an output or stack limit was exceeded,
	// including runaway recursion.
	ErrOutOfMemory ErrorKind = iota
	// ErrInconsistency indicates bytecode that violates an invariant the
	// decompiler depends on.
	ErrInconsistency
	// ErrUnsupported indicates a recognized instruction that cannot be
	// rendered.
	ErrUnsupported
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrOutOfMemory:
		return "out of memory"
	case ErrInconsistency:
		return "inconsistent bytecode"
	case ErrUnsupported:
		return "unsupported bytecode"
	default:
		return "error"
	}
}

// Sentinels usable with errors.Is.
var (
	OutOfMemory   = &StructuredError{Kind: ErrOutOfMemory}
	Inconsistency = &StructuredError{Kind: ErrInconsistency}
	Unsupported   = &StructuredError{Kind: ErrUnsupported}
)

// NoPC marks an error not tied to a particular instruction.
const NoPC = -1

// StructuredError carries the kind of a decompilation failure along with the
// instruction at which it was detected.
type StructuredError struct {
	Message string
	Kind    ErrorKind
	PC      int
	Op      op.Code
	Cause   error
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	msg := e.Kind.String()
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.PC >= 0 && e.Message != "" {
		msg = fmt.Sprintf("%s (pc %d, %s)", msg, e.PC, e.Op)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause of the error.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// Is matches any StructuredError of the same kind, so that callers can
// compare against the package sentinels.
func (e *StructuredError) Is(target error) bool {
	var other *StructuredError
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

// IsFatal returns whether the error aborts the whole decompilation. An
// inconsistency found while rendering a single value is recoverable.
func (e *StructuredError) IsFatal() bool {
	return e.Kind != ErrInconsistency
}

// WithCause wraps the error with a cause.
func (e *StructuredError) WithCause(cause error) *StructuredError {
	e.Cause = cause
	return e
}

// NewStructuredErrorf creates a new StructuredError with a formatted message.
func NewStructuredErrorf(kind ErrorKind, pc int, code op.Code, format string, args ...any) *StructuredError {
	return &StructuredError{
		Message: fmt.Sprintf(format, args...),
		Kind:    kind,
		PC:      pc,
		Op:      code,
	}
}

// Inconsistentf reports malformed bytecode at pc.
func Inconsistentf(pc int, code op.Code, format string, args ...any) *StructuredError {
	return NewStructuredErrorf(ErrInconsistency, pc, code, format, args...)
}

// Unsupportedf reports an instruction the decompiler cannot render.
func Unsupportedf(pc int, code op.Code, format string, args ...any) *StructuredError {
	return NewStructuredErrorf(ErrUnsupported, pc, code, format, args...)
}

// OutOfMemoryf reports an exhausted resource limit.
func OutOfMemoryf(format string, args ...any) *StructuredError {
	return NewStructuredErrorf(ErrOutOfMemory, NoPC, op.Nop, format, args...)
}

// KindOf returns the kind of err, if it is a StructuredError.
func KindOf(err error) (ErrorKind, bool) {
	var se *StructuredError
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return 0, false
}
