// Package errs defines the error taxonomy shared by every pipeline stage,
// the Context store, and the execution engine.
package errs

import (
	"errors"
	"strings"
)

// Code represents a standardized compiler error classification.
type Code string

const (
	NullInput           Code = "null_input"
	InvalidInput         Code = "invalid_input"
	OutOfMemory          Code = "out_of_memory"
	CapacityExceeded     Code = "capacity_exceeded"
	KeyTooLong           Code = "key_too_long"
	NameTooLong          Code = "name_too_long"
	NotFound             Code = "not_found"
	Overflow             Code = "overflow"
	Reentrancy           Code = "reentrancy"
	MemoryLimitExceeded  Code = "memory_limit_exceeded"
	Unknown              Code = "unknown"
)

// CompilerError attaches a standardized Code to an underlying error.
type CompilerError struct {
	Code Code
	Msg  string
	Err  error
}

func New(code Code, msg string) *CompilerError {
	return &CompilerError{Code: code, Msg: msg}
}

func Wrap(code Code, msg string, err error) *CompilerError {
	return &CompilerError{Code: code, Msg: msg, Err: err}
}

func (e *CompilerError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Code)
}

func (e *CompilerError) Unwrap() error {
	return e.Err
}

// Classify maps an arbitrary error to a standardized Code, preferring a
// CompilerError's own code when present.
func Classify(err error) Code {
	if err == nil {
		return ""
	}

	var ce *CompilerError
	if errors.As(err, &ce) && ce.Code != "" {
		return ce.Code
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "not found"):
		return NotFound
	case strings.Contains(msg, "reentran"):
		return Reentrancy
	case strings.Contains(msg, "memory limit"):
		return MemoryLimitExceeded
	case strings.Contains(msg, "out of memory"):
		return OutOfMemory
	case strings.Contains(msg, "too long"):
		return KeyTooLong
	case strings.Contains(msg, "capacity"):
		return CapacityExceeded
	case strings.Contains(msg, "overflow"):
		return Overflow
	default:
		return InvalidInput
	}
}

// Sanitize replaces control characters in a message with '?', per the
// detail-level contract: Full messages may include source positions and
// offending lexemes, but never raw control bytes.
func Sanitize(msg string) string {
	var b strings.Builder
	b.Grow(len(msg))
	for _, r := range msg {
		if r < 0x20 || r == 0x7f {
			b.WriteRune('?')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// DetailLevel controls how much information an outcome's message carries.
type DetailLevel int

const (
	Full DetailLevel = iota
	Minimal
)

// FormatMessage applies the detail-level contract to a message/code pair.
func FormatMessage(level DetailLevel, code Code, msg string) string {
	if level == Minimal {
		return "Error code: " + string(code)
	}
	return Sanitize(msg)
}
