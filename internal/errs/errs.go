// Package errs classifies fatal pipeline errors into the exit-code
// taxonomy used by the CLI: parsing, I/O, and validation failures.
package errs

import (
	"errors"
	"fmt"
)

// Exit codes reported by the tally binary.
const (
	ExitSuccess    = 0
	ExitParsing    = 1
	ExitIO         = 2
	ExitValidation = 3
)

// Kind is the error classification.
type Kind int

// Error kinds, one per non-zero exit code.
const (
	KindParsing Kind = iota + 1
	KindIO
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindParsing:
		return "parsing error"
	case KindIO:
		return "io error"
	case KindValidation:
		return "validation error"
	default:
		return "error"
	}
}

// Error wraps an underlying error with its classification.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Parsing wraps err as a parsing failure.
func Parsing(format string, args ...any) error {
	return &Error{Kind: KindParsing, Err: fmt.Errorf(format, args...)}
}

// IO wraps err as a filesystem failure.
func IO(format string, args ...any) error {
	return &Error{Kind: KindIO, Err: fmt.Errorf(format, args...)}
}

// Validation wraps err as a configuration or input validation failure.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Err: fmt.Errorf(format, args...)}
}

// ExitCode maps an error to the CLI exit code. Unclassified errors
// default to the validation code so that misconfiguration is never
// reported as success.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ce *Error
	if errors.As(err, &ce) {
		switch ce.Kind {
		case KindParsing:
			return ExitParsing
		case KindIO:
			return ExitIO
		case KindValidation:
			return ExitValidation
		}
	}
	return ExitValidation
}
