package dispatch

import (
	"fmt"

	"github.com/pkg/errors"
)

// misuseError signals a broken precondition: a nil handler or item, or a
// handler used for a kind it is not bound to.
type misuseError struct{ msg string }

func (e misuseError) Error() string { return "dispatch: " + e.msg }

func misusef(format string, args ...any) error {
	return misuseError{msg: fmt.Sprintf(format, args...)}
}

// IsMisuse reports whether err is a precondition violation raised by
// Register, Subscribe, Unregister, Push or a TypedHandler.
func IsMisuse(err error) bool {
	var m misuseError
	return errors.As(err, &m)
}

// Phase names which drain an ExecutionError came from.
type Phase string

const (
	PhaseAction Phase = "action"
	PhaseEvent  Phase = "event"
)

// ExecutionError describes one failed handler or listener call. Err carries a
// stack trace; for recovered panics Stack holds the goroutine stack instead.
type ExecutionError struct {
	Phase    Phase
	Kind     string
	Item     string
	Err      error
	Panicked bool
	Stack    []byte
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s %s (%s): %v", e.Phase, e.Kind, e.Item, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// IsExecutionError reports whether err wraps a handler or listener failure.
func IsExecutionError(err error) bool {
	var ee *ExecutionError
	return errors.As(err, &ee)
}
