package dispatch

import (
	"fmt"
	"runtime/debug"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// invoke runs one handler or listener call. Returned errors and panics are
// both converted into an ExecutionError; nothing escapes to the caller.
func invoke(phase Phase, kind string, item any, call func() error) (ee *ExecutionError) {
	defer func() {
		if r := recover(); r != nil {
			ee = &ExecutionError{
				Phase:    phase,
				Kind:     kind,
				Item:     describe(item),
				Err:      errors.Errorf("panic: %v", r),
				Panicked: true,
				Stack:    debug.Stack(),
			}
		}
	}()
	err := call()
	if err == nil {
		return nil
	}
	var st stackTracer
	if !errors.As(err, &st) {
		err = errors.WithStack(err)
	}
	return &ExecutionError{Phase: phase, Kind: kind, Item: describe(item), Err: err}
}

func describe(item any) string { return fmt.Sprintf("%+v", item) }

func logFailure(log zerolog.Logger, ee *ExecutionError) {
	ev := log.Error().
		Str("phase", string(ee.Phase)).
		Str("kind", ee.Kind).
		Str("item", ee.Item)
	if ee.Panicked {
		ev = ev.Bool("panic", true).Str("stack", string(ee.Stack))
	} else {
		ev = ev.Stack()
	}
	ev.Err(ee.Err).Msgf("failed to execute %s", ee.Phase)
}
