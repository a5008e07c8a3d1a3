package script

import (
	"errors"
	"fmt"
)

// Errors for script runtime operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("script state is closed")

	// ErrExecutorClosed is returned when attempting to use a closed executor.
	ErrExecutorClosed = errors.New("script executor is closed")

	// ErrQueueFull is returned by ExecuteAsync when the call queue is full.
	ErrQueueFull = errors.New("script executor queue full")

	// ErrNotStarted is returned when the runtime is used before Start.
	ErrNotStarted = errors.New("script runtime not started")

	// ErrNoEventBus is returned by Connect when the script defines no
	// usable EventBus entry point.
	ErrNoEventBus = errors.New("script has no event bus")

	// ErrNotConnected is returned when sending before the handshake completed.
	ErrNotConnected = errors.New("script event bus not connected")

	// ErrNotFunction is returned by Invoke when the path does not name a function.
	ErrNotFunction = errors.New("not a script function")
)

// FunctionError reports a failed lookup of a dotted function path.
type FunctionError struct {
	Path string
	Got  string
}

func (e *FunctionError) Error() string {
	if e.Got == "nil" {
		return fmt.Sprintf("script function %q not found", e.Path)
	}
	return fmt.Sprintf("script value %q is %s, not a function", e.Path, e.Got)
}

func (e *FunctionError) Is(target error) bool { return target == ErrNotFunction }
