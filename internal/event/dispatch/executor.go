package dispatch

import (
	"context"
	"runtime/debug"
	"time"
)

// Executor runs tasks with panic recovery and timing.
type Executor struct {
	panicHandler PanicHandler
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithExecutorPanicHandler sets the panic handler for the executor.
func WithExecutorPanicHandler(h PanicHandler) ExecutorOption {
	return func(e *Executor) {
		e.panicHandler = h
	}
}

// Execute runs task and returns the result.
// It recovers from panics and captures timing information.
func (e *Executor) Execute(ctx context.Context, task Task) (result Result) {
	if err := ctx.Err(); err != nil {
		return Result{Error: err, Skipped: true}
	}

	start := time.Now()

	defer func() {
		result.Duration = time.Since(start)

		if r := recover(); r != nil {
			stack := debug.Stack()

			result.Success = false
			result.Panicked = true
			result.PanicValue = r
			result.PanicStack = stack

			if e != nil && e.panicHandler != nil {
				func() {
					// a panicking panic handler must not escape either
					defer func() { _ = recover() }()
					e.panicHandler(r, stack)
				}()
			}
		}
	}()

	if err := task(ctx); err != nil {
		result.Error = err
		return result
	}
	result.Success = true
	return result
}

// ExecuteWithTimeout runs task with a timeout.
// The task must respect context cancellation for this to be effective.
func (e *Executor) ExecuteWithTimeout(ctx context.Context, task Task, timeout time.Duration) Result {
	if timeout <= 0 {
		return e.Execute(ctx, task)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return e.Execute(ctx, task)
}
