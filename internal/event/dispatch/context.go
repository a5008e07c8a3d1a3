package dispatch

import (
	"context"
	"time"
)

// Task is a unit of work posted to a Context.
type Task func(ctx context.Context) error

// Context runs posted tasks on a particular execution context.
//
// Post reports only whether the task was accepted. The outcome of the task
// itself is delivered to the context's ResultHandler.
type Context interface {
	Post(ctx context.Context, task Task) error
}

// Result represents the outcome of a task execution.
type Result struct {
	// Success is true if the task completed without error or panic.
	Success bool

	// Error is the error returned by the task, if any.
	Error error

	// Panicked is true if the task panicked.
	Panicked bool

	// PanicValue is the value passed to panic(), if Panicked is true.
	PanicValue any

	// PanicStack is the stack trace at the point of panic.
	PanicStack []byte

	// Duration is how long the task took to execute.
	Duration time.Duration

	// Skipped is true if the task was not executed because its context
	// was already done.
	Skipped bool
}

// IsSuccess returns true if the result indicates successful execution.
func (r Result) IsSuccess() bool {
	return r.Success && !r.Panicked && r.Error == nil
}

// IsError returns true if the result indicates an error (not panic).
func (r Result) IsError() bool {
	return r.Error != nil && !r.Panicked
}

// IsPanic returns true if the result indicates a panic.
func (r Result) IsPanic() bool {
	return r.Panicked
}

// PanicHandler is called when a task panics.
type PanicHandler func(panicValue any, stack []byte)

// ResultHandler receives the result of every task that did not succeed.
type ResultHandler func(Result)
