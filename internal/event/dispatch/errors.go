package dispatch

import "errors"

var (
	// ErrAlreadyRunning is returned when Start is called on a running loop.
	ErrAlreadyRunning = errors.New("dispatch loop is already running")

	// ErrNotRunning is returned when tasks are posted to a stopped loop.
	ErrNotRunning = errors.New("dispatch loop is not running")

	// ErrQueueFull is returned when the loop queue cannot accept more tasks.
	ErrQueueFull = errors.New("dispatch queue is full")
)
