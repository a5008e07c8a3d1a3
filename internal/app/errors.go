package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrQuit signals that the user asked the application to exit.
	ErrQuit = errors.New("quit requested")

	// ErrAlreadyRunning indicates Run was called twice.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrClosed indicates the application has been closed.
	ErrClosed = errors.New("application closed")
)

// InitError represents an initialization error.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// ComponentError represents an error from a running component.
type ComponentError struct {
	Component string
	Action    string
	Err       error
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Component, e.Action, e.Err)
}

func (e *ComponentError) Unwrap() error {
	return e.Err
}
