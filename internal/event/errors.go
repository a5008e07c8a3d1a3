package event

import (
	"errors"
	"fmt"
)

// Sentinel errors for the event aggregator.
var (
	// ErrBridgeDispatch matches every BridgeDispatchError.
	ErrBridgeDispatch = errors.New("bridge dispatch failed")

	// ErrNoBridge is returned by WaitConnected when the aggregator has no
	// connector.
	ErrNoBridge = errors.New("no bridge connector configured")

	// ErrDuplicateBinding is returned when a name or type is bound twice to
	// different counterparts.
	ErrDuplicateBinding = errors.New("duplicate bridge binding")
)

// Stage identifies where an inbound bridge message failed.
type Stage string

const (
	StageDecode  Stage = "decode"
	StageDeliver Stage = "deliver"
)

// BridgeDispatchError describes an inbound bridge message that could not be
// delivered. It is logged, never returned to the bridge.
type BridgeDispatchError struct {
	TypeName string
	Payload  []byte
	Stage    Stage
	Err      error
}

func (e *BridgeDispatchError) Error() string {
	return fmt.Sprintf("bridge dispatch %s failed for %s: %v", e.Stage, e.TypeName, e.Err)
}

// Unwrap returns the underlying error.
func (e *BridgeDispatchError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is to match BridgeDispatchError with ErrBridgeDispatch.
func (e *BridgeDispatchError) Is(target error) bool {
	return target == ErrBridgeDispatch
}

// DuplicateBindingError reports a conflicting Bind call.
type DuplicateBindingError struct {
	Name     string
	Type     string
	Existing string
}

func (e *DuplicateBindingError) Error() string {
	return fmt.Sprintf("cannot bind %s to %q: already bound to %s", e.Type, e.Name, e.Existing)
}

// Is allows errors.Is to match DuplicateBindingError with ErrDuplicateBinding.
func (e *DuplicateBindingError) Is(target error) bool {
	return target == ErrDuplicateBinding
}

// PanicError wraps a recovered subscriber panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("subscriber panicked: %v", e.Value)
}
