package script

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// Call is one unit of work for the Lua goroutine.
type Call struct {
	Fn     func(L *lua.LState) error
	Result chan error
}

// Executor serializes all Lua operations through a single goroutine.
//
//	exec := NewExecutor(L, 0, time.Second)
//	go exec.Run(ctx)
//	defer exec.Close()
//
//	err := exec.Execute(ctx, func(L *lua.LState) error {
//	    return L.DoString("x = 1")
//	})
type Executor struct {
	L       *lua.LState
	queue   chan *Call
	timeout time.Duration

	closed    atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

// DefaultQueueSize is the executor queue capacity used when none is given.
const DefaultQueueSize = 256

// NewExecutor creates an Executor for L. A positive timeout bounds every
// call; Lua code still running when it expires fails with a deadline error.
func NewExecutor(L *lua.LState, queueSize int, timeout time.Duration) *Executor {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Executor{
		L:       L,
		queue:   make(chan *Call, queueSize),
		timeout: timeout,
		done:    make(chan struct{}),
	}
}

// Run processes queued calls until ctx is done or Close is called.
// It must run on the goroutine that owns the Lua state.
func (e *Executor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			e.drainQueue(ctx.Err())
			return
		case <-e.done:
			e.drainQueue(ErrExecutorClosed)
			return
		case call := <-e.queue:
			call.Result <- e.executeCall(ctx, call)
			close(call.Result)
		}
	}
}

func (e *Executor) executeCall(ctx context.Context, call *Call) (err error) {
	if e.timeout > 0 {
		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		e.L.SetContext(callCtx)
		defer func() {
			e.L.RemoveContext()
			cancel()
		}()
	}
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case error:
				err = v
			case string:
				err = errors.New(v)
			default:
				err = fmt.Errorf("lua panic: %v", v)
			}
		}
	}()
	return call.Fn(e.L)
}

func (e *Executor) drainQueue(err error) {
	for {
		select {
		case call := <-e.queue:
			call.Result <- err
			close(call.Result)
		default:
			return
		}
	}
}

// Execute queues fn and waits for it to finish or for ctx to be done.
// A call abandoned by ctx still runs once it reaches the front of the queue.
func (e *Executor) Execute(ctx context.Context, fn func(L *lua.LState) error) error {
	if e.closed.Load() {
		return ErrExecutorClosed
	}

	call := &Call{Fn: fn, Result: make(chan error, 1)}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrExecutorClosed
	case e.queue <- call:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err, ok := <-call.Result:
		if !ok {
			return ErrExecutorClosed
		}
		return err
	}
}

// ExecuteAsync queues fn without waiting. It fails fast with ErrQueueFull
// rather than blocking the caller. onErr, when non-nil, receives the
// result of a failed call on the executor goroutine.
func (e *Executor) ExecuteAsync(fn func(L *lua.LState) error, onErr func(error)) error {
	if e.closed.Load() {
		return ErrExecutorClosed
	}

	call := &Call{
		Fn: func(L *lua.LState) error {
			err := fn(L)
			if err != nil && onErr != nil {
				onErr(err)
			}
			return err
		},
		Result: make(chan error, 1),
	}
	select {
	case <-e.done:
		return ErrExecutorClosed
	case e.queue <- call:
		return nil
	default:
		return ErrQueueFull
	}
}

// QueueDepth returns the number of calls waiting to run.
func (e *Executor) QueueDepth() int {
	return len(e.queue)
}

// Close stops the executor. Queued calls fail with ErrExecutorClosed.
func (e *Executor) Close() {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		close(e.done)
	})
}

// IsClosed returns true if the executor has been closed.
func (e *Executor) IsClosed() bool {
	return e.closed.Load()
}
