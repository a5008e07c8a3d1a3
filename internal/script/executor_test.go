package script

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	lua "github.com/yuin/gopher-lua"
)

func startExecutor(t *testing.T, queueSize int, timeout time.Duration) *Executor {
	t.Helper()
	L := lua.NewState()
	exec := NewExecutor(L, queueSize, timeout)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		exec.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		L.Close()
	})
	return exec
}

func TestNewExecutorDefaultQueueSize(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	exec := NewExecutor(L, 0, 0)
	if cap(exec.queue) != DefaultQueueSize {
		t.Errorf("queue size = %d, want %d", cap(exec.queue), DefaultQueueSize)
	}
	if exec.IsClosed() {
		t.Error("new executor should not be closed")
	}
}

func TestExecutorExecute(t *testing.T) {
	exec := startExecutor(t, 10, 0)

	err := exec.Execute(testContext(t), func(L *lua.LState) error {
		return L.DoString(`x = 40 + 2`)
	})
	if err != nil {
		t.Fatalf("Execute error = %v", err)
	}

	var got lua.LValue
	_ = exec.Execute(testContext(t), func(L *lua.LState) error {
		got = L.GetGlobal("x")
		return nil
	})
	if got != lua.LNumber(42) {
		t.Errorf("x = %v, want 42", got)
	}
}

func TestExecutorConcurrentCallers(t *testing.T) {
	exec := startExecutor(t, 10, 0)

	var count int64
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = exec.Execute(context.Background(), func(L *lua.LState) error {
				// Runs on one goroutine, so a plain increment of a Lua
				// global is safe.
				if err := L.DoString(`n = (n or 0) + 1`); err != nil {
					return err
				}
				atomic.AddInt64(&count, 1)
				return nil
			})
		}()
	}
	wg.Wait()

	var n lua.LValue
	_ = exec.Execute(testContext(t), func(L *lua.LState) error {
		n = L.GetGlobal("n")
		return nil
	})
	if n != lua.LNumber(50) || atomic.LoadInt64(&count) != 50 {
		t.Errorf("n = %v, count = %d, want 50", n, count)
	}
}

func TestExecutorExecuteAsync(t *testing.T) {
	exec := startExecutor(t, 10, 0)

	failed := make(chan error, 1)
	err := exec.ExecuteAsync(func(L *lua.LState) error {
		return errors.New("async failure")
	}, func(err error) { failed <- err })
	if err != nil {
		t.Fatalf("ExecuteAsync error = %v", err)
	}

	select {
	case err := <-failed:
		if err.Error() != "async failure" {
			t.Errorf("onErr got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("onErr not called")
	}
}

func TestExecutorExecuteAsyncQueueFull(t *testing.T) {
	L := lua.NewState()
	defer L.Close()
	exec := NewExecutor(L, 1, 0)

	noop := func(*lua.LState) error { return nil }
	if err := exec.ExecuteAsync(noop, nil); err != nil {
		t.Fatalf("first ExecuteAsync error = %v", err)
	}
	if err := exec.ExecuteAsync(noop, nil); !errors.Is(err, ErrQueueFull) {
		t.Errorf("second ExecuteAsync error = %v, want ErrQueueFull", err)
	}
	if exec.QueueDepth() != 1 {
		t.Errorf("QueueDepth = %d, want 1", exec.QueueDepth())
	}
}

func TestExecutorClose(t *testing.T) {
	exec := startExecutor(t, 10, 0)
	exec.Close()
	exec.Close()

	if !exec.IsClosed() {
		t.Error("IsClosed = false after Close")
	}
	err := exec.Execute(testContext(t), func(*lua.LState) error { return nil })
	if !errors.Is(err, ErrExecutorClosed) {
		t.Errorf("Execute after Close error = %v, want ErrExecutorClosed", err)
	}
	if err := exec.ExecuteAsync(func(*lua.LState) error { return nil }, nil); !errors.Is(err, ErrExecutorClosed) {
		t.Errorf("ExecuteAsync after Close error = %v, want ErrExecutorClosed", err)
	}
}

func TestExecutorContextCancellation(t *testing.T) {
	L := lua.NewState()
	defer L.Close()
	exec := NewExecutor(L, 10, 0)

	// Not running: the call is queued but never picked up.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := exec.Execute(ctx, func(*lua.LState) error { return nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want DeadlineExceeded", err)
	}
}

func TestExecutorPanicRecovery(t *testing.T) {
	exec := startExecutor(t, 10, 0)

	err := exec.Execute(testContext(t), func(*lua.LState) error {
		panic("boom")
	})
	if err == nil || err.Error() != "boom" {
		t.Errorf("error = %v, want boom", err)
	}
	if err := exec.Execute(testContext(t), func(*lua.LState) error { return nil }); err != nil {
		t.Errorf("executor unusable after panic: %v", err)
	}
}

func TestExecutorTimeout(t *testing.T) {
	exec := startExecutor(t, 10, 50*time.Millisecond)

	start := time.Now()
	err := exec.Execute(testContext(t), func(L *lua.LState) error {
		return L.DoString(`while true do end`)
	})
	if err == nil {
		t.Fatal("runaway script was not stopped")
	}
	if time.Since(start) > 3*time.Second {
		t.Errorf("timeout took %v", time.Since(start))
	}
	if err := exec.Execute(testContext(t), func(L *lua.LState) error {
		return L.DoString(`x = 1`)
	}); err != nil {
		t.Errorf("executor unusable after timeout: %v", err)
	}
}
