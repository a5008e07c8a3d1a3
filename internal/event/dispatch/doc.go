// Package dispatch provides the execution contexts event subscribers are
// delivered on.
//
// A Context accepts posted tasks and runs them somewhere. Two
// implementations are provided:
//
//   - Inline: runs each task immediately on the posting goroutine.
//
//   - Loop: a single goroutine draining a bounded FIFO queue. It plays the
//     role of a UI thread: every task posted to a Loop runs on the same
//     goroutine, in posting order.
//
// # Panic Recovery
//
// Both contexts run tasks through an Executor, which recovers panics so a
// misbehaving subscriber cannot stop the loop. Failures are reported via a
// configurable ResultHandler.
//
// # Usage
//
//	loop := dispatch.NewLoop(dispatch.WithQueueSize(256))
//	if err := loop.Start(); err != nil {
//	    return err
//	}
//	defer loop.Stop(ctx)
//
//	err := loop.Post(ctx, func(ctx context.Context) error {
//	    return view.Refresh()
//	})
package dispatch
