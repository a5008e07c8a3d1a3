package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Loop executes posted tasks one at a time on a single goroutine, in
// posting order. It provides bounded queuing and graceful shutdown.
type Loop struct {
	queueSize int

	mu      sync.Mutex // protects queue creation/destruction
	queue   chan loopTask
	running atomic.Bool
	done    chan struct{}

	executor *Executor
	onResult ResultHandler

	// Stats
	posted      atomic.Uint64
	processed   atomic.Uint64
	succeeded   atomic.Uint64
	failed      atomic.Uint64
	panicked    atomic.Uint64
	dropped     atomic.Uint64
	totalTimeNs atomic.Int64
}

type loopTask struct {
	ctx  context.Context
	task Task
}

// NewLoop creates a new dispatch loop. Call Start before posting.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		queueSize: 1024,
		executor:  NewExecutor(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithQueueSize sets the task queue size.
func WithQueueSize(size int) LoopOption {
	return func(l *Loop) {
		if size > 0 {
			l.queueSize = size
		}
	}
}

// WithPanicHandler sets the panic handler for the loop.
func WithPanicHandler(h PanicHandler) LoopOption {
	return func(l *Loop) {
		l.executor = NewExecutor(WithExecutorPanicHandler(h))
	}
}

// WithResultHandler sets the handler for failed tasks.
func WithResultHandler(h ResultHandler) LoopOption {
	return func(l *Loop) {
		l.onResult = h
	}
}

// Start starts the loop goroutine.
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running.Load() {
		return ErrAlreadyRunning
	}

	l.queue = make(chan loopTask, l.queueSize)
	l.done = make(chan struct{})
	l.running.Store(true)

	go l.run(l.queue, l.done)
	return nil
}

// Stop stops the loop after the queued tasks have run, or returns the
// context error if ctx is done first.
func (l *Loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.running.Load() {
		l.mu.Unlock()
		return ErrNotRunning
	}

	l.running.Store(false)
	close(l.queue)
	done := l.done
	l.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Post adds task to the queue. It returns ErrQueueFull if the queue is at
// capacity and ErrNotRunning if the loop is stopped.
func (l *Loop) Post(ctx context.Context, task Task) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running.Load() {
		return ErrNotRunning
	}

	select {
	case l.queue <- loopTask{ctx: ctx, task: task}:
		l.posted.Add(1)
		return nil
	default:
		l.dropped.Add(1)
		return ErrQueueFull
	}
}

// Drain waits until every task posted before the call has run.
func (l *Loop) Drain(ctx context.Context) error {
	reached := make(chan struct{})
	err := l.Post(context.Background(), func(context.Context) error {
		close(reached)
		return nil
	})
	if err != nil {
		return err
	}

	select {
	case <-reached:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) run(queue <-chan loopTask, done chan<- struct{}) {
	defer close(done)

	for t := range queue {
		l.execute(t)
	}
}

func (l *Loop) execute(t loopTask) {
	l.processed.Add(1)

	result := l.executor.Execute(t.ctx, t.task)
	l.totalTimeNs.Add(result.Duration.Nanoseconds())

	switch {
	case result.Panicked:
		l.panicked.Add(1)
	case result.Skipped, result.Error != nil:
		l.failed.Add(1)
	default:
		l.succeeded.Add(1)
		return
	}

	if l.onResult != nil {
		func() {
			defer func() { _ = recover() }()
			l.onResult(result)
		}()
	}
}

// QueueDepth returns the current number of tasks in the queue.
func (l *Loop) QueueDepth() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running.Load() {
		return 0
	}
	return len(l.queue)
}

// IsRunning returns true if the loop is running.
func (l *Loop) IsRunning() bool {
	return l.running.Load()
}

// Stats returns loop statistics.
func (l *Loop) Stats() LoopStats {
	processed := l.processed.Load()
	totalNs := l.totalTimeNs.Load()

	var avgNs int64
	if processed > 0 {
		avgNs = totalNs / int64(processed)
	}

	return LoopStats{
		Posted:        l.posted.Load(),
		Processed:     processed,
		Succeeded:     l.succeeded.Load(),
		Failed:        l.failed.Load(),
		Panicked:      l.panicked.Load(),
		Dropped:       l.dropped.Load(),
		QueueDepth:    l.QueueDepth(),
		TotalDuration: time.Duration(totalNs),
		AvgDuration:   time.Duration(avgNs),
	}
}

// LoopStats contains statistics for a dispatch loop.
type LoopStats struct {
	// Posted is the total number of tasks accepted by Post.
	Posted uint64

	// Processed is the number of tasks that have been run.
	Processed uint64

	// Succeeded is the number of tasks that completed without error.
	Succeeded uint64

	// Failed is the number of tasks that returned errors or were skipped.
	Failed uint64

	// Panicked is the number of tasks that panicked.
	Panicked uint64

	// Dropped is the number of tasks rejected because the queue was full.
	Dropped uint64

	// QueueDepth is the current number of tasks waiting in the queue.
	QueueDepth int

	// TotalDuration is the cumulative time spent running tasks.
	TotalDuration time.Duration

	// AvgDuration is the average task run time.
	AvgDuration time.Duration
}
