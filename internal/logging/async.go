package logging

import (
	"context"
	"log/slog"
	"sync"
)

// DefaultQueueSize is the async queue capacity used when none is given.
const DefaultQueueSize = 1024

type asyncRecord struct {
	h   slog.Handler
	ctx context.Context
	r   slog.Record
}

type asyncCore struct {
	mu     sync.RWMutex
	queue  chan asyncRecord
	done   chan struct{}
	closed bool
}

// AsyncHandler hands records to a single background goroutine that passes
// them on to the wrapped handler in order. Handle blocks only when the queue
// is full. After Close, records are handled synchronously.
type AsyncHandler struct {
	next slog.Handler
	core *asyncCore
}

// NewAsyncHandler starts the background goroutine.
func NewAsyncHandler(next slog.Handler, queueSize int) *AsyncHandler {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	core := &asyncCore{
		queue: make(chan asyncRecord, queueSize),
		done:  make(chan struct{}),
	}
	go core.run()
	return &AsyncHandler{next: next, core: core}
}

func (c *asyncCore) run() {
	defer close(c.done)
	for rec := range c.queue {
		_ = rec.h.Handle(rec.ctx, rec.r)
	}
}

func (h *AsyncHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.next.Enabled(ctx, l)
}

func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	h.core.mu.RLock()
	defer h.core.mu.RUnlock()

	if h.core.closed {
		return h.next.Handle(ctx, r)
	}
	h.core.queue <- asyncRecord{h: h.next, ctx: context.WithoutCancel(ctx), r: r.Clone()}
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{next: h.next.WithAttrs(attrs), core: h.core}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{next: h.next.WithGroup(name), core: h.core}
}

// Close waits for queued records to be written. It is idempotent.
func (h *AsyncHandler) Close() error {
	h.core.mu.Lock()
	if !h.core.closed {
		h.core.closed = true
		close(h.core.queue)
	}
	h.core.mu.Unlock()
	<-h.core.done
	return nil
}
