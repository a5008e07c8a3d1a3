package dispatch

import "context"

// Inline runs every posted task immediately on the posting goroutine.
// The zero value is ready to use.
type Inline struct {
	executor *Executor
	onResult ResultHandler
}

// InlineOption configures an Inline context.
type InlineOption func(*Inline)

// WithInlineResultHandler sets the handler for failed tasks.
func WithInlineResultHandler(h ResultHandler) InlineOption {
	return func(c *Inline) {
		c.onResult = h
	}
}

// WithInlinePanicHandler sets the panic handler for the context.
func WithInlinePanicHandler(h PanicHandler) InlineOption {
	return func(c *Inline) {
		c.executor = NewExecutor(WithExecutorPanicHandler(h))
	}
}

// NewInline creates an inline context.
func NewInline(opts ...InlineOption) *Inline {
	c := &Inline{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Post runs task before returning. It returns the context error if ctx is
// already done.
func (c *Inline) Post(ctx context.Context, task Task) error {
	result := c.executor.Execute(ctx, task)
	if result.Skipped {
		return result.Error
	}
	if !result.IsSuccess() && c.onResult != nil {
		c.onResult(result)
	}
	return nil
}
