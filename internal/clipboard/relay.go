// Package clipboard relays clipboard reads and writes to the script runtime,
// which answers asynchronously through correlation ids.
package clipboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Script-side entry points.
const (
	ReadFunction      = "Clipboard.read_text"
	WriteFunction     = "Clipboard.write_text"
	SupportedFunction = "Clipboard.is_supported"
)

// Invoker calls functions in the script runtime. *script.Runtime satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, path string, args ...any) ([]any, error)
	InvokeVoid(ctx context.Context, path string, args ...any) error
}

type response struct {
	text string
	err  error
}

type request struct {
	op string
	ch chan response
}

// Relay issues clipboard requests and matches the script's responses to
// them. Each Relay has its own correlation table.
type Relay struct {
	invoker Invoker
	logger  *slog.Logger

	mu      sync.Mutex
	pending map[uuid.UUID]request
}

// Option configures a Relay.
type Option func(*Relay)

// WithLogger sets the relay logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Relay) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a relay that calls into invoker.
func New(invoker Invoker, opts ...Option) *Relay {
	r := &Relay{
		invoker: invoker,
		logger:  slog.Default(),
		pending: make(map[uuid.UUID]request),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "clipboard")
	return r
}

// ReadText requests the clipboard text and waits for the response.
func (r *Relay) ReadText(ctx context.Context) (string, error) {
	res, err := r.roundTrip(ctx, "read", ReadFunction)
	return res.text, err
}

// WriteText requests that text be written and waits for the confirmation.
func (r *Relay) WriteText(ctx context.Context, text string) error {
	_, err := r.roundTrip(ctx, "write", WriteFunction, text)
	return err
}

// IsSupported asks the script whether a clipboard is available.
func (r *Relay) IsSupported(ctx context.Context) (bool, error) {
	out, err := r.invoker.Invoke(ctx, SupportedFunction)
	if err != nil {
		return false, fmt.Errorf("clipboard supported: %w", err)
	}
	if len(out) == 0 {
		return false, nil
	}
	ok, _ := out[0].(bool)
	return ok, nil
}

func (r *Relay) roundTrip(ctx context.Context, op, fn string, args ...any) (response, error) {
	id := uuid.New()
	ch := make(chan response, 1)

	r.mu.Lock()
	r.pending[id] = request{op: op, ch: ch}
	r.mu.Unlock()
	defer r.forget(id)

	if err := r.invoker.InvokeVoid(ctx, fn, append([]any{id.String()}, args...)...); err != nil {
		return response{}, fmt.Errorf("clipboard %s: %w", op, err)
	}

	select {
	case res := <-ch:
		return res, res.err
	case <-ctx.Done():
		return response{}, ctx.Err()
	}
}

func (r *Relay) forget(id uuid.UUID) {
	r.mu.Lock()
	delete(r.pending, id)
	r.mu.Unlock()
}

// Pending returns the number of requests awaiting a response.
func (r *Relay) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// ReceiveReadResponse completes the read request id with text.
func (r *Relay) ReceiveReadResponse(id, text string) error {
	return r.complete(id, "read", response{text: text})
}

// ReceiveWriteResponse completes the write request id.
func (r *Relay) ReceiveWriteResponse(id string) error {
	return r.complete(id, "write", response{})
}

// ReceiveFailure fails the pending request id with message.
func (r *Relay) ReceiveFailure(id, message string) error {
	return r.complete(id, "", response{err: &RejectedError{Message: message}})
}

// complete resolves a pending request. An empty op matches any request.
func (r *Relay) complete(id, op string, res response) error {
	key, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownRequest, id)
	}

	r.mu.Lock()
	req, ok := r.pending[key]
	if ok && (op == "" || req.op == op) {
		delete(r.pending, key)
	} else {
		ok = false
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRequest, id)
	}
	if rej, isRej := res.err.(*RejectedError); isRej {
		rej.Op = req.op
	}
	req.ch <- res
	return nil
}
