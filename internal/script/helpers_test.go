package script

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// recordHandler is a slog.Handler that keeps every record with the
// attributes added through With.
type recordHandler struct {
	mu      *sync.Mutex
	records *[]slog.Record
	attrs   []slog.Attr
}

func newRecordHandler() *recordHandler {
	return &recordHandler{mu: &sync.Mutex{}, records: &[]slog.Record{}}
}

func (h *recordHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordHandler) Handle(_ context.Context, r slog.Record) error {
	r = r.Clone()
	r.AddAttrs(h.attrs...)
	h.mu.Lock()
	defer h.mu.Unlock()
	*h.records = append(*h.records, r)
	return nil
}

func (h *recordHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &recordHandler{mu: h.mu, records: h.records, attrs: append(append([]slog.Attr(nil), h.attrs...), attrs...)}
}

func (h *recordHandler) WithGroup(string) slog.Handler { return h }

// find returns the first record with msg.
func (h *recordHandler) find(msg string) (slog.Record, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range *h.records {
		if r.Message == msg {
			return r, true
		}
	}
	return slog.Record{}, false
}

func attrValue(r slog.Record, key string) (slog.Value, bool) {
	var v slog.Value
	found := false
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			v, found = a.Value, true
			return false
		}
		return true
	})
	return v, found
}

// spyReceiver records events the script hands to the host.
type spyReceiver struct {
	mu       sync.Mutex
	received []received
}

type received struct {
	name    string
	payload string
}

func (r *spyReceiver) Receive(name string, payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.received = append(r.received, received{name: name, payload: string(payload)})
}

func (r *spyReceiver) all() []received {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]received(nil), r.received...)
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func newRuntime(t *testing.T, opts ...Option) *Runtime {
	t.Helper()
	opts = append([]Option{WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	rt := New(opts...)
	if err := rt.Start(testContext(t)); err != nil {
		t.Fatalf("Start error = %v", err)
	}
	t.Cleanup(func() { rt.Close() })
	return rt
}

func mustExec(t *testing.T, rt *Runtime, code string) {
	t.Helper()
	if err := rt.Exec(testContext(t), code); err != nil {
		t.Fatalf("Exec error = %v", err)
	}
}

func invokeString(t *testing.T, rt *Runtime, path string, args ...any) string {
	t.Helper()
	out, err := rt.Invoke(testContext(t), path, args...)
	if err != nil {
		t.Fatalf("Invoke(%q) error = %v", path, err)
	}
	if len(out) != 1 {
		t.Fatalf("Invoke(%q) returned %d values, want 1", path, len(out))
	}
	s, ok := out[0].(string)
	if !ok {
		t.Fatalf("Invoke(%q) = %#v, want string", path, out[0])
	}
	return s
}
