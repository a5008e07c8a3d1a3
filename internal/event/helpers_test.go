package event

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dshills/reactor/internal/event/dispatch"
)

type CustomerSelected struct {
	CustomerID int
	Name       string
}

type OrderPlaced struct {
	OrderID string
	Lines   []OrderLine
}

type OrderLine struct {
	SKU      string
	Quantity int
}

type localOnly struct {
	Value string
}

// recordHandler is a slog.Handler that keeps every record.
type recordHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *recordHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordHandler) count(level slog.Level, msg string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range h.records {
		if r.Level == level && r.Message == msg {
			n++
		}
	}
	return n
}

// spyProxy records outbound messages.
type spyProxy struct {
	mu   sync.Mutex
	sent []sentMessage
	log  *[]string
}

type sentMessage struct {
	name    string
	payload string
}

func (p *spyProxy) Send(name string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, sentMessage{name: name, payload: string(payload)})
	if p.log != nil {
		*p.log = append(*p.log, "send")
	}
	return nil
}

func (p *spyProxy) messages() []sentMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]sentMessage, len(p.sent))
	copy(out, p.sent)
	return out
}

// countingContext runs posted tasks inline and counts them.
type countingContext struct {
	mu    sync.Mutex
	posts int
}

func (c *countingContext) Post(ctx context.Context, task dispatch.Task) error {
	c.mu.Lock()
	c.posts++
	c.mu.Unlock()
	return task(ctx)
}

func (c *countingContext) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.posts
}

func testTypes(t *testing.T) *Types {
	t.Helper()

	types := NewTypes()
	if err := Bind[CustomerSelected](types, "CustomerSelected"); err != nil {
		t.Fatalf("Bind error = %v", err)
	}
	if err := Bind[OrderPlaced](types, "sales.order.placed"); err != nil {
		t.Fatalf("Bind error = %v", err)
	}
	return types
}

// newConnected returns an aggregator whose handshake has completed against
// a spy proxy.
func newConnected(t *testing.T, opts ...Option) (*Aggregator, *spyProxy, *recordHandler) {
	t.Helper()

	proxy := &spyProxy{}
	logs := &recordHandler{}
	connector := ConnectorFunc(func(context.Context, Receiver) (Proxy, error) {
		return proxy, nil
	})

	opts = append([]Option{WithLogger(slog.New(logs))}, opts...)
	agg := New(testTypes(t), connector, opts...)
	waitConnected(t, agg)
	return agg, proxy, logs
}

func waitConnected(t *testing.T, agg *Aggregator) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := agg.WaitConnected(ctx); err != nil {
		t.Fatalf("WaitConnected error = %v", err)
	}
}
