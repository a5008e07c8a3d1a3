package script

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/reactor/internal/event"
)

func TestConnectDefaultEventBus(t *testing.T) {
	rt := newRuntime(t)
	spy := &spyReceiver{}

	proxy, err := rt.Connect(testContext(t), spy)
	if err != nil {
		t.Fatalf("Connect error = %v", err)
	}

	mustExec(t, rt, `
lastOrder = ""
bus.on("sales.order.placed", function(v) lastOrder = v.orderId end)
bus.publish("CustomerSelected", { customerId = 42 })
function result() return lastOrder end
`)

	got := spy.all()
	if len(got) != 1 || got[0].name != "CustomerSelected" || got[0].payload != `{"customerId":42}` {
		t.Fatalf("received = %+v", got)
	}

	if err := proxy.Send("sales.order.placed", []byte(`{"orderId":"A1"}`)); err != nil {
		t.Fatalf("Send error = %v", err)
	}
	// Send is queued ahead of the Invoke below.
	if got := invokeString(t, rt, "result"); got != "A1" {
		t.Errorf("lastOrder = %q, want A1", got)
	}
	if n := len(spy.all()); n != 1 {
		t.Errorf("host received %d events, want 1 (no echo of inbound send)", n)
	}
}

func TestConnectCustomEventBus(t *testing.T) {
	rt := newRuntime(t)
	mustExec(t, rt, `
sent = {}
function EventBus(host)
  host.receive("Ready", "{}")
  return {
    send = function(name, payload) table.insert(sent, name .. payload) end,
  }
end
function result() return table.concat(sent, ";") end
`)
	spy := &spyReceiver{}

	proxy, err := rt.Connect(testContext(t), spy)
	if err != nil {
		t.Fatalf("Connect error = %v", err)
	}
	if got := spy.all(); len(got) != 1 || got[0].name != "Ready" {
		t.Fatalf("received = %+v, want Ready", got)
	}

	_ = proxy.Send("a", []byte(`1`))
	_ = proxy.Send("b", []byte(`2`))
	if got := invokeString(t, rt, "result"); got != "a1;b2" {
		t.Errorf("sent = %q, want a1;b2", got)
	}
}

func TestConnectFailures(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"no EventBus", `EventBus = nil`},
		{"returns nothing", `function EventBus(host) end`},
		{"no send", `function EventBus(host) return {} end`},
		{"raises", `function EventBus(host) error("nope") end`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := newRuntime(t)
			mustExec(t, rt, tt.code)

			_, err := rt.Connect(testContext(t), &spyReceiver{})
			if err == nil {
				t.Fatal("Connect succeeded")
			}
		})
	}

	rt := newRuntime(t)
	mustExec(t, rt, `EventBus = nil`)
	if _, err := rt.Connect(testContext(t), &spyReceiver{}); !errors.Is(err, ErrNoEventBus) {
		t.Errorf("error = %v, want ErrNoEventBus", err)
	}
}

func TestReloadRepeatsHandshake(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.lua")
	write := func(tag string) {
		t.Helper()
		code := `
sent = sent or ""
function EventBus(host)
  return { send = function(name) sent = "` + tag + `:" .. name end }
end
function result() return sent end
`
		if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("v1")

	rt := newRuntime(t, WithScriptFile(path))
	proxy, err := rt.Connect(testContext(t), &spyReceiver{})
	if err != nil {
		t.Fatalf("Connect error = %v", err)
	}
	_ = proxy.Send("first", []byte(`{}`))
	if got := invokeString(t, rt, "result"); got != "v1:first" {
		t.Fatalf("result = %q, want v1:first", got)
	}

	write("v2")
	if err := rt.Reload(testContext(t)); err != nil {
		t.Fatalf("Reload error = %v", err)
	}
	_ = proxy.Send("second", []byte(`{}`))
	if got := invokeString(t, rt, "result"); got != "v2:second" {
		t.Errorf("result = %q, want v2:second", got)
	}
}

type CustomerSelected struct {
	CustomerID int
	Name       string
}

func TestAggregatorRoundTrip(t *testing.T) {
	rt := newRuntime(t)
	mustExec(t, rt, `
lastId = 0
bus.on("CustomerSelected", function(v) lastId = v.customerId end)
function result() return tostring(lastId) end
`)

	types := event.NewTypes()
	event.MustBind[CustomerSelected](types, "CustomerSelected")
	agg := event.New(types, rt, event.WithLogger(slog.New(slog.DiscardHandler)))
	if err := agg.WaitConnected(testContext(t)); err != nil {
		t.Fatalf("WaitConnected error = %v", err)
	}

	got := make(chan CustomerSelected, 1)
	event.ChannelFor[CustomerSelected](agg).Subscribe(func(_ context.Context, c CustomerSelected) error {
		got <- c
		return nil
	})

	mustExec(t, rt, `bus.publish("CustomerSelected", { customerId = 7, name = "Ada" })`)
	select {
	case c := <-got:
		if c.CustomerID != 7 || c.Name != "Ada" {
			t.Errorf("received %+v", c)
		}
	case <-time.After(time.Second):
		t.Fatal("Go subscriber not called")
	}

	event.Publish(testContext(t), agg, CustomerSelected{CustomerID: 8, Name: "Bo"})
	<-got
	if s := invokeString(t, rt, "result"); s != "8" {
		t.Errorf("script saw customer %s, want 8", s)
	}
}
