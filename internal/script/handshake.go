package script

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/reactor/internal/event"
)

// Connect performs the event bus handshake: the script's global
// EventBus(host) is called with a host table whose receive(name, payload)
// forwards to receiver. The table it returns must have a send function.
func (r *Runtime) Connect(ctx context.Context, receiver event.Receiver) (event.Proxy, error) {
	if !r.Started() {
		return nil, ErrNotStarted
	}
	r.mu.Lock()
	r.receiver = receiver
	r.mu.Unlock()

	err := r.exec.Execute(ctx, func(L *lua.LState) error {
		if err := r.handshake(L); err != nil {
			return err
		}
		r.connected = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("script handshake: %w", err)
	}
	return &proxy{rt: r}, nil
}

func (r *Runtime) handshake(L *lua.LState) error {
	fn, ok := L.GetGlobal("EventBus").(*lua.LFunction)
	if !ok {
		return ErrNoEventBus
	}

	host := L.NewTable()
	L.SetField(host, "receive", L.NewFunction(r.hostReceive))
	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, host); err != nil {
		return err
	}
	ret := L.Get(-1)
	L.Pop(1)

	t, ok := ret.(*lua.LTable)
	if !ok {
		return fmt.Errorf("%w: EventBus returned %s", ErrNoEventBus, ret.Type())
	}
	send, ok := t.RawGetString("send").(*lua.LFunction)
	if !ok {
		return fmt.Errorf("%w: proxy has no send function", ErrNoEventBus)
	}
	r.send = send
	return nil
}

// hostReceive is host.receive(name, payload).
func (r *Runtime) hostReceive(L *lua.LState) int {
	name := L.CheckString(1)
	payload := L.CheckString(2)

	r.mu.Lock()
	receiver := r.receiver
	r.mu.Unlock()

	if receiver != nil {
		receiver.Receive(name, []byte(payload))
	}
	return 0
}

// proxy sends host events into the script.
type proxy struct {
	rt *Runtime
}

// Send queues a call to the script's send function and returns without
// waiting for it.
func (p *proxy) Send(name string, payload []byte) error {
	r := p.rt
	return r.exec.ExecuteAsync(func(L *lua.LState) error {
		if r.send == nil {
			return ErrNotConnected
		}
		return L.CallByParam(lua.P{Fn: r.send, NRet: 0, Protect: true}, lua.LString(name), lua.LString(payload))
	}, func(err error) {
		r.logger.Warn("script send failed", "event", name, "error", err)
	})
}
