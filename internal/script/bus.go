package script

import (
	"strconv"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/reactor/internal/event/topic"
)

type busHandler struct {
	id   string
	fn   *lua.LFunction
	once bool
}

// busModule is the script-side event bus. All of its state is owned by the
// executor goroutine.
type busModule struct {
	rt       *Runtime
	handlers *topic.Matcher[*busHandler]
	nextID   uint64

	// receive is the host's receive function captured by the default EventBus.
	receive *lua.LFunction
}

func newBusModule(rt *Runtime) *busModule {
	return &busModule{rt: rt, handlers: topic.NewMatcher[*busHandler]()}
}

func (m *busModule) Name() string { return "bus" }

// Register installs the bus table and the default EventBus entry point.
// Handlers from a previous load are dropped.
func (m *busModule) Register(L *lua.LState) error {
	m.handlers.Clear()
	m.receive = nil

	mod := L.NewTable()
	L.SetFuncs(mod, map[string]lua.LGFunction{
		"on":       m.on,
		"once":     m.once,
		"off":      m.off,
		"publish":  m.publish,
		"dispatch": m.dispatchLua,
		"count":    m.count,
	})
	L.SetGlobal("bus", mod)
	L.SetGlobal("EventBus", L.NewFunction(m.eventBus))
	return nil
}

// on(pattern, fn) -> id
func (m *busModule) on(L *lua.LState) int {
	return m.subscribe(L, false)
}

// once(pattern, fn) -> id
func (m *busModule) once(L *lua.LState) int {
	return m.subscribe(L, true)
}

func (m *busModule) subscribe(L *lua.LState, once bool) int {
	pattern, err := topic.ParsePattern(L.CheckString(1))
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}
	fn := L.CheckFunction(2)

	m.nextID++
	h := &busHandler{id: "bus_" + strconv.FormatUint(m.nextID, 10), fn: fn, once: once}
	m.handlers.Add(pattern, h.id, h)

	L.Push(lua.LString(h.id))
	return 1
}

// off(id) -> bool
func (m *busModule) off(L *lua.LState) int {
	L.Push(lua.LBool(m.handlers.Remove(L.CheckString(1))))
	return 1
}

func (m *busModule) count(L *lua.LState) int {
	L.Push(lua.LNumber(m.handlers.Count()))
	return 1
}

// publish(name, value) delivers value to matching script handlers and then
// to the host, if the default EventBus has been connected.
func (m *busModule) publish(L *lua.LState) int {
	name, err := topic.Parse(L.CheckString(1))
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}
	value := L.Get(2)

	m.deliver(L, name, value)

	if m.receive == nil {
		return 0
	}
	payload, err := m.rt.bridge.EncodeJSON(value)
	if err != nil {
		L.RaiseError("publish %s: %v", name, err)
		return 0
	}
	L.Push(m.receive)
	L.Push(lua.LString(name.String()))
	L.Push(lua.LString(payload))
	L.Call(2, 0)
	return 0
}

// dispatch(name, json) delivers a JSON payload to script handlers only.
func (m *busModule) dispatchLua(L *lua.LState) int {
	m.dispatch(L, L.CheckString(1), []byte(L.CheckString(2)))
	return 0
}

// dispatch decodes a payload arriving from the host and delivers it.
func (m *busModule) dispatch(L *lua.LState, name string, payload []byte) {
	t, err := topic.Parse(name)
	if err != nil {
		m.rt.logger.Warn("script event dropped", "event", name, "error", err)
		return
	}
	value, err := m.rt.bridge.DecodeJSON(payload)
	if err != nil {
		m.rt.logger.Warn("script event dropped", "event", name, "error", err)
		return
	}
	m.deliver(L, t, value)
}

// deliver calls every handler matching name in subscription order. A
// failing handler is logged and does not stop delivery to the rest.
func (m *busModule) deliver(L *lua.LState, name topic.Topic, value lua.LValue) {
	for _, h := range m.handlers.Match(name) {
		if h.once && !m.handlers.Remove(h.id) {
			continue
		}
		err := L.CallByParam(lua.P{Fn: h.fn, NRet: 0, Protect: true}, value, lua.LString(name.String()))
		if err != nil {
			m.rt.logger.Warn("script handler failed", "event", name.String(), "handler", h.id, "error", err)
		}
	}
}

// eventBus(host) -> proxy is the default handshake. The returned proxy's
// send delivers host events to bus handlers.
func (m *busModule) eventBus(L *lua.LState) int {
	host := L.CheckTable(1)
	receive, ok := host.RawGetString("receive").(*lua.LFunction)
	if !ok {
		L.ArgError(1, "host has no receive function")
		return 0
	}
	m.receive = receive

	proxy := L.NewTable()
	L.SetField(proxy, "send", L.NewFunction(func(L *lua.LState) int {
		m.dispatch(L, L.CheckString(1), []byte(L.CheckString(2)))
		return 0
	}))
	L.Push(proxy)
	return 1
}
