package script

import (
	"cmp"
	"context"
	"log/slog"
	"slices"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/reactor/internal/region"
)

// Module is a Lua API table installed by the runtime.
type Module interface {
	// Name returns the global the module is installed under.
	Name() string

	// Register installs the module into L. It runs on the executor
	// goroutine at start and again after every reload.
	Register(L *lua.LState) error
}

// Navigator performs navigation requests made by scripts.
// *navigation.Router satisfies it.
type Navigator interface {
	Navigate(locator string, params ...region.ControlParameter) (region.ControlToken, error)
	NavigateTo(regionName, name string, params ...region.ControlParameter) (region.ControlToken, error)
}

// BackNavigator is a Navigator that also keeps history.
type BackNavigator interface {
	Navigator
	GoBack() (region.ControlToken, bool, error)
}

type navModule struct {
	rt  *Runtime
	nav Navigator
}

func (m *navModule) Name() string { return "nav" }

func (m *navModule) Register(L *lua.LState) error {
	mod := L.NewTable()
	L.SetFuncs(mod, map[string]lua.LGFunction{
		"navigate": m.navigate,
		"go":       m.goTo,
		"back":     m.back,
	})
	L.SetGlobal("nav", mod)
	return nil
}

// navigate(locator, params?) -> token | nil, err
func (m *navModule) navigate(L *lua.LState) int {
	locator := L.CheckString(1)
	params := m.params(L.OptTable(2, nil))
	return m.result(L, func() (region.ControlToken, error) {
		return m.nav.Navigate(locator, params...)
	})
}

// go(region, name, params?) -> token | nil, err
func (m *navModule) goTo(L *lua.LState) int {
	regionName := L.CheckString(1)
	name := L.CheckString(2)
	params := m.params(L.OptTable(3, nil))
	return m.result(L, func() (region.ControlToken, error) {
		return m.nav.NavigateTo(regionName, name, params...)
	})
}

// back() -> token | nil, err
func (m *navModule) back(L *lua.LState) int {
	bn, ok := m.nav.(BackNavigator)
	if !ok {
		L.Push(lua.LNil)
		L.Push(lua.LString("navigation history not available"))
		return 2
	}
	token, moved, err := bn.GoBack()
	if err != nil || !moved {
		L.Push(lua.LNil)
		if err != nil {
			L.Push(lua.LString(err.Error()))
			return 2
		}
		return 1
	}
	L.Push(lua.LString(token.String()))
	return 1
}

func (m *navModule) result(L *lua.LState, fn func() (region.ControlToken, error)) int {
	if m.nav == nil {
		L.Push(lua.LNil)
		L.Push(lua.LString("navigation not available"))
		return 2
	}
	token, err := fn()
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LString(token.String()))
	return 1
}

// params converts a table of name = value pairs, sorted by name.
func (m *navModule) params(t *lua.LTable) []region.ControlParameter {
	if t == nil {
		return nil
	}
	values, ok := m.rt.bridge.ToGoValue(t).(map[string]any)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	slices.Sort(names)

	params := make([]region.ControlParameter, 0, len(names))
	for _, name := range names {
		params = append(params, region.Param(name, values[name]))
	}
	return params
}

type logModule struct {
	rt *Runtime
}

func (m *logModule) Name() string { return "log" }

func (m *logModule) Register(L *lua.LState) error {
	mod := L.NewTable()
	L.SetFuncs(mod, map[string]lua.LGFunction{
		"debug": m.logger(slog.LevelDebug),
		"info":  m.logger(slog.LevelInfo),
		"warn":  m.logger(slog.LevelWarn),
		"error": m.logger(slog.LevelError),
	})
	L.SetGlobal("log", mod)
	return nil
}

// logger returns log.<level>(msg, fields?).
func (m *logModule) logger(level slog.Level) lua.LGFunction {
	return func(L *lua.LState) int {
		msg := L.CheckString(1)
		var attrs []slog.Attr
		if fields := L.OptTable(2, nil); fields != nil {
			if values, ok := m.rt.bridge.ToGoValue(fields).(map[string]any); ok {
				for k, v := range values {
					attrs = append(attrs, slog.Any(k, v))
				}
				slices.SortFunc(attrs, func(a, b slog.Attr) int {
					return cmp.Compare(a.Key, b.Key)
				})
			}
		}
		m.rt.scriptLogger.LogAttrs(context.Background(), level, msg, attrs...)
		return 0
	}
}

type jsonModule struct {
	rt *Runtime
}

func (m *jsonModule) Name() string { return "json" }

func (m *jsonModule) Register(L *lua.LState) error {
	mod := L.NewTable()
	L.SetFuncs(mod, map[string]lua.LGFunction{
		"encode": m.encode,
		"decode": m.decode,
	})
	L.SetGlobal("json", mod)
	return nil
}

// encode(value) -> string
func (m *jsonModule) encode(L *lua.LState) int {
	data, err := m.rt.bridge.EncodeJSON(L.CheckAny(1))
	if err != nil {
		L.RaiseError("json.encode: %v", err)
		return 0
	}
	L.Push(lua.LString(data))
	return 1
}

// decode(string) -> value | nil, err
func (m *jsonModule) decode(L *lua.LState) int {
	v, err := m.rt.bridge.DecodeJSON([]byte(L.CheckString(1)))
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(v)
	return 1
}
