package script

import (
	"fmt"
	"log/slog"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// State wraps a sandboxed gopher-lua state.
//
// gopher-lua's LState is not goroutine-safe. The mutex guards against
// concurrent access from Go code, but callers are expected to route all work
// through an Executor so Lua only ever runs on one goroutine.
type State struct {
	L *lua.LState

	mu      sync.Mutex
	sandbox *Sandbox
	closed  bool
}

// NewState creates a sandboxed Lua state. print output goes to logger.
func NewState(logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	openSafeLibraries(L)

	s := &State{
		L:       L,
		sandbox: NewSandbox(L, logger),
	}
	s.sandbox.Install()
	return s
}

// openSafeLibraries opens only the libraries a script needs.
// io, os, debug and channel are never opened.
func openSafeLibraries(L *lua.LState) {
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage},
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
		{lua.CoroutineLibName, lua.OpenCoroutine},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
}

// DoFile executes a Lua file.
func (s *State) DoFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}
	return s.doWithRecovery(func() error {
		return s.L.DoFile(path)
	})
}

// DoString executes a chunk of Lua code.
func (s *State) DoString(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}
	return s.doWithRecovery(func() error {
		return s.L.DoString(code)
	})
}

func (s *State) doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// Sandbox returns the state's sandbox.
func (s *State) Sandbox() *Sandbox {
	return s.sandbox
}

// IsClosed returns true if the state has been closed.
func (s *State) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases the Lua state. Close is idempotent.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}

// Reset removes every global that is not part of the sandboxed standard
// library, so a script can be loaded again from scratch.
func (s *State) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}

	globals := s.L.Get(lua.GlobalsIndex).(*lua.LTable)
	var remove []string
	globals.ForEach(func(k, _ lua.LValue) {
		if ks, ok := k.(lua.LString); ok && !builtinGlobals[string(ks)] {
			remove = append(remove, string(ks))
		}
	})
	for _, k := range remove {
		s.L.SetGlobal(k, lua.LNil)
	}
	s.sandbox.clearLoaded()
	return nil
}

var builtinGlobals = map[string]bool{
	"_G": true, "_VERSION": true,
	"assert": true, "error": true, "getmetatable": true,
	"ipairs": true, "next": true, "pairs": true, "pcall": true,
	"print": true, "rawequal": true, "rawget": true, "rawlen": true,
	"rawset": true, "select": true, "setmetatable": true,
	"tonumber": true, "tostring": true, "type": true, "xpcall": true,
	"unpack": true, "require": true, "module": true, "package": true,
	"collectgarbage": true, "newproxy": true, "_printregs": true, "getfenv": true, "setfenv": true,
	"coroutine": true, "math": true, "string": true, "table": true,
}
