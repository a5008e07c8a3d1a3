package script

import (
	"log/slog"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// Sandbox restricts what a script can reach.
type Sandbox struct {
	L      *lua.LState
	logger *slog.Logger
}

// NewSandbox creates a sandbox for L. print output is written to logger.
func NewSandbox(L *lua.LState, logger *slog.Logger) *Sandbox {
	return &Sandbox{L: L, logger: logger}
}

var safeModules = map[string]bool{
	"_G": true, "string": true, "table": true, "math": true,
	"coroutine": true, "package": true,
}

// Install removes loaders that reach the file system and replaces print and
// require with restricted versions.
func (s *Sandbox) Install() {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		s.L.SetGlobal(name, lua.LNil)
	}
	s.installPrint()
	s.installRequire()
}

func (s *Sandbox) installPrint() {
	s.L.SetGlobal("print", s.L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		s.logger.Info(strings.Join(parts, "\t"), "source", "print")
		return 0
	}))
}

// installRequire clears the search paths and only lets require load
// builtin libraries and modules registered with PreloadModule.
func (s *Sandbox) installRequire() {
	pkg, ok := s.L.GetGlobal("package").(*lua.LTable)
	if !ok {
		s.L.SetGlobal("require", lua.LNil)
		return
	}
	s.L.SetField(pkg, "path", lua.LString(""))
	s.L.SetField(pkg, "cpath", lua.LString(""))
	s.clearLoaded()

	original := s.L.GetGlobal("require")
	s.L.SetGlobal("require", s.L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		if !safeModules[name] && !s.preloaded(name) {
			L.RaiseError("module %q is not available", name)
			return 0
		}
		L.Push(original)
		L.Push(lua.LString(name))
		L.Call(1, 1)
		return 1
	}))
}

func (s *Sandbox) preloaded(name string) bool {
	pkg, ok := s.L.GetGlobal("package").(*lua.LTable)
	if !ok {
		return false
	}
	preload, ok := s.L.GetField(pkg, "preload").(*lua.LTable)
	if !ok {
		return false
	}
	return preload.RawGetString(name) != lua.LNil
}

// clearLoaded drops every package.loaded entry except the builtin libraries.
func (s *Sandbox) clearLoaded() {
	pkg, ok := s.L.GetGlobal("package").(*lua.LTable)
	if !ok {
		return
	}
	loaded, ok := s.L.GetField(pkg, "loaded").(*lua.LTable)
	if !ok {
		return
	}
	var remove []string
	loaded.ForEach(func(k, _ lua.LValue) {
		if ks, ok := k.(lua.LString); ok && !safeModules[string(ks)] {
			remove = append(remove, string(ks))
		}
	})
	for _, k := range remove {
		loaded.RawSetString(k, lua.LNil)
	}
}
