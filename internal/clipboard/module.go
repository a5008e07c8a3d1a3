package clipboard

import (
	lua "github.com/yuin/gopher-lua"
)

// Name returns the script global holding the response entry points.
func (r *Relay) Name() string { return "clipboard" }

// Register installs clipboard.receive_read(id, text),
// clipboard.receive_write(id) and clipboard.fail(id, message). Each returns
// true when the id matched a pending request.
func (r *Relay) Register(L *lua.LState) error {
	mod := L.NewTable()
	L.SetFuncs(mod, map[string]lua.LGFunction{
		"receive_read": func(L *lua.LState) int {
			return r.result(L, r.ReceiveReadResponse(L.CheckString(1), L.OptString(2, "")))
		},
		"receive_write": func(L *lua.LState) int {
			return r.result(L, r.ReceiveWriteResponse(L.CheckString(1)))
		},
		"fail": func(L *lua.LState) int {
			return r.result(L, r.ReceiveFailure(L.CheckString(1), L.OptString(2, "failed")))
		},
	})
	L.SetGlobal("clipboard", mod)
	return nil
}

func (r *Relay) result(L *lua.LState, err error) int {
	if err != nil {
		r.logger.Warn("clipboard response dropped", "error", err)
	}
	L.Push(lua.LBool(err == nil))
	return 1
}

// Source defines the default Clipboard sink: a process-local text buffer.
// Scripts replace Clipboard to reach a real clipboard.
func (r *Relay) Source() string {
	return `
Clipboard = {}
do
  local text = ""
  function Clipboard.read_text(id) clipboard.receive_read(id, text) end
  function Clipboard.write_text(id, value) text = value; clipboard.receive_write(id) end
  function Clipboard.is_supported() return true end
end
`
}
