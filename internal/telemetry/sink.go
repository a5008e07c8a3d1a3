package telemetry

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/reactor/internal/script"
)

const sinkName = "Telemetry"

var sinkFunctions = []string{
	"track_page_view",
	"track_event",
	"track_trace",
	"track_exception",
	"start_track_page",
	"stop_track_page",
	"track_metric",
	"track_dependency",
	"set_authenticated_user",
	"clear_authenticated_user",
}

// Name returns the script global of the telemetry sink.
func (t *Tracker) Name() string { return sinkName }

// Register installs the default Telemetry sink, which writes every item to
// the tracker's log at debug level. A script takes over by assigning its
// own Telemetry table.
func (t *Tracker) Register(L *lua.LState) error {
	bridge := script.NewBridge(L)
	sink := L.NewTable()
	for _, name := range sinkFunctions {
		L.SetField(sink, name, L.NewFunction(func(L *lua.LState) int {
			args := make([]any, 0, L.GetTop())
			for i := 1; i <= L.GetTop(); i++ {
				args = append(args, bridge.ToGoValue(L.Get(i)))
			}
			t.sunk.Add(1)
			t.logger.Debug("telemetry", "call", name, "args", args)
			return 0
		}))
	}
	L.SetField(sink, "flush", L.NewFunction(func(L *lua.LState) int {
		t.logger.Debug("telemetry flushed", "items", t.sunk.Load())
		return 0
	}))
	L.SetGlobal(sinkName, sink)
	return nil
}

// Sunk returns the number of items handled by the default sink.
func (t *Tracker) Sunk() int64 {
	return t.sunk.Load()
}
