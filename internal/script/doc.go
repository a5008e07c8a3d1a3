// Package script hosts the embedded Lua runtime that plays the role of the
// second execution environment of the application.
//
// A Runtime owns one sandboxed gopher-lua state. gopher-lua states are not
// goroutine-safe, so every call into Lua is marshalled onto a single goroutine
// by an Executor. Go code reaches the script through Invoke and InvokeVoid,
// which call a global function by dotted path:
//
//	rt.InvokeVoid(ctx, "Telemetry.track_event", "opened", props)
//
// The Runtime also implements event.Connector. Connect calls the script's
// global EventBus(host) function; the returned table must carry a
// send(name, payload) function that receives outbound events. The host table
// passed in has receive(name, payload) for events flowing back into Go. When
// the script does not define EventBus, a built-in one backed by the bus
// module is used:
//
//	bus.on("sales.*", function(value, name) ... end)
//	bus.publish("sales.customer.selected", { customerId = 42 })
//
// Built-in modules: bus, nav, log and json. Extra modules are added with
// Install before Start.
package script
