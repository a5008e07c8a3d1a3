package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/reactor/internal/event"
)

// Default runtime limits.
const (
	DefaultTimeout     = 5 * time.Second
	DefaultReloadDelay = 100 * time.Millisecond
)

// ErrAlreadyStarted is returned by Start on a running runtime.
var ErrAlreadyStarted = errors.New("script runtime already started")

// Sourcer is implemented by modules that ship Lua code. The code runs after
// every module is registered and before the script file, so a script can
// replace what it defines.
type Sourcer interface {
	Source() string
}

// Runtime is the embedded script environment.
type Runtime struct {
	logger       *slog.Logger
	scriptLogger *slog.Logger
	path         string
	queueSize    int
	timeout      time.Duration
	reloadDelay  time.Duration
	navigator    Navigator
	extra        []Module

	state  *State
	exec   *Executor
	bridge *Bridge
	bus    *busModule

	mu       sync.Mutex
	modules  []Module
	started  bool
	closed   bool
	cancel   context.CancelFunc
	stopped  chan struct{}
	receiver event.Receiver

	// Owned by the executor goroutine.
	send      *lua.LFunction
	connected bool
}

var _ event.Connector = (*Runtime)(nil)

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithScriptFile sets the script loaded at start and on reload.
func WithScriptFile(path string) Option {
	return func(r *Runtime) {
		r.path = path
	}
}

// WithQueueSize sets the executor queue capacity.
func WithQueueSize(n int) Option {
	return func(r *Runtime) {
		r.queueSize = n
	}
}

// WithTimeout bounds each call into Lua. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(r *Runtime) {
		r.timeout = d
	}
}

// WithReloadDelay sets how long Watch waits for file events to settle.
func WithReloadDelay(d time.Duration) Option {
	return func(r *Runtime) {
		if d > 0 {
			r.reloadDelay = d
		}
	}
}

// WithNavigator enables the nav module.
func WithNavigator(n Navigator) Option {
	return func(r *Runtime) {
		r.navigator = n
	}
}

// WithModule adds a module installed at start.
func WithModule(m Module) Option {
	return func(r *Runtime) {
		r.extra = append(r.extra, m)
	}
}

// New creates a runtime. Nothing runs until Start.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		logger:      slog.Default(),
		queueSize:   DefaultQueueSize,
		timeout:     DefaultTimeout,
		reloadDelay: DefaultReloadDelay,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "script")
	r.scriptLogger = r.logger.With("source", "lua")

	r.state = NewState(r.scriptLogger)
	r.bridge = NewBridge(r.state.L)
	r.exec = NewExecutor(r.state.L, r.queueSize, r.timeout)
	r.bus = newBusModule(r)

	r.modules = []Module{r.bus, &logModule{rt: r}, &jsonModule{rt: r}}
	if r.navigator != nil {
		r.modules = append(r.modules, &navModule{rt: r, nav: r.navigator})
	}
	r.modules = append(r.modules, r.extra...)
	r.extra = nil
	return r
}

// Install adds a module. On a running runtime it is registered immediately.
func (r *Runtime) Install(ctx context.Context, m Module) error {
	r.mu.Lock()
	r.modules = append(r.modules, m)
	started := r.started
	r.mu.Unlock()

	if !started {
		return nil
	}
	return r.exec.Execute(ctx, func(L *lua.LState) error {
		return r.register(L, m)
	})
}

// Start runs the executor goroutine, installs the modules and loads the
// script file. ctx bounds the initial load only; the runtime lives until
// Close.
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrStateClosed
	}
	if r.started {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(context.Background())
	r.started = true
	r.cancel = cancel
	r.stopped = make(chan struct{})
	stopped := r.stopped
	r.mu.Unlock()

	go func() {
		defer close(stopped)
		r.exec.Run(runCtx)
	}()

	if err := r.exec.Execute(ctx, r.load); err != nil {
		return err
	}
	r.logger.Info("script runtime started", "path", r.path)
	return nil
}

// Started reports whether Start has been called.
func (r *Runtime) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started && !r.closed
}

// Path returns the script file path, if any.
func (r *Runtime) Path() string {
	return r.path
}

// Reload clears the script state and loads everything again. Script-side
// handlers are dropped; a connected event bus is handshaken again.
func (r *Runtime) Reload(ctx context.Context) error {
	if !r.Started() {
		return ErrNotStarted
	}
	return r.exec.Execute(ctx, func(L *lua.LState) error {
		if err := r.state.Reset(); err != nil {
			return err
		}
		r.send = nil
		return r.load(L)
	})
}

// Exec runs code in the script state.
func (r *Runtime) Exec(ctx context.Context, code string) error {
	if !r.Started() {
		return ErrNotStarted
	}
	return r.exec.Execute(ctx, func(*lua.LState) error {
		return r.state.DoString(code)
	})
}

func (r *Runtime) load(L *lua.LState) error {
	r.mu.Lock()
	modules := append([]Module(nil), r.modules...)
	r.mu.Unlock()

	for _, m := range modules {
		if err := r.register(L, m); err != nil {
			return err
		}
	}
	if r.path != "" {
		if err := r.state.DoFile(r.path); err != nil {
			return fmt.Errorf("load %s: %w", r.path, err)
		}
	}
	if r.connected {
		if err := r.handshake(L); err != nil {
			r.connected = false
			return fmt.Errorf("script handshake: %w", err)
		}
	}
	return nil
}

func (r *Runtime) register(L *lua.LState, m Module) error {
	name := m.Name()
	if err := m.Register(L); err != nil {
		return fmt.Errorf("register module %s: %w", name, err)
	}
	L.PreloadModule(name, func(L *lua.LState) int {
		L.Push(L.GetGlobal(name))
		return 1
	})
	if s, ok := m.(Sourcer); ok {
		if err := r.state.DoString(s.Source()); err != nil {
			return fmt.Errorf("module %s source: %w", name, err)
		}
	}
	return nil
}

// Invoke calls the script function at path, a dotted path from the globals
// table such as "Clipboard.read_text", and returns its results.
func (r *Runtime) Invoke(ctx context.Context, path string, args ...any) ([]any, error) {
	if !r.Started() {
		return nil, ErrNotStarted
	}
	var out []any
	err := r.exec.Execute(ctx, func(L *lua.LState) error {
		fn, err := lookupFunction(L, path)
		if err != nil {
			return err
		}
		out, err = r.bridge.CallFunc(fn, args...)
		return err
	})
	return out, err
}

// InvokeVoid calls the script function at path and discards its results.
func (r *Runtime) InvokeVoid(ctx context.Context, path string, args ...any) error {
	_, err := r.Invoke(ctx, path, args...)
	return err
}

// InvokeAsync queues a call to the script function at path without waiting.
// Failures are logged. It is safe to use from code that may itself be
// running on the script goroutine.
func (r *Runtime) InvokeAsync(path string, args ...any) error {
	if !r.Started() {
		return ErrNotStarted
	}
	return r.exec.ExecuteAsync(func(L *lua.LState) error {
		fn, err := lookupFunction(L, path)
		if err != nil {
			return err
		}
		_, err = r.bridge.CallFunc(fn, args...)
		return err
	}, func(err error) {
		r.logger.Warn("script call failed", "function", path, "error", err)
	})
}

func lookupFunction(L *lua.LState, path string) (*lua.LFunction, error) {
	parts := strings.Split(path, ".")
	v := L.GetGlobal(parts[0])
	for _, part := range parts[1:] {
		t, ok := v.(*lua.LTable)
		if !ok {
			return nil, &FunctionError{Path: path, Got: v.Type().String()}
		}
		v = L.GetField(t, part)
	}
	fn, ok := v.(*lua.LFunction)
	if !ok {
		return nil, &FunctionError{Path: path, Got: v.Type().String()}
	}
	return fn, nil
}

// Close stops the executor and releases the Lua state.
func (r *Runtime) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	cancel, stopped := r.cancel, r.stopped
	r.mu.Unlock()

	r.exec.Close()
	if cancel != nil {
		cancel()
		<-stopped
	}
	return r.state.Close()
}
