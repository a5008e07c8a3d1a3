package app

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/dshills/reactor/internal/clipboard"
	"github.com/dshills/reactor/internal/event"
	"github.com/dshills/reactor/internal/event/dispatch"
	"github.com/dshills/reactor/internal/host/terminal"
	"github.com/dshills/reactor/internal/logging"
	"github.com/dshills/reactor/internal/navigation"
	"github.com/dshills/reactor/internal/region"
	"github.com/dshills/reactor/internal/script"
	"github.com/dshills/reactor/internal/telemetry"
)

// bootstrapper handles component initialization with proper cleanup on failure.
type bootstrapper struct {
	app  *Application
	opts Options
}

// newBootstrapper creates a new bootstrapper for the application.
func newBootstrapper(app *Application, opts Options) *bootstrapper {
	return &bootstrapper{app: app, opts: opts}
}

// bootstrap initializes all components in dependency order.
// On failure, it cleans up already-initialized components.
func (b *bootstrapper) bootstrap(ctx context.Context) error {
	steps := []func(context.Context) error{
		b.initLogging,
		b.initDispatch,
		b.initNavigation,
		b.initHost,
		b.initScript,
		b.initEvents,
		b.initTelemetry,
		b.initStart,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			b.cleanup()
			return err
		}
	}
	return nil
}

// initLogging builds the handler chain: the configured sink, wrapped by the
// telemetry forwarder when a telemetry level is set.
func (b *bootstrapper) initLogging(context.Context) error {
	cfg := b.app.config
	lc := cfg.LogConfig()
	lc.Output = b.opts.LogOutput
	if lc.Output == nil {
		lc.Output = os.Stderr
	}
	base, closeLog, err := logging.New(lc)
	if err != nil {
		return &InitError{Component: "logging", Err: err}
	}
	b.app.closeLog = closeLog

	// The tracker logs through the base handler so its own records are
	// never forwarded back to the script.
	b.app.telemetry = telemetry.New(telemetry.WithLogger(slog.New(base)))

	handler := base
	if cfg.Log.TelemetryLevel != "" {
		handler = telemetry.NewHandler(b.app.telemetry, base, logging.ParseLevel(cfg.Log.TelemetryLevel))
	}
	b.app.logger = slog.New(handler)
	b.app.initOrder = append(b.app.initOrder, "logging")
	return nil
}

// initDispatch starts the loop that runs event subscribers.
func (b *bootstrapper) initDispatch(context.Context) error {
	logger := b.app.logger.With("component", "dispatch")
	b.app.loop = dispatch.NewLoop(
		dispatch.WithQueueSize(b.app.config.Dispatch.QueueSize),
		dispatch.WithPanicHandler(func(v any, stack []byte) {
			logger.Error("subscriber panicked", "panic", v, "stack", string(stack))
		}),
	)
	if err := b.app.loop.Start(); err != nil {
		return &InitError{Component: "dispatch", Err: err}
	}
	b.app.initOrder = append(b.app.initOrder, "dispatch")
	return nil
}

// initNavigation creates the region registry, the router and its history.
func (b *bootstrapper) initNavigation(context.Context) error {
	app := b.app
	app.regions = region.NewRegistry(region.WithLogger(app.logger))
	app.router = navigation.NewRouter(app.regions,
		navigation.WithScheme(app.config.Navigation.Scheme),
		navigation.WithLogger(app.logger),
	)
	app.history = navigation.NewHistory(app.router)
	app.nav = &navigator{router: app.router, history: app.history}
	if err := registerViews(app.regions, app.router); err != nil {
		return &InitError{Component: "navigation", Err: err}
	}
	app.initOrder = append(app.initOrder, "navigation")
	return nil
}

// initHost creates one region per layout entry, drawn on the screen when
// there is one.
func (b *bootstrapper) initHost(context.Context) error {
	app := b.app
	ui := app.config.UI
	app.shown = newRecorder(app.logger.With("component", "regions"))

	var panes []terminal.Pane
	for _, l := range ui.Regions {
		kind, ok := terminal.ParseKind(l.Kind)
		if !ok {
			return &InitError{Component: "terminal", Err: errors.New("unknown region kind " + l.Kind)}
		}
		panes = append(panes, terminal.Pane{Name: l.Name, Kind: kind, Weight: l.Weight})
	}

	if b.opts.Screen != nil {
		if err := b.opts.Screen.Init(); err != nil {
			return &InitError{Component: "terminal", Err: err}
		}
		app.screen = b.opts.Screen
		app.initOrder = append(app.initOrder, "screen")

		opts := []terminal.Option{
			terminal.WithLogger(app.logger),
			terminal.WithTitle(ui.Title),
			terminal.WithKeyHandler(app.handleKey),
		}
		if c, err := ui.Border(); err == nil {
			opts = append(opts, terminal.WithBorderColor(c))
		}
		host, err := terminal.New(app.screen, panes, opts...)
		if err != nil {
			return &InitError{Component: "terminal", Err: err}
		}
		app.host = host
	}

	for _, p := range panes {
		name := region.Canonical(p.Name)
		var err error
		switch p.Kind {
		case terminal.KindList:
			var next region.ListHost
			if app.host != nil {
				pane, perr := app.host.ListPane(p.Name)
				if perr != nil {
					return &InitError{Component: "terminal", Err: perr}
				}
				next = pane
			}
			_, err = app.regions.AssociateListRegion(app.shown.list(name, next), p.Name)
		default:
			var next region.ContentHost
			if app.host != nil {
				pane, perr := app.host.ContentPane(p.Name)
				if perr != nil {
					return &InitError{Component: "terminal", Err: perr}
				}
				next = pane
			}
			_, err = app.regions.AssociateRegion(app.shown.content(name, next), p.Name)
		}
		if err != nil {
			return &InitError{Component: "regions", Err: err}
		}
	}
	return nil
}

// initScript starts the Lua runtime with the clipboard and telemetry sinks
// installed.
func (b *bootstrapper) initScript(ctx context.Context) error {
	app := b.app
	sc := app.config.Script
	app.script = script.New(
		script.WithLogger(app.logger),
		script.WithScriptFile(sc.Path),
		script.WithQueueSize(sc.QueueSize),
		script.WithTimeout(sc.Timeout.Std()),
		script.WithReloadDelay(sc.ReloadDelay.Std()),
		script.WithNavigator(app.nav),
	)
	app.initOrder = append(app.initOrder, "script")

	app.clipboard = clipboard.New(app.script, clipboard.WithLogger(app.logger))
	for _, m := range []script.Module{app.clipboard, app.telemetry} {
		if err := app.script.Install(ctx, m); err != nil {
			return &InitError{Component: "script", Err: err}
		}
	}
	if err := app.script.Start(ctx); err != nil {
		return &InitError{Component: "script", Err: err}
	}
	return nil
}

// initEvents creates the aggregator bridged to the script runtime and
// subscribes the application handlers.
func (b *bootstrapper) initEvents(context.Context) error {
	app := b.app
	app.types = event.NewTypes()
	bindEvents(app.types)
	app.events = event.New(app.types, app.script,
		event.WithLogger(app.logger),
		event.WithDispatch(app.loop),
		event.WithConnectPolicy(app.config.ConnectPolicy()),
	)
	app.subscribe()
	app.initOrder = append(app.initOrder, "events")
	return nil
}

// initTelemetry attaches the tracker to the running script.
func (b *bootstrapper) initTelemetry(context.Context) error {
	if err := b.app.telemetry.Init(b.app.script); err != nil {
		return &InitError{Component: "telemetry", Err: err}
	}
	return nil
}

// initStart performs the configured start navigations. Failures are logged.
func (b *bootstrapper) initStart(context.Context) error {
	for _, loc := range b.app.config.Navigation.Start {
		if _, err := b.app.nav.Navigate(loc); err != nil {
			b.app.logger.Warn("start navigation failed", "locator", loc, "error", err)
		}
	}
	return nil
}

// cleanup performs cleanup in reverse initialization order.
// Called when bootstrap fails partway through.
func (b *bootstrapper) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := shutdown(ctx, b.app, b.app.initOrder); err != nil && b.app.logger != nil {
		b.app.logger.Warn("cleanup after failed start", "error", err)
	}
	b.app.initOrder = nil
}

// shutdown stops the components named in order, last first.
func shutdown(ctx context.Context, app *Application, order []string) error {
	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		if err := shutdownComponent(ctx, app, order[i]); err != nil {
			errs = append(errs, &ComponentError{Component: order[i], Action: "shutdown", Err: err})
		}
	}
	return errors.Join(errs...)
}

// shutdownComponent stops a single component.
func shutdownComponent(ctx context.Context, app *Application, component string) error {
	switch component {
	case "logging":
		if app.closeLog != nil {
			return app.closeLog()
		}
	case "dispatch":
		if app.loop != nil && app.loop.IsRunning() {
			return app.loop.Stop(ctx)
		}
	case "screen":
		if app.screen != nil {
			app.screen.Fini()
		}
	case "script":
		if app.script != nil {
			return app.script.Close()
		}
	case "events":
		if app.events != nil {
			stats := app.events.Stats()
			app.logger.Debug("event statistics",
				"channels", stats.Channels,
				"received", stats.Received,
				"forwarded", stats.Forwarded,
				"bridge_failures", stats.BridgeFailures,
			)
		}
	}
	return nil
}
