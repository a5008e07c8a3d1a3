// Package app provides the main application structure and coordination
// for Reactor. It wires regions, navigation, the event aggregator and the
// script runtime together and manages their lifecycle.
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/reactor/internal/clipboard"
	"github.com/dshills/reactor/internal/config"
	"github.com/dshills/reactor/internal/event"
	"github.com/dshills/reactor/internal/event/dispatch"
	"github.com/dshills/reactor/internal/host/terminal"
	"github.com/dshills/reactor/internal/navigation"
	"github.com/dshills/reactor/internal/region"
	"github.com/dshills/reactor/internal/script"
	"github.com/dshills/reactor/internal/telemetry"
)

// ShutdownTimeout bounds Close.
const ShutdownTimeout = 5 * time.Second

// Application is the central coordinator for all Reactor components.
type Application struct {
	config   *config.Config
	logger   *slog.Logger
	closeLog func() error

	loop      *dispatch.Loop
	regions   *region.Registry
	router    *navigation.Router
	history   *navigation.History
	nav       *navigator
	screen    tcell.Screen
	host      *terminal.Host
	shown     *recorder
	script    *script.Runtime
	clipboard *clipboard.Relay
	telemetry *telemetry.Tracker
	types     *event.Types
	events    *event.Aggregator

	initOrder []string
	running   atomic.Bool
	closeOnce sync.Once
	closed    atomic.Bool
}

// Options configures the application.
type Options struct {
	// Config is the loaded configuration. Nil uses config.Default.
	Config *config.Config

	// Screen draws the regions. Nil runs headless.
	Screen tcell.Screen

	// LogOutput receives log records when no log file is configured.
	// Defaults to os.Stderr.
	LogOutput io.Writer
}

// New creates and starts every component. ctx bounds start-up only.
func New(ctx context.Context, opts Options) (*Application, error) {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	app := &Application{config: opts.Config}
	b := newBootstrapper(app, opts)
	if err := b.bootstrap(ctx); err != nil {
		return nil, err
	}
	return app, nil
}

// Run blocks until ctx is done or the user quits. It drives the terminal
// host and, when configured, the script file watcher.
func (app *Application) Run(ctx context.Context) error {
	if app.closed.Load() {
		return ErrClosed
	}
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	g, gctx := errgroup.WithContext(ctx)

	if app.config.Script.Watch {
		g.Go(func() error {
			if err := app.script.Watch(gctx); err != nil {
				return &ComponentError{Component: "script", Action: "watch", Err: err}
			}
			return nil
		})
	}

	g.Go(func() error {
		if app.host == nil {
			<-gctx.Done()
			return nil
		}
		if err := app.host.Run(gctx); err != nil {
			return &ComponentError{Component: "terminal", Action: "run", Err: err}
		}
		if gctx.Err() == nil {
			return ErrQuit
		}
		return nil
	})

	app.logger.Info("application running", "headless", app.host == nil)
	err := g.Wait()
	if errors.Is(err, ErrQuit) {
		return nil
	}
	return err
}

// Close shuts every component down in reverse start order.
func (app *Application) Close() error {
	var err error
	app.closeOnce.Do(func() {
		app.closed.Store(true)
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if app.telemetry != nil && app.script != nil && app.script.Started() {
			if ferr := app.telemetry.Flush(ctx); ferr != nil {
				app.logger.Warn("telemetry flush failed", "error", ferr)
			}
		}
		err = shutdown(ctx, app, app.initOrder)
	})
	return err
}

// Config returns the configuration.
func (app *Application) Config() *config.Config { return app.config }

// Logger returns the application logger.
func (app *Application) Logger() *slog.Logger { return app.logger }

// Regions returns the region registry.
func (app *Application) Regions() *region.Registry { return app.regions }

// Router returns the navigation router.
func (app *Application) Router() *navigation.Router { return app.router }

// History returns the navigation history.
func (app *Application) History() *navigation.History { return app.history }

// Events returns the event aggregator.
func (app *Application) Events() *event.Aggregator { return app.events }

// Script returns the script runtime.
func (app *Application) Script() *script.Runtime { return app.script }

// Clipboard returns the clipboard relay.
func (app *Application) Clipboard() *clipboard.Relay { return app.clipboard }

// Telemetry returns the telemetry tracker.
func (app *Application) Telemetry() *telemetry.Tracker { return app.telemetry }

// Host returns the terminal host, or nil when headless.
func (app *Application) Host() *terminal.Host { return app.host }

// Dispatch returns the loop that runs event subscribers.
func (app *Application) Dispatch() *dispatch.Loop { return app.loop }

// Shown returns the control names the named region currently displays:
// the current control of a content region or the items of a list region.
func (app *Application) Shown(regionName string) []string {
	contents := app.shown.shown(region.Canonical(regionName))
	out := make([]string, len(contents))
	for i, c := range contents {
		out[i] = c.Type.Name()
	}
	return out
}
