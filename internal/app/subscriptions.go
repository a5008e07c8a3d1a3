package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/reactor/internal/event"
	"github.com/dshills/reactor/internal/navigation"
	"github.com/dshills/reactor/internal/region"
	"github.com/dshills/reactor/internal/telemetry"
)

// keyTimeout bounds script round trips started from the keyboard.
const keyTimeout = 2 * time.Second

// subscribe wires the application handlers to the aggregator and the
// router.
func (app *Application) subscribe() {
	event.ChannelFor[CustomerSelected](app.events).Subscribe(app.onCustomerSelected)
	event.ChannelFor[StatusMessage](app.events).Subscribe(app.onStatus)
	app.router.Observe(app.onNavigated)
}

// onCustomerSelected shows the customer in the main region and records the
// selection in the sidebar.
func (app *Application) onCustomerSelected(_ context.Context, ev CustomerSelected) error {
	params := []region.ControlParameter{
		region.Param("customerId", ev.CustomerID),
		region.Param("name", ev.Name),
	}
	if _, err := app.nav.NavigateTo(MainRegion, "Customer", params...); err != nil {
		return err
	}

	if sidebar, err := app.regions.Region(SidebarRegion); err == nil {
		label := fmt.Sprintf("customer %d", ev.CustomerID)
		if ev.Name != "" {
			label += " " + ev.Name
		}
		sidebar.Add(region.TypeOf[Activity](), region.Param("label", label))
	}

	return app.telemetry.TrackEvent("customerSelected", map[string]any{
		"customerId": ev.CustomerID,
	})
}

func (app *Application) onStatus(_ context.Context, ev StatusMessage) error {
	app.setStatus(ev.Text)
	return nil
}

// onNavigated publishes every navigation so scripts can follow it. It may
// run on the script goroutine and must not wait on the runtime.
func (app *Application) onNavigated(nav navigation.Navigation) {
	view := nav.Type.Name()
	event.Publish(context.Background(), app.events, Navigated{
		Locator: nav.Locator,
		Region:  nav.Region,
		View:    view,
	})
	if err := app.telemetry.TrackPageView(telemetry.PageView{Name: view, URI: nav.Locator}, nil); err != nil {
		app.logger.Debug("page view not tracked", "error", err)
	}
	app.setStatus(nav.Locator)
}

func (app *Application) setStatus(text string) {
	if app.host != nil {
		app.host.SetStatus(text)
		return
	}
	app.logger.Info("status", "text", text)
}

// handleKey implements the application keys: Backspace goes back, h goes
// home, r reloads the script, y copies the current locator and p pastes
// the clipboard into the status line.
func (app *Application) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if _, ok, err := app.nav.GoBack(); err != nil {
			app.logger.Warn("go back failed", "error", err)
		} else if !ok {
			app.setStatus("nothing to go back to")
		}
		return true
	case tcell.KeyRune:
	default:
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), keyTimeout)
	defer cancel()

	switch ev.Rune() {
	case 'h':
		if _, err := app.nav.NavigateTo(MainRegion, "Home"); err != nil {
			app.logger.Warn("navigate home failed", "error", err)
		}
	case 'r':
		if err := app.script.Reload(ctx); err != nil {
			app.logger.Error("script reload failed", "error", err)
			app.setStatus("reload failed: " + err.Error())
			return true
		}
		app.setStatus("script reloaded")
	case 'y':
		loc, ok := app.history.Current()
		if !ok {
			return true
		}
		if err := app.clipboard.WriteText(ctx, loc); err != nil {
			app.logger.Warn("clipboard write failed", "error", err)
			return true
		}
		app.setStatus("copied " + loc)
	case 'p':
		text, err := app.clipboard.ReadText(ctx)
		if err != nil {
			app.logger.Warn("clipboard read failed", "error", err)
			return true
		}
		app.setStatus("clipboard: " + text)
	default:
		return false
	}
	return true
}
