// Package terminal draws regions on a tcell screen.
//
// A Host splits the screen into side-by-side panes. Each pane is bound to a
// region through region.Registry.AssociateRegion (ContentPane) or
// AssociateListRegion (ListPane). Pane updates may arrive from any
// goroutine; they only record state and schedule a redraw, which Run
// performs on its own goroutine.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
)

// ErrUnknownPane is returned when a pane name is not in the layout.
var ErrUnknownPane = errors.New("unknown pane")

// KeyHandler handles a key press. It returns true if the key was consumed.
type KeyHandler func(ev *tcell.EventKey) bool

// Host owns the screen and the pane layout.
type Host struct {
	screen tcell.Screen
	logger *slog.Logger
	render Renderer
	keys   KeyHandler

	mu     sync.Mutex
	title  string
	status string
	border tcell.Style
	panes  []*pane

	pending atomic.Bool
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the host logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithTitle sets the text of the top bar.
func WithTitle(title string) Option {
	return func(h *Host) {
		h.title = title
	}
}

// WithBorderColor colors pane borders.
func WithBorderColor(c colorful.Color) Option {
	return func(h *Host) {
		h.border = tcell.StyleDefault.Foreground(ColorOf(c))
	}
}

// WithRenderer replaces DefaultRenderer.
func WithRenderer(r Renderer) Option {
	return func(h *Host) {
		if r != nil {
			h.render = r
		}
	}
}

// WithKeyHandler installs a handler consulted before the built-in keys.
func WithKeyHandler(k KeyHandler) Option {
	return func(h *Host) {
		h.keys = k
	}
}

// ColorOf converts a colorful color to a true-color tcell color.
func ColorOf(c colorful.Color) tcell.Color {
	r, g, b := c.Clamped().RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// New creates a host over an initialized screen. Pane names must be unique.
func New(screen tcell.Screen, layout []Pane, opts ...Option) (*Host, error) {
	h := &Host{
		screen: screen,
		logger: slog.Default(),
		render: DefaultRenderer,
		border: tcell.StyleDefault,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("component", "terminal")

	seen := make(map[string]bool, len(layout))
	for _, p := range layout {
		if seen[p.Name] {
			return nil, fmt.Errorf("duplicate pane %q", p.Name)
		}
		seen[p.Name] = true
		if p.Weight <= 0 {
			p.Weight = 1
		}
		h.panes = append(h.panes, &pane{Pane: p, host: h})
	}
	return h, nil
}

func (h *Host) pane(name string, kind Kind) (*pane, error) {
	for _, p := range h.panes {
		if p.Name == name {
			if p.Kind != kind {
				return nil, fmt.Errorf("pane %q is a %s pane", name, p.Kind)
			}
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPane, name)
}

// ContentPane returns the content pane with the given name.
func (h *Host) ContentPane(name string) (ContentPane, error) {
	p, err := h.pane(name, KindContent)
	if err != nil {
		return ContentPane{}, err
	}
	return ContentPane{p: p}, nil
}

// ListPane returns the list pane with the given name.
func (h *Host) ListPane(name string) (ListPane, error) {
	p, err := h.pane(name, KindList)
	if err != nil {
		return ListPane{}, err
	}
	return ListPane{p: p}, nil
}

// Panes returns the layout.
func (h *Host) Panes() []Pane {
	out := make([]Pane, len(h.panes))
	for i, p := range h.panes {
		out[i] = p.Pane
	}
	return out
}

// SetStatus sets the bottom status line.
func (h *Host) SetStatus(msg string) {
	h.mu.Lock()
	h.status = msg
	h.mu.Unlock()
	h.Invalidate()
}

// Lines returns the body lines currently shown for the named pane.
func (h *Host) Lines(name string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, p := range h.panes {
		if p.Name == name {
			return p.lines(h.render)
		}
	}
	return nil
}

type redrawEvent struct {
	tcell.EventTime
}

// Invalidate schedules a redraw. Concurrent requests coalesce into one.
func (h *Host) Invalidate() {
	if !h.pending.CompareAndSwap(false, true) {
		return
	}
	ev := &redrawEvent{}
	ev.SetEventNow()
	if err := h.screen.PostEvent(ev); err != nil {
		h.pending.Store(false)
		h.logger.Debug("redraw dropped", "error", err)
	}
}

// Run draws the screen and processes events until ctx is done or the user
// quits with q, Escape or Ctrl-C.
func (h *Host) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		ev := tcell.NewEventInterrupt(nil)
		_ = h.screen.PostEvent(ev)
	})
	defer stop()

	h.Draw()
	for {
		ev := h.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
		switch ev := ev.(type) {
		case *redrawEvent:
			h.pending.Store(false)
			h.Draw()
		case *tcell.EventResize:
			h.screen.Sync()
			h.Draw()
		case *tcell.EventKey:
			if h.keys != nil && h.keys(ev) {
				continue
			}
			if isQuit(ev) {
				h.logger.Info("quit requested")
				return nil
			}
		}
	}
}

func isQuit(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q'
	}
	return false
}
