package app

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/dshills/reactor/internal/navigation"
	"github.com/dshills/reactor/internal/region"
	"github.com/dshills/reactor/internal/script"
)

// navigator routes script navigation through the history so that back
// navigation sees it.
type navigator struct {
	router  *navigation.Router
	history *navigation.History
}

var _ script.BackNavigator = (*navigator)(nil)

func (n *navigator) Navigate(locator string, params ...region.ControlParameter) (region.ControlToken, error) {
	return n.history.NavigateTo(locator, params...)
}

func (n *navigator) NavigateTo(regionName, name string, params ...region.ControlParameter) (region.ControlToken, error) {
	return n.history.NavigateTo(n.router.Locator(regionName, name), params...)
}

func (n *navigator) GoBack() (region.ControlToken, bool, error) {
	return n.history.GoBack()
}

// recorder keeps what each region shows and passes updates on to the
// screen, if there is one.
type recorder struct {
	logger *slog.Logger

	mu      sync.Mutex
	current map[string]region.Content
	items   map[string][]region.Content
}

func newRecorder(logger *slog.Logger) *recorder {
	return &recorder{
		logger:  logger,
		current: make(map[string]region.Content),
		items:   make(map[string][]region.Content),
	}
}

// content returns a host for the named content region. next may be nil.
func (h *recorder) content(name string, next region.ContentHost) region.ContentHost {
	return region.ContentHostFunc(func(c *region.Content) {
		h.mu.Lock()
		if c == nil {
			delete(h.current, name)
			h.logger.Debug("region cleared", "region", name)
		} else {
			h.current[name] = *c
			h.logger.Debug("region content", "region", name, "control", c.Type.Name())
		}
		h.mu.Unlock()
		if next != nil {
			next.SetContent(c)
		}
	})
}

// list returns a host for the named list region. next may be nil.
func (h *recorder) list(name string, next region.ListHost) region.ListHost {
	return &recordedList{h: h, name: name, next: next}
}

func (h *recorder) shown(name string) []region.Content {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.current[name]; ok {
		return []region.Content{c}
	}
	return slices.Clone(h.items[name])
}

type recordedList struct {
	h    *recorder
	name string
	next region.ListHost
}

func (l *recordedList) InsertItem(c region.Content) {
	l.h.mu.Lock()
	l.h.items[l.name] = append(l.h.items[l.name], c)
	l.h.mu.Unlock()
	if l.next != nil {
		l.next.InsertItem(c)
	}
}

func (l *recordedList) RemoveItem(token region.ControlToken) {
	l.h.mu.Lock()
	l.h.items[l.name] = slices.DeleteFunc(l.h.items[l.name], func(c region.Content) bool {
		return c.Token == token
	})
	l.h.mu.Unlock()
	if l.next != nil {
		l.next.RemoveItem(token)
	}
}

func (l *recordedList) ClearItems() {
	l.h.mu.Lock()
	delete(l.h.items, l.name)
	l.h.mu.Unlock()
	if l.next != nil {
		l.next.ClearItems()
	}
}
