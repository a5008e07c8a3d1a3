package navigation

import (
	"slices"
	"sync"

	"github.com/dshills/reactor/internal/region"
)

// History records navigations performed through a Router and walks back
// through them.
//
// Going back is itself a navigation and is recorded, so History skips over
// the entries produced by earlier back steps when choosing the next target.
type History struct {
	router *Router

	mu      sync.Mutex
	entries []string
	back    int
}

// NewHistory creates a History attached to router. Every successful
// navigation through router is recorded, whether or not it was started via
// History.
func NewHistory(router *Router) *History {
	h := &History{router: router}
	router.Observe(h.record)
	return h
}

func (h *History) record(nav Navigation) {
	h.mu.Lock()
	h.entries = append(h.entries, nav.Locator)
	h.mu.Unlock()
}

// NavigateTo navigates to locator and resets the back position.
func (h *History) NavigateTo(locator string, params ...region.ControlParameter) (region.ControlToken, error) {
	h.mu.Lock()
	h.back = 0
	h.mu.Unlock()

	return h.router.Navigate(locator, params...)
}

// GoBack navigates to the entry before the current one. It reports false if
// there is nothing to go back to.
func (h *History) GoBack() (region.ControlToken, bool, error) {
	h.mu.Lock()
	skip := 1 + h.back*2
	idx := len(h.entries) - 1 - skip
	if idx < 0 {
		h.mu.Unlock()
		return region.ControlToken{}, false, nil
	}
	target := h.entries[idx]
	h.back++
	h.mu.Unlock()

	token, err := h.router.Navigate(target)
	if err != nil {
		return region.ControlToken{}, false, err
	}
	return token, true, nil
}

// Entries returns the recorded locators, oldest first.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.entries)
}

// Current returns the most recently recorded locator.
func (h *History) Current() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		return "", false
	}
	return h.entries[len(h.entries)-1], true
}
