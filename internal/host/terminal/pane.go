package terminal

import (
	"fmt"
	"slices"

	"github.com/dshills/reactor/internal/region"
)

// Kind selects how a pane hosts its region.
type Kind int

const (
	// KindContent shows one control at a time.
	KindContent Kind = iota
	// KindList shows an ordered list of controls.
	KindList
)

// String returns the layout name of the kind.
func (k Kind) String() string {
	switch k {
	case KindContent:
		return "content"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// ParseKind parses the names returned by Kind.String.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "content":
		return KindContent, true
	case "list":
		return KindList, true
	default:
		return KindContent, false
	}
}

// Pane describes one column of the screen layout.
type Pane struct {
	Name   string
	Kind   Kind
	Weight int
}

// Renderer turns placed content into display lines.
type Renderer func(c region.Content) []string

// DefaultRenderer shows the control name followed by one line per
// parameter.
func DefaultRenderer(c region.Content) []string {
	lines := []string{c.Type.Name()}
	for _, p := range c.Params {
		lines = append(lines, fmt.Sprintf("%s: %v", p.Name(), p.Value()))
	}
	return lines
}

// pane is the state behind one layout column. Fields are guarded by the
// owning Host's mutex.
type pane struct {
	Pane
	host *Host

	current *region.Content
	items   []region.Content
}

// ContentPane hosts a content region. It implements region.ContentHost.
type ContentPane struct{ p *pane }

// SetContent implements region.ContentHost.
func (c ContentPane) SetContent(content *region.Content) {
	h := c.p.host
	h.mu.Lock()
	if content == nil {
		c.p.current = nil
	} else {
		cp := *content
		c.p.current = &cp
	}
	h.mu.Unlock()
	h.Invalidate()
}

// ListPane hosts a list region. It implements region.ListHost.
type ListPane struct{ p *pane }

// InsertItem implements region.ListHost.
func (l ListPane) InsertItem(c region.Content) {
	h := l.p.host
	h.mu.Lock()
	l.p.items = append(l.p.items, c)
	h.mu.Unlock()
	h.Invalidate()
}

// RemoveItem implements region.ListHost.
func (l ListPane) RemoveItem(token region.ControlToken) {
	h := l.p.host
	h.mu.Lock()
	l.p.items = slices.DeleteFunc(l.p.items, func(c region.Content) bool {
		return c.Token == token
	})
	h.mu.Unlock()
	h.Invalidate()
}

// ClearItems implements region.ListHost.
func (l ListPane) ClearItems() {
	h := l.p.host
	h.mu.Lock()
	l.p.items = nil
	h.mu.Unlock()
	h.Invalidate()
}

// lines returns the pane body. Callers hold the host mutex.
func (p *pane) lines(render Renderer) []string {
	switch p.Kind {
	case KindList:
		out := make([]string, 0, len(p.items))
		for _, item := range p.items {
			first := ""
			if l := render(item); len(l) > 0 {
				first = l[0]
			}
			out = append(out, "• "+first)
		}
		return out
	default:
		if p.current == nil {
			return nil
		}
		return render(*p.current)
	}
}
