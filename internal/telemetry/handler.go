package telemetry

import (
	"context"
	"log/slog"
	"reflect"
	"slices"
)

// Handler is a slog.Handler that passes records to next and also forwards
// records at or above a level to a Tracker: records carrying an error
// attribute become exceptions, the rest traces.
//
// Records from loggers whose component attribute is excluded are never
// forwarded, so the tracker and the script runtime cannot feed themselves.
type Handler struct {
	next     slog.Handler
	tracker  *Tracker
	level    slog.Leveler
	exclude  []string
	attrs    []slog.Attr
	group    string
	disabled bool
}

// NewHandler wraps next. By default records from the script and telemetry
// components are not forwarded.
func NewHandler(tracker *Tracker, next slog.Handler, level slog.Leveler, exclude ...string) *Handler {
	if exclude == nil {
		exclude = []string{"script", "telemetry"}
	}
	return &Handler{next: next, tracker: tracker, level: level, exclude: exclude}
}

func (h *Handler) forwards(l slog.Level) bool {
	return !h.disabled && l >= h.level.Level()
}

func (h *Handler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.next.Enabled(ctx, l) || h.forwards(l)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	if h.next.Enabled(ctx, r.Level) {
		err = h.next.Handle(ctx, r)
	}
	if h.forwards(r.Level) {
		h.forward(r)
	}
	return err
}

func (h *Handler) forward(r slog.Record) {
	props := make(map[string]any, len(h.attrs)+r.NumAttrs())
	var failure error
	add := func(key string, v slog.Value) {
		v = v.Resolve()
		if e, ok := v.Any().(error); ok && failure == nil {
			failure = e
		}
		props[key] = v.String()
	}
	for _, a := range h.attrs {
		add(a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		add(h.group+a.Key, a.Value)
		return true
	})

	severity := SeverityFromLevel(r.Level)
	if failure != nil {
		props["message"] = r.Message
		_ = h.tracker.TrackException(Exception{Name: errorName(failure), Message: failure.Error()}, severity, props)
		return
	}
	_ = h.tracker.TrackTrace(r.Message, severity, props)
}

func errorName(err error) string {
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.next = h.next.WithAttrs(attrs)
	c.attrs = slices.Clone(h.attrs)
	for _, a := range attrs {
		if a.Key == "component" && slices.Contains(h.exclude, a.Value.String()) {
			c.disabled = true
		}
		a.Key = h.group + a.Key
		c.attrs = append(c.attrs, a)
	}
	return &c
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.next = h.next.WithGroup(name)
	c.group = h.group + name + "."
	return &c
}
