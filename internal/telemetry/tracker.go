// Package telemetry forwards usage and diagnostic telemetry to the script
// runtime, whose Telemetry table decides where it goes.
package telemetry

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Severity is the telemetry severity scale.
type Severity int

const (
	SeverityVerbose Severity = iota
	SeverityInformation
	SeverityWarning
	SeverityError
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityVerbose:
		return "verbose"
	case SeverityInformation:
		return "information"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// SeverityFromLevel maps a log level to a severity.
func SeverityFromLevel(l slog.Level) Severity {
	switch {
	case l < slog.LevelInfo:
		return SeverityVerbose
	case l < slog.LevelWarn:
		return SeverityInformation
	case l < slog.LevelError:
		return SeverityWarning
	case l < slog.LevelError+4:
		return SeverityError
	default:
		return SeverityCritical
	}
}

// PageView describes a page (screen) shown to the user.
type PageView struct {
	Name       string `json:"name,omitempty"`
	URI        string `json:"uri,omitempty"`
	RefURI     string `json:"refUri,omitempty"`
	PageType   string `json:"pageType,omitempty"`
	IsLoggedIn bool   `json:"isLoggedIn"`
}

// Exception describes a failure.
type Exception struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Metric is an aggregated measurement.
type Metric struct {
	Name        string  `json:"name"`
	Average     float64 `json:"average"`
	SampleCount int     `json:"sampleCount,omitempty"`
	Min         float64 `json:"min,omitempty"`
	Max         float64 `json:"max,omitempty"`
}

// Dependency describes a call to an outside system.
type Dependency struct {
	ID           string
	Name         string
	Duration     time.Duration
	Success      bool
	StartTime    time.Time
	ResponseCode int
	Type         string
	Data         string
	Target       string
}

// Runtime is the script runtime telemetry is sent to.
// *script.Runtime satisfies it.
type Runtime interface {
	Started() bool
	InvokeAsync(path string, args ...any) error
	InvokeVoid(ctx context.Context, path string, args ...any) error
}

type runtimeRef struct {
	rt Runtime
}

// Tracker sends telemetry items to the script's Telemetry table. Until Init
// attaches a started runtime every call is logged and dropped.
type Tracker struct {
	logger *slog.Logger
	init   func(*Tracker) error
	rt     atomic.Pointer[runtimeRef]

	dropped atomic.Int64
	sunk    atomic.Int64
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the tracker logger. It must not route back into a
// Handler wrapping this tracker.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithInit sets a function run by Init once the runtime is attached, for
// example to set the authenticated user.
func WithInit(fn func(*Tracker) error) Option {
	return func(t *Tracker) {
		t.init = fn
	}
}

// New creates a tracker with no runtime attached.
func New(opts ...Option) *Tracker {
	t := &Tracker{logger: slog.Default()}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With("component", "telemetry")
	return t
}

// Init attaches rt and runs the init function.
func (t *Tracker) Init(rt Runtime) error {
	t.rt.Store(&runtimeRef{rt: rt})
	if t.init != nil {
		return t.init(t)
	}
	return nil
}

// Dropped returns the number of items dropped before the runtime was ready.
func (t *Tracker) Dropped() int64 {
	return t.dropped.Load()
}

func (t *Tracker) runtime() Runtime {
	ref := t.rt.Load()
	if ref == nil || ref.rt == nil || !ref.rt.Started() {
		return nil
	}
	return ref.rt
}

func (t *Tracker) call(fn string, args ...any) error {
	rt := t.runtime()
	if rt == nil {
		t.dropped.Add(1)
		t.logger.Debug("script runtime not initialized, telemetry dropped", "call", fn)
		return nil
	}
	return rt.InvokeAsync(sinkName+"."+fn, args...)
}

// TrackPageView records a page view.
func (t *Tracker) TrackPageView(view PageView, props map[string]any) error {
	return t.call("track_page_view", view, props)
}

// TrackEvent records a named event.
func (t *Tracker) TrackEvent(name string, props map[string]any) error {
	return t.call("track_event", map[string]any{"name": name}, props)
}

// TrackTrace records a diagnostic message.
func (t *Tracker) TrackTrace(message string, severity Severity, props map[string]any) error {
	return t.call("track_trace", map[string]any{
		"message":       message,
		"severityLevel": int(severity),
	}, props)
}

// TrackException records a failure.
func (t *Tracker) TrackException(ex Exception, severity Severity, props map[string]any) error {
	return t.call("track_exception", map[string]any{
		"exception":     ex,
		"severityLevel": int(severity),
	}, props)
}

// StartTrackPage starts timing a page view.
func (t *Tracker) StartTrackPage(name string) error {
	return t.call("start_track_page", name)
}

// StopTrackPage stops timing a page view and records it.
func (t *Tracker) StopTrackPage(name, url string, props map[string]string, measurements map[string]float64) error {
	return t.call("stop_track_page", name, url, props, measurements)
}

// TrackMetric records a measurement.
func (t *Tracker) TrackMetric(m Metric, props map[string]any) error {
	return t.call("track_metric", m, props)
}

// TrackDependency records a call to an outside system.
func (t *Tracker) TrackDependency(d Dependency) error {
	data := map[string]any{
		"id":           d.ID,
		"name":         d.Name,
		"duration":     float64(d.Duration) / float64(time.Millisecond),
		"success":      d.Success,
		"responseCode": d.ResponseCode,
		"type":         d.Type,
		"data":         d.Data,
		"target":       d.Target,
	}
	if !d.StartTime.IsZero() {
		data["startTime"] = d.StartTime.Format("2006-01-02T15:04:05")
	}
	return t.call("track_dependency", data)
}

// SetAuthenticatedUser tags subsequent telemetry with a user.
func (t *Tracker) SetAuthenticatedUser(userID, accountID string) error {
	return t.call("set_authenticated_user", userID, accountID)
}

// ClearAuthenticatedUser removes the user tag.
func (t *Tracker) ClearAuthenticatedUser() error {
	return t.call("clear_authenticated_user")
}

// Flush asks the sink to send buffered items and waits for it to return.
func (t *Tracker) Flush(ctx context.Context) error {
	rt := t.runtime()
	if rt == nil {
		t.logger.Debug("script runtime not initialized, flush skipped")
		return nil
	}
	return rt.InvokeVoid(ctx, sinkName+".flush")
}
