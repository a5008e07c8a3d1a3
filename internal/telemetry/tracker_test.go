package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dshills/reactor/internal/script"
)

type call struct {
	path string
	args []any
	sync bool
}

// fakeRuntime records every call the tracker makes.
type fakeRuntime struct {
	mu      sync.Mutex
	started bool
	calls   []call
}

func (f *fakeRuntime) Started() bool { return f.started }

func (f *fakeRuntime) InvokeAsync(path string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{path: path, args: args})
	return nil
}

func (f *fakeRuntime) InvokeVoid(_ context.Context, path string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{path: path, args: args, sync: true})
	return nil
}

func (f *fakeRuntime) recorded() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func quiet() Option {
	return WithLogger(slog.New(slog.DiscardHandler))
}

func TestTrackerDropsUntilInitialized(t *testing.T) {
	tracker := New(quiet())
	if err := tracker.TrackEvent("opened", nil); err != nil {
		t.Fatalf("TrackEvent error = %v", err)
	}
	if err := tracker.Flush(context.Background()); err != nil {
		t.Fatalf("Flush error = %v", err)
	}
	if tracker.Dropped() != 1 {
		t.Errorf("Dropped = %d, want 1", tracker.Dropped())
	}

	rt := &fakeRuntime{}
	_ = tracker.Init(rt)
	_ = tracker.TrackEvent("opened", nil)
	if len(rt.recorded()) != 0 {
		t.Errorf("calls made to a runtime that is not started: %+v", rt.recorded())
	}
	if tracker.Dropped() != 2 {
		t.Errorf("Dropped = %d, want 2", tracker.Dropped())
	}
}

func TestTrackerCalls(t *testing.T) {
	rt := &fakeRuntime{started: true}

	var initCalled bool
	tracker := New(quiet(), WithInit(func(tr *Tracker) error {
		initCalled = true
		return tr.SetAuthenticatedUser("u1", "acct")
	}))
	if err := tracker.Init(rt); err != nil {
		t.Fatalf("Init error = %v", err)
	}
	if !initCalled {
		t.Error("init function not run")
	}

	props := map[string]any{"region": "sales"}
	_ = tracker.TrackEvent("opened", props)
	_ = tracker.TrackTrace("slow", SeverityWarning, nil)
	_ = tracker.TrackMetric(Metric{Name: "latency", Average: 1.5}, nil)
	_ = tracker.TrackDependency(Dependency{
		ID:        "d1",
		Name:      "GET /customers",
		Duration:  1500 * time.Millisecond,
		Success:   true,
		StartTime: time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
	})
	_ = tracker.Flush(context.Background())

	calls := rt.recorded()
	wantPaths := []string{
		"Telemetry.set_authenticated_user",
		"Telemetry.track_event",
		"Telemetry.track_trace",
		"Telemetry.track_metric",
		"Telemetry.track_dependency",
		"Telemetry.flush",
	}
	if len(calls) != len(wantPaths) {
		t.Fatalf("calls = %+v", calls)
	}
	for i, want := range wantPaths {
		if calls[i].path != want {
			t.Errorf("call %d = %s, want %s", i, calls[i].path, want)
		}
	}

	if ev := calls[1].args[0].(map[string]any); ev["name"] != "opened" {
		t.Errorf("event = %+v", ev)
	}
	if calls[1].args[1].(map[string]any)["region"] != "sales" {
		t.Errorf("props = %+v", calls[1].args[1])
	}
	if tr := calls[2].args[0].(map[string]any); tr["severityLevel"] != int(SeverityWarning) {
		t.Errorf("trace = %+v", tr)
	}
	dep := calls[4].args[0].(map[string]any)
	if dep["duration"] != 1500.0 || dep["startTime"] != "2024-05-01T10:30:00" {
		t.Errorf("dependency = %+v", dep)
	}
	if !calls[5].sync {
		t.Error("Flush should wait for the runtime")
	}
}

func TestSeverityFromLevel(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  Severity
	}{
		{slog.LevelDebug, SeverityVerbose},
		{slog.LevelInfo, SeverityInformation},
		{slog.LevelWarn, SeverityWarning},
		{slog.LevelError, SeverityError},
		{slog.LevelError + 4, SeverityCritical},
	}
	for _, tt := range tests {
		if got := SeverityFromLevel(tt.level); got != tt.want {
			t.Errorf("SeverityFromLevel(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestTrackerWithScriptRuntime(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tracker := New(quiet())
	rt := script.New(script.WithLogger(slog.New(slog.DiscardHandler)), script.WithModule(tracker))
	if err := rt.Start(ctx); err != nil {
		t.Fatalf("Start error = %v", err)
	}
	defer rt.Close()
	_ = tracker.Init(rt)

	_ = tracker.TrackEvent("opened", map[string]any{"id": 1})
	_ = tracker.TrackPageView(PageView{Name: "Customers"}, nil)
	if err := tracker.Flush(ctx); err != nil {
		t.Fatalf("Flush error = %v", err)
	}
	if tracker.Sunk() != 2 {
		t.Errorf("default sink handled %d items, want 2", tracker.Sunk())
	}

	if err := rt.Exec(ctx, `
Telemetry = {
  track_event = function(e, props) last = e.name .. ":" .. props.id end,
  flush = function() end,
}
function result() return last end
`); err != nil {
		t.Fatal(err)
	}
	_ = tracker.TrackEvent("saved", map[string]any{"id": 9})
	_ = tracker.Flush(ctx)

	out, err := rt.Invoke(ctx, "result")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0] != "saved:9" {
		t.Errorf("script sink saw %v, want saved:9", out)
	}
}
