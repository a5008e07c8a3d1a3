package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLevel(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}

func TestValidLevel(t *testing.T) {
	for _, s := range []string{"", "debug", "Info", "warning"} {
		if !ValidLevel(s) {
			t.Errorf("ValidLevel(%q) = false", s)
		}
	}
	if ValidLevel("verbose") {
		t.Error("ValidLevel(verbose) = true")
	}
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	h, closeFn, err := New(Config{Level: "warn", Output: &buf})
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	defer closeFn()

	logger := slog.New(h).With("component", "test")
	logger.Info("hidden")
	logger.Warn("shown", "n", 1)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %s", out)
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "component=test") || !strings.Contains(out, "n=1") {
		t.Errorf("output = %q", out)
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	h, closeFn, err := New(Config{Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	defer closeFn()

	slog.New(h).Info("hello", "region", "sales")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not json: %v: %s", err, buf.String())
	}
	if rec["msg"] != "hello" || rec["region"] != "sales" {
		t.Errorf("record = %v", rec)
	}
}

func TestNewUnknownFormat(t *testing.T) {
	if _, _, err := New(Config{Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "reactor.log")
	h, closeFn, err := New(Config{File: path, Async: true})
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	slog.New(h).Info("to file")
	if err := closeFn(); err != nil {
		t.Fatalf("close error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("file content = %q", data)
	}
}
