package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/dshills/reactor/internal/event"
	"github.com/dshills/reactor/internal/logging"
)

// Validate checks every section and returns all problems joined.
func (c *Config) Validate() error {
	var errs []error
	add := func(path, msg string, v any) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: v})
	}

	if !logging.ValidLevel(c.Log.Level) {
		add("log.level", "unknown level", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		add("log.format", "must be text or json", c.Log.Format)
	}
	if c.Log.QueueSize < 0 {
		add("log.queue_size", "must not be negative", c.Log.QueueSize)
	}
	if c.Log.TelemetryLevel != "" && !logging.ValidLevel(c.Log.TelemetryLevel) {
		add("log.telemetry_level", "unknown level", c.Log.TelemetryLevel)
	}

	if c.Script.Timeout < 0 {
		add("script.timeout", "must not be negative", c.Script.Timeout)
	}
	if c.Script.QueueSize < 0 {
		add("script.queue_size", "must not be negative", c.Script.QueueSize)
	}
	if c.Script.ReloadDelay < 0 {
		add("script.reload_delay", "must not be negative", c.Script.ReloadDelay)
	}
	if c.Script.Watch && c.Script.Path == "" {
		add("script.watch", "requires script.path", c.Script.Watch)
	}

	if _, ok := event.ParseConnectPolicy(c.Bridge.ConnectPolicy); !ok {
		add("bridge.connect_policy", "must be construct or first-publish", c.Bridge.ConnectPolicy)
	}

	scheme := c.Navigation.Scheme
	if scheme == "" || strings.ContainsAny(scheme, ":/") {
		add("navigation.scheme", "must be a bare scheme name", scheme)
	}
	for i, loc := range c.Navigation.Start {
		u, err := url.Parse(loc)
		if err != nil || u.Host == "" || !strings.EqualFold(u.Scheme, scheme) {
			add(fmt.Sprintf("navigation.start[%d]", i), "must be "+scheme+"://region/name", loc)
		}
	}

	if c.Dispatch.QueueSize < 0 {
		add("dispatch.queue_size", "must not be negative", c.Dispatch.QueueSize)
	}

	if _, err := c.UI.Border(); err != nil {
		add("ui.border_color", "must be a #rrggbb color", c.UI.BorderColor)
	}
	seen := make(map[string]bool, len(c.UI.Regions))
	for i, r := range c.UI.Regions {
		path := fmt.Sprintf("ui.regions[%d]", i)
		if r.Name == "" {
			add(path+".name", "must not be empty", r.Name)
		} else if seen[r.Name] {
			add(path+".name", "duplicate region", r.Name)
		}
		seen[r.Name] = true
		if r.Kind != KindContent && r.Kind != KindList {
			add(path+".kind", "must be content or list", r.Kind)
		}
		if r.Weight < 0 {
			add(path+".weight", "must not be negative", r.Weight)
		}
	}

	return errors.Join(errs...)
}

// ConnectPolicy returns the parsed bridge connect policy.
func (c *Config) ConnectPolicy() event.ConnectPolicy {
	p, _ := event.ParseConnectPolicy(c.Bridge.ConnectPolicy)
	return p
}

// LogConfig returns the logging.Config described by the log section.
func (c *Config) LogConfig() logging.Config {
	return logging.Config{
		Level:     c.Log.Level,
		Format:    c.Log.Format,
		File:      c.Log.File,
		Async:     c.Log.Async,
		QueueSize: c.Log.QueueSize,
	}
}
