package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "REACTOR_"

// Load reads the file at path over the defaults, applies environment
// overrides and validates the result. An empty path or a missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes data in the given format ("toml" or "yaml") over the
// defaults without consulting the environment.
func Parse(format string, data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode("<"+format+">", format, data); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from REACTOR_* environment variables.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	format, err := formatOf(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	return c.decode(path, format, data)
}

func (c *Config) decode(source, format string, data []byte) error {
	// Lists in the file replace the defaults rather than extending them.
	regions, start := c.UI.Regions, c.Navigation.Start
	c.UI.Regions, c.Navigation.Start = nil, nil
	defer func() {
		if c.UI.Regions == nil {
			c.UI.Regions = regions
		}
		if c.Navigation.Start == nil {
			c.Navigation.Start = start
		}
	}()

	switch format {
	case "toml":
		if err := toml.Unmarshal(data, c); err != nil {
			perr := &ParseError{Path: source, Message: err.Error(), Err: err}
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				perr.Line, perr.Column = derr.Position()
			}
			return perr
		}
	case "yaml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return &ParseError{Path: source, Message: err.Error(), Err: err}
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return nil
}

func formatOf(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		return "toml", nil
	case ".yaml", ".yml":
		return "yaml", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}
