package config

import (
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// Region kinds accepted in the UI layout.
const (
	KindContent = "content"
	KindList    = "list"
)

// Config is the complete application configuration.
type Config struct {
	Log        LogConfig        `toml:"log" yaml:"log" envPrefix:"LOG_"`
	Script     ScriptConfig     `toml:"script" yaml:"script" envPrefix:"SCRIPT_"`
	Bridge     BridgeConfig     `toml:"bridge" yaml:"bridge" envPrefix:"BRIDGE_"`
	Navigation NavigationConfig `toml:"navigation" yaml:"navigation" envPrefix:"NAVIGATION_"`
	Dispatch   DispatchConfig   `toml:"dispatch" yaml:"dispatch" envPrefix:"DISPATCH_"`
	UI         UIConfig         `toml:"ui" yaml:"ui" envPrefix:"UI_"`
}

// LogConfig configures the slog handler chain.
type LogConfig struct {
	Level     string `toml:"level" yaml:"level" env:"LEVEL"`
	Format    string `toml:"format" yaml:"format" env:"FORMAT"`
	File      string `toml:"file" yaml:"file" env:"FILE"`
	Async     bool   `toml:"async" yaml:"async" env:"ASYNC"`
	QueueSize int    `toml:"queue_size" yaml:"queue_size" env:"QUEUE_SIZE"`

	// TelemetryLevel is the minimum level forwarded to the script telemetry
	// sink. Empty disables forwarding.
	TelemetryLevel string `toml:"telemetry_level" yaml:"telemetry_level" env:"TELEMETRY_LEVEL"`
}

// ScriptConfig configures the embedded Lua runtime.
type ScriptConfig struct {
	// Path is the entry script. Empty runs the runtime with only the
	// built-in modules.
	Path string `toml:"path" yaml:"path" env:"PATH"`
	// Timeout bounds a single call into the script. Zero disables it.
	Timeout   Duration `toml:"timeout" yaml:"timeout" env:"TIMEOUT"`
	QueueSize int      `toml:"queue_size" yaml:"queue_size" env:"QUEUE_SIZE"`
	// Watch reloads the script when the file changes.
	Watch       bool     `toml:"watch" yaml:"watch" env:"WATCH"`
	ReloadDelay Duration `toml:"reload_delay" yaml:"reload_delay" env:"RELOAD_DELAY"`
}

// BridgeConfig configures the cross-runtime event bridge.
type BridgeConfig struct {
	// ConnectPolicy is "construct" or "first-publish".
	ConnectPolicy string `toml:"connect_policy" yaml:"connect_policy" env:"CONNECT_POLICY"`
}

// NavigationConfig configures the navigation router.
type NavigationConfig struct {
	Scheme string `toml:"scheme" yaml:"scheme" env:"SCHEME"`
	// Start lists locators navigated in order at startup.
	Start []string `toml:"start" yaml:"start" env:"START" envSeparator:","`
}

// DispatchConfig configures the UI dispatch loop.
type DispatchConfig struct {
	QueueSize int `toml:"queue_size" yaml:"queue_size" env:"QUEUE_SIZE"`
}

// UIConfig configures the terminal host.
type UIConfig struct {
	Title       string         `toml:"title" yaml:"title" env:"TITLE"`
	BorderColor string         `toml:"border_color" yaml:"border_color" env:"BORDER_COLOR"`
	Regions     []RegionLayout `toml:"regions" yaml:"regions"`
}

// RegionLayout places one named region on screen.
type RegionLayout struct {
	Name string `toml:"name" yaml:"name"`
	Kind string `toml:"kind" yaml:"kind"`
	// Weight is the relative width share; zero means 1.
	Weight int `toml:"weight" yaml:"weight"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:          "info",
			Format:         "text",
			QueueSize:      1024,
			TelemetryLevel: "warn",
		},
		Script: ScriptConfig{
			Timeout:     Duration(5 * time.Second),
			QueueSize:   256,
			ReloadDelay: Duration(100 * time.Millisecond),
		},
		Bridge: BridgeConfig{
			ConnectPolicy: "construct",
		},
		Navigation: NavigationConfig{
			Scheme: "app",
		},
		Dispatch: DispatchConfig{
			QueueSize: 256,
		},
		UI: UIConfig{
			Title:       "reactor",
			BorderColor: "#5f87af",
			Regions: []RegionLayout{
				{Name: "sidebar", Kind: KindList, Weight: 1},
				{Name: "main", Kind: KindContent, Weight: 3},
			},
		},
	}
}

// Border parses the UI border color.
func (c *UIConfig) Border() (colorful.Color, error) {
	return colorful.Hex(strings.TrimSpace(c.BorderColor))
}

// Duration is a time.Duration written as a Go duration string ("250ms").
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String implements fmt.Stringer.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}
