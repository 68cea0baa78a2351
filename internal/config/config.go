// Package config loads the ringctl configuration file: which ring to poll,
// how often, and the tunables of the measurement convergence heuristic.
//
// The stability window and session ceiling are empirically chosen against
// real hardware, not documented device constants, which is why they live in
// configuration instead of the protocol package.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mcuadros/go-defaults"
	"gopkg.in/yaml.v3"

	"github.com/srg/ringctl/internal/protocol"
)

// Polling interval bounds in minutes. Tighter than 5 minutes drains the
// ring's battery noticeably; beyond an hour the data stops being useful.
const (
	MinIntervalMinutes = 5
	MaxIntervalMinutes = 60
)

// Duration wraps time.Duration so YAML values can be written as "4s" / "10m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the ringctl configuration. All fields have working defaults; an
// empty file yields a usable config for everything except the ring address.
type Config struct {
	// Address is the ring's radio address (MAC on Linux, CoreBluetooth UUID
	// on macOS).
	Address string `yaml:"address"`
	// Name is a free-form label used in logs and output.
	Name string `yaml:"name" default:"Colmi R09"`

	// IntervalMinutes is the watch-mode polling interval, clamped to
	// [5, 60] minutes.
	IntervalMinutes int `yaml:"scan_interval" default:"10"`

	// ConnectAttempts is the per-session connection retry ceiling.
	ConnectAttempts int `yaml:"connect_attempts" default:"8"`

	// Metrics restricts which measurements a round collects. Empty means all
	// seven.
	Metrics []string `yaml:"metrics"`

	ConnectTimeout  Duration `yaml:"connect_timeout"`
	StabilityWindow Duration `yaml:"stability_window"`
	SessionCeiling  Duration `yaml:"session_ceiling"`
	PollCadence     Duration `yaml:"poll_cadence"`
	BatteryTimeout  Duration `yaml:"battery_timeout"`
}

// New returns a config populated with defaults.
func New() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	cfg.normalize()
	return cfg
}

// Load reads and validates a YAML config file. Unknown fields are rejected to
// catch typos early.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML config document.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	defaults.SetDefaults(cfg)

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize fills zero durations with the defaults and clamps the polling
// interval to its bounds.
func (c *Config) normalize() {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = Duration(10 * time.Second)
	}
	if c.StabilityWindow <= 0 {
		c.StabilityWindow = Duration(4 * time.Second)
	}
	if c.SessionCeiling <= 0 {
		c.SessionCeiling = Duration(60 * time.Second)
	}
	if c.PollCadence <= 0 {
		c.PollCadence = Duration(time.Second)
	}
	if c.BatteryTimeout <= 0 {
		c.BatteryTimeout = Duration(10 * time.Second)
	}
	if c.IntervalMinutes < MinIntervalMinutes {
		c.IntervalMinutes = MinIntervalMinutes
	}
	if c.IntervalMinutes > MaxIntervalMinutes {
		c.IntervalMinutes = MaxIntervalMinutes
	}
}

// Validate rejects configs that cannot work.
func (c *Config) Validate() error {
	if c.ConnectAttempts <= 0 {
		return fmt.Errorf("connect_attempts must be positive, got %d", c.ConnectAttempts)
	}
	for _, name := range c.Metrics {
		if _, ok := protocol.ParseMeasurementType(name); !ok {
			return fmt.Errorf("unknown metric %q in config", name)
		}
	}
	return nil
}

// MeasurementTypes resolves the configured metric names to wire codes. An
// empty list means all supported types, in session order.
func (c *Config) MeasurementTypes() []protocol.MeasurementType {
	if len(c.Metrics) == 0 {
		return protocol.MeasurementTypes
	}
	types := make([]protocol.MeasurementType, 0, len(c.Metrics))
	for _, name := range c.Metrics {
		if mt, ok := protocol.ParseMeasurementType(name); ok {
			types = append(types, mt)
		}
	}
	return types
}

// Interval returns the watch-mode polling interval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}
