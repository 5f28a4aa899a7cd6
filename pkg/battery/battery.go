// Package battery reads brick battery telemetry from the Linux
// power-supply sysfs interface.
package battery

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultSysfsDir is the power-supply directory of the brick's main
// battery.
const DefaultSysfsDir = "/sys/class/power_supply/lego-ev3-battery"

// Config holds battery monitor configuration. Voltages are in
// millivolts.
type Config struct {
	// SysfsDir is the power-supply attribute directory.
	SysfsDir string `yaml:"sysfs_dir" json:"sysfs_dir"`

	// EmptyVoltage and FullVoltage bound the linear charge estimate.
	EmptyVoltage int `yaml:"empty_voltage" json:"empty_voltage"`
	FullVoltage  int `yaml:"full_voltage" json:"full_voltage"`

	// LowVoltage is the warning level reported by Low.
	LowVoltage int `yaml:"low_voltage" json:"low_voltage"`

	// SampleInterval is how often the daemon publishes a battery
	// sample event.
	SampleInterval time.Duration `yaml:"sample_interval" json:"sample_interval"`
}

// DefaultConfig returns settings for the stock 6xAA battery pack.
func DefaultConfig() Config {
	return Config{
		SysfsDir:       DefaultSysfsDir,
		EmptyVoltage:   5500,
		FullVoltage:    7500,
		LowVoltage:     6000,
		SampleInterval: 30 * time.Second,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.SysfsDir == "" {
		return fmt.Errorf("sysfs_dir must not be empty")
	}
	if c.FullVoltage <= c.EmptyVoltage {
		return fmt.Errorf("full_voltage (%d) must exceed empty_voltage (%d)",
			c.FullVoltage, c.EmptyVoltage)
	}
	if c.LowVoltage < c.EmptyVoltage || c.LowVoltage > c.FullVoltage {
		return fmt.Errorf("low_voltage (%d) must lie between empty and full",
			c.LowVoltage)
	}
	if c.SampleInterval <= 0 {
		return fmt.Errorf("sample_interval must be positive, got %v", c.SampleInterval)
	}
	return nil
}

// Reading is a battery snapshot.
type Reading struct {
	VoltageMV int  `json:"voltage_mv"`
	CurrentMA int  `json:"current_ma"`
	Percent   int  `json:"percent"`
	Low       bool `json:"low"`
}

// Monitor reads battery attributes from sysfs.
type Monitor struct {
	cfg    Config
	logger *slog.Logger
}

// NewMonitor creates a battery monitor. The sysfs directory is not
// touched until the first read, so the monitor works on machines
// without the battery driver and reports errors per call instead.
func NewMonitor(cfg Config, logger *slog.Logger) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{cfg: cfg, logger: logger}, nil
}

// Voltage returns the battery voltage in millivolts.
func (m *Monitor) Voltage() (int, error) {
	uv, err := m.readInt("voltage_now")
	if err != nil {
		return 0, err
	}
	return uv / 1000, nil
}

// Current returns the battery current in milliamps.
func (m *Monitor) Current() (int, error) {
	ua, err := m.readInt("current_now")
	if err != nil {
		return 0, err
	}
	return ua / 1000, nil
}

// Percent estimates the remaining charge from the voltage, clamped to
// 0-100.
func (m *Monitor) Percent() (int, error) {
	mv, err := m.Voltage()
	if err != nil {
		return 0, err
	}
	return m.percentOf(mv), nil
}

// Low reports whether the battery has dropped below the warning level.
func (m *Monitor) Low() (bool, error) {
	mv, err := m.Voltage()
	if err != nil {
		return false, err
	}
	return mv < m.cfg.LowVoltage, nil
}

// Read returns a full snapshot with a single voltage sample.
func (m *Monitor) Read() (Reading, error) {
	mv, err := m.Voltage()
	if err != nil {
		return Reading{}, err
	}
	ma, err := m.Current()
	if err != nil {
		return Reading{}, err
	}
	return Reading{
		VoltageMV: mv,
		CurrentMA: ma,
		Percent:   m.percentOf(mv),
		Low:       mv < m.cfg.LowVoltage,
	}, nil
}

// SampleInterval returns the configured publish interval.
func (m *Monitor) SampleInterval() time.Duration {
	return m.cfg.SampleInterval
}

func (m *Monitor) percentOf(mv int) int {
	span := m.cfg.FullVoltage - m.cfg.EmptyVoltage
	pct := 100 * (mv - m.cfg.EmptyVoltage) / span
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// readInt reads one sysfs attribute holding a decimal integer.
func (m *Monitor) readInt(attr string) (int, error) {
	path := filepath.Join(m.cfg.SysfsDir, attr)
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("battery: read %s: %w", attr, err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("battery: parse %s: %w", attr, err)
	}
	return v, nil
}
