// Package tone drives the programmable brick's beep device.
//
// This package supports multiple backends:
//   - evdev (Linux/Brick) - Production use on the EV3-style sound driver
//   - Mock - CI/Testing without hardware
//
// The real backend writes EV_SND/SND_TONE input events to the event
// device exposed by the platform sound driver. When the device cannot
// be opened the driver degrades to a silent no-op so sound-optional
// programs run unchanged on hardware without a speaker.
package tone

import (
	"fmt"
	"log/slog"
	"runtime"
)

// Backend represents the tone device backend type.
type Backend string

const (
	// BackendAuto automatically selects the best available backend.
	BackendAuto Backend = "auto"
	// BackendEvdev writes input events to the Linux beep device.
	BackendEvdev Backend = "evdev"
	// BackendMock uses a mock implementation for testing.
	BackendMock Backend = "mock"
)

// DefaultDevicePath is the beep device exposed by the platform sound
// driver on the brick.
const DefaultDevicePath = "/dev/input/by-path/platform-sound-event"

// Device is a tone endpoint. SetTone starts a tone at the given
// frequency in Hz; frequency 0 stops it.
type Device interface {
	SetTone(freq int32) error
	Close() error
}

// Config holds tone device configuration.
type Config struct {
	// Backend specifies which tone backend to use.
	// Default: "auto" (evdev on Linux, mock elsewhere)
	Backend Backend `yaml:"backend" json:"backend"`

	// DevicePath is the input event device that accepts tone commands.
	// Ignored by the mock backend.
	DevicePath string `yaml:"device_path" json:"device_path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend:    BackendAuto,
		DevicePath: DefaultDevicePath,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendAuto, BackendEvdev, BackendMock:
	default:
		return fmt.Errorf("unsupported backend: %s", c.Backend)
	}
	if c.DevicePath == "" {
		return fmt.Errorf("device_path must not be empty")
	}
	return nil
}

// Driver produces tones on the brick speaker.
//
// A Driver whose device failed to open stays usable: SetTone and
// Silence become no-ops. The failure is logged once at open time.
type Driver struct {
	dev    Device
	logger *slog.Logger
}

// NewDriver wraps an explicit device. A nil device yields a silent
// driver.
func NewDriver(dev Device, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{dev: dev, logger: logger}
}

// Open creates a tone driver with the given configuration.
// If cfg.Backend is BackendAuto, the best available backend is selected.
// A missing or unopenable device does not fail the call; the driver
// comes up silent instead.
func Open(cfg Config, logger *slog.Logger) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	backend := cfg.Backend
	if backend == BackendAuto {
		backend = detectBestBackend()
	}

	logger.Info("creating tone driver",
		"backend", backend,
		"device", cfg.DevicePath,
	)

	switch backend {
	case BackendMock:
		return &Driver{dev: NewMockDevice(), logger: logger}, nil
	case BackendEvdev:
		dev, err := openEvdev(cfg.DevicePath, logger)
		if err != nil {
			logger.Warn("beep device unavailable, tones disabled",
				"device", cfg.DevicePath,
				"error", err,
			)
			return &Driver{logger: logger}, nil
		}
		return &Driver{dev: dev, logger: logger}, nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}
}

// detectBestBackend returns the best available backend for the current platform.
func detectBestBackend() Backend {
	if runtime.GOOS == "linux" {
		return BackendEvdev
	}
	return BackendMock
}

// Available reports whether a real device backs this driver.
func (d *Driver) Available() bool {
	return d.dev != nil
}

// SetTone starts a tone at freq Hz. Frequency 0 stops the tone.
func (d *Driver) SetTone(freq int32) error {
	if d.dev == nil {
		return nil
	}
	return d.dev.SetTone(freq)
}

// Silence stops any sounding tone.
func (d *Driver) Silence() error {
	return d.SetTone(0)
}

// Close silences the speaker and releases the device.
func (d *Driver) Close() error {
	if d.dev == nil {
		return nil
	}
	if err := d.dev.SetTone(0); err != nil {
		d.logger.Debug("silence on close failed", "error", err)
	}
	err := d.dev.Close()
	d.dev = nil
	return err
}
