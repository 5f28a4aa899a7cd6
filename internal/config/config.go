// Package config handles loading and validating the brickd configuration.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/bricklab/go-brick/pkg/battery"
	"github.com/bricklab/go-brick/pkg/speaker"
	"github.com/bricklab/go-brick/pkg/tone"
	"github.com/bricklab/go-brick/pkg/web"
)

// Config is the root configuration for the brickd daemon.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Speaker SpeakerConfig `mapstructure:"speaker"`
	Battery BatteryConfig `mapstructure:"battery"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// SpeakerConfig holds sound subsystem settings.
type SpeakerConfig struct {
	ToneBackend string `mapstructure:"tone_backend"` // auto, evdev, mock
	ToneDevice  string `mapstructure:"tone_device"`
	AplayPath   string `mapstructure:"aplay_path"`
	EspeakPath  string `mapstructure:"espeak_path"`
	Voice       string `mapstructure:"voice"`
	Speed       int    `mapstructure:"speed"`     // words per minute
	Amplitude   int    `mapstructure:"amplitude"` // 0-200
	Tempo       int    `mapstructure:"tempo"`     // quarter notes per minute
}

// BatteryConfig holds battery telemetry settings. Voltages are in
// millivolts.
type BatteryConfig struct {
	SysfsDir       string        `mapstructure:"sysfs_dir"`
	EmptyVoltage   int           `mapstructure:"empty_voltage"`
	FullVoltage    int           `mapstructure:"full_voltage"`
	LowVoltage     int           `mapstructure:"low_voltage"`
	SampleInterval time.Duration `mapstructure:"sample_interval"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./brickd.yaml, ./configs/brickd.yaml, /etc/brickd/brickd.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)
	v.SetDefault("speaker.tone_backend", string(tone.BackendAuto))
	v.SetDefault("speaker.tone_device", tone.DefaultDevicePath)
	v.SetDefault("speaker.aplay_path", "aplay")
	v.SetDefault("speaker.espeak_path", "espeak")
	v.SetDefault("speaker.voice", "en")
	v.SetDefault("speaker.speed", 100)
	v.SetDefault("speaker.amplitude", 200)
	v.SetDefault("speaker.tempo", speaker.DefaultTempo)
	v.SetDefault("battery.sysfs_dir", battery.DefaultSysfsDir)
	v.SetDefault("battery.empty_voltage", 5500)
	v.SetDefault("battery.full_voltage", 7500)
	v.SetDefault("battery.low_voltage", 6000)
	v.SetDefault("battery.sample_interval", "30s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("brickd")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/brickd")
	}

	// Environment variables: BRICK_SERVER_PORT, BRICK_SPEAKER_VOICE, etc.
	v.SetEnvPrefix("BRICK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - env vars and defaults are sufficient)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}

// SpeakerConfig converts to the speaker package's configuration.
func (c *Config) SpeakerConfig() speaker.Config {
	return speaker.Config{
		Tone: tone.Config{
			Backend:    tone.Backend(c.Speaker.ToneBackend),
			DevicePath: c.Speaker.ToneDevice,
		},
		AplayPath:  c.Speaker.AplayPath,
		EspeakPath: c.Speaker.EspeakPath,
		Voice:      c.Speaker.Voice,
		Speed:      c.Speaker.Speed,
		Amplitude:  c.Speaker.Amplitude,
		Tempo:      c.Speaker.Tempo,
	}
}

// BatteryConfig converts to the battery package's configuration.
func (c *Config) BatteryConfig() battery.Config {
	return battery.Config{
		SysfsDir:       c.Battery.SysfsDir,
		EmptyVoltage:   c.Battery.EmptyVoltage,
		FullVoltage:    c.Battery.FullVoltage,
		LowVoltage:     c.Battery.LowVoltage,
		SampleInterval: c.Battery.SampleInterval,
	}
}

// WebConfig converts to the web package's configuration.
func (c *Config) WebConfig() web.Config {
	return web.Config{
		Host: c.Server.Host,
		Port: c.Server.Port,
	}
}

// Validate checks the loaded configuration as a whole.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	spk := c.SpeakerConfig()
	if err := spk.Validate(); err != nil {
		return fmt.Errorf("speaker: %w", err)
	}
	bat := c.BatteryConfig()
	if err := bat.Validate(); err != nil {
		return fmt.Errorf("battery: %w", err)
	}
	return nil
}
