package speaker

import (
	"fmt"
	"time"

	"github.com/bricklab/go-brick/pkg/tone"
)

// Defaults applied when a caller leaves a field or argument unset.
const (
	DefaultFrequency    = 500
	DefaultBeepDuration = 100 * time.Millisecond
	DefaultTempo        = 120
)

// Config holds speaker configuration.
type Config struct {
	// Tone configures the beep device.
	Tone tone.Config `yaml:"tone" json:"tone"`

	// AplayPath is the sampled-audio playback executable. It must
	// accept "-q <path>" for files and "-q" with audio on stdin.
	AplayPath string `yaml:"aplay_path" json:"aplay_path"`

	// EspeakPath is the speech synthesis executable. It is invoked
	// with "--stdout" and must write its audio there.
	EspeakPath string `yaml:"espeak_path" json:"espeak_path"`

	// Voice, Speed and Amplitude are handed to the synthesizer.
	Voice     string `yaml:"voice" json:"voice"`
	Speed     int    `yaml:"speed" json:"speed"`
	Amplitude int    `yaml:"amplitude" json:"amplitude"`

	// Tempo is the melody tempo in quarter notes per minute used when
	// a request does not carry one.
	Tempo int `yaml:"tempo" json:"tempo"`
}

// DefaultConfig returns a Config with the stock brick settings.
func DefaultConfig() Config {
	return Config{
		Tone:       tone.DefaultConfig(),
		AplayPath:  "aplay",
		EspeakPath: "espeak",
		Voice:      "en",
		Speed:      100,
		Amplitude:  200,
		Tempo:      DefaultTempo,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.AplayPath == "" {
		return fmt.Errorf("aplay_path must not be empty")
	}
	if c.EspeakPath == "" {
		return fmt.Errorf("espeak_path must not be empty")
	}
	if c.Voice == "" {
		return fmt.Errorf("voice must not be empty")
	}
	if c.Speed <= 0 {
		return fmt.Errorf("speed must be positive, got %d", c.Speed)
	}
	if c.Amplitude <= 0 {
		return fmt.Errorf("amplitude must be positive, got %d", c.Amplitude)
	}
	if c.Tempo <= 0 {
		return fmt.Errorf("tempo must be positive, got %d", c.Tempo)
	}
	if err := c.Tone.Validate(); err != nil {
		return fmt.Errorf("tone: %w", err)
	}
	return nil
}
