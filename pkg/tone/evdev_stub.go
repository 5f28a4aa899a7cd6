//go:build !linux

package tone

import (
	"fmt"
	"log/slog"
)

// openEvdev returns an error on non-Linux platforms.
func openEvdev(path string, logger *slog.Logger) (Device, error) {
	return nil, fmt.Errorf("evdev tones are only available on Linux")
}
