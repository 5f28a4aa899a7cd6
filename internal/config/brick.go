package config

import "os"

// BrickAddr returns the daemon address from the BRICK_ADDR env var.
// Falls back to the provided default if not set.
func BrickAddr(defaultAddr string) string {
	if addr := os.Getenv("BRICK_ADDR"); addr != "" {
		return addr
	}
	return defaultAddr
}
