package tone

import "fmt"

// DeviceError reports a failed operation on the beep device.
type DeviceError struct {
	Op   string // "open", "write" or "close"
	Path string
	Err  error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("tone: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}
