//go:build linux

package tone

import (
	"bytes"
	"encoding/binary"
	"io"
	"log/slog"

	"golang.org/x/sys/unix"
)

// Tone commands are EV_SND events carrying a SND_TONE code. The kernel
// starts a tone at Value Hz and stops it at Value 0.
const (
	evSnd   = 0x12
	sndTone = 0x02
)

// inputEvent mirrors struct input_event from linux/input.h. Timeval
// widths differ across architectures, so the struct is encoded with
// the platform's native layout.
type inputEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

// evdevDevice writes tone events to the beep input device.
type evdevDevice struct {
	fd     int
	path   string
	logger *slog.Logger
}

func openEvdev(path string, logger *slog.Logger) (*evdevDevice, error) {
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, &DeviceError{Op: "open", Path: path, Err: err}
	}
	logger.Debug("beep device opened", "device", path)
	return &evdevDevice{fd: fd, path: path, logger: logger}, nil
}

// SetTone starts a tone at freq Hz, or stops the tone when freq is 0.
func (d *evdevDevice) SetTone(freq int32) error {
	ev := inputEvent{Type: evSnd, Code: sndTone, Value: freq}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.NativeEndian, &ev); err != nil {
		return &DeviceError{Op: "write", Path: d.path, Err: err}
	}
	if err := writeRetry(d.fd, buf.Bytes()); err != nil {
		return &DeviceError{Op: "write", Path: d.path, Err: err}
	}
	return nil
}

// writeRetry writes b, retrying while the call is interrupted by a
// signal.
func writeRetry(fd int, b []byte) error {
	for {
		n, err := unix.Write(fd, b)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return err
		}
		if n != len(b) {
			return io.ErrShortWrite
		}
		return nil
	}
}

func (d *evdevDevice) Close() error {
	if d.fd < 0 {
		return nil
	}
	err := unix.Close(d.fd)
	d.fd = -1
	if err != nil {
		return &DeviceError{Op: "close", Path: d.path, Err: err}
	}
	return nil
}

// Ensure evdevDevice implements Device.
var _ Device = (*evdevDevice)(nil)
