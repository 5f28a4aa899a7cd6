package tone

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDriver_SetTone(t *testing.T) {
	dev := NewMockDevice()
	d := NewDriver(dev, nil)

	if err := d.SetTone(440); err != nil {
		t.Fatalf("SetTone failed: %v", err)
	}
	if err := d.Silence(); err != nil {
		t.Fatalf("Silence failed: %v", err)
	}

	freqs := dev.Frequencies()
	if len(freqs) != 2 {
		t.Fatalf("Expected 2 calls, got %d", len(freqs))
	}
	if freqs[0] != 440 {
		t.Errorf("Expected 440, got %d", freqs[0])
	}
	if freqs[1] != 0 {
		t.Errorf("Expected silence (0), got %d", freqs[1])
	}
}

func TestDriver_Degraded(t *testing.T) {
	// A driver with no device must stay usable and silent.
	d := NewDriver(nil, nil)

	if d.Available() {
		t.Error("Expected degraded driver to report unavailable")
	}
	if err := d.SetTone(440); err != nil {
		t.Errorf("Degraded SetTone should be a no-op, got: %v", err)
	}
	if err := d.Silence(); err != nil {
		t.Errorf("Degraded Silence should be a no-op, got: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("Degraded Close should be a no-op, got: %v", err)
	}
}

func TestDriver_WriteError(t *testing.T) {
	dev := NewMockDevice()
	wantErr := &DeviceError{Op: "write", Path: "/dev/null", Err: errors.New("boom")}
	dev.SetToneFunc = func(freq int32) error { return wantErr }

	d := NewDriver(dev, nil)

	err := d.SetTone(440)
	if err == nil {
		t.Fatal("Expected write error")
	}
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("Expected DeviceError, got %T: %v", err, err)
	}
	if devErr.Op != "write" {
		t.Errorf("Expected op 'write', got '%s'", devErr.Op)
	}
}

func TestDriver_CloseSilencesFirst(t *testing.T) {
	dev := NewMockDevice()
	d := NewDriver(dev, nil)

	if err := d.SetTone(880); err != nil {
		t.Fatalf("SetTone failed: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	freqs := dev.Frequencies()
	if len(freqs) != 2 || freqs[1] != 0 {
		t.Errorf("Expected a final silence write before close, got %v", freqs)
	}
	if !dev.Closed() {
		t.Error("Expected device to be closed")
	}

	// Close is idempotent and the driver stays silent afterwards.
	if err := d.Close(); err != nil {
		t.Fatalf("Second Close failed: %v", err)
	}
	if err := d.SetTone(440); err != nil {
		t.Errorf("SetTone after Close should be a no-op, got: %v", err)
	}
}

func TestOpen_MockBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = BackendMock

	d, err := Open(cfg, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer d.Close()

	if !d.Available() {
		t.Error("Expected mock backend to be available")
	}
	if err := d.SetTone(262); err != nil {
		t.Errorf("SetTone failed: %v", err)
	}
}

func TestOpen_InvalidConfig(t *testing.T) {
	cfg := Config{Backend: "pulse", DevicePath: DefaultDevicePath}
	if _, err := Open(cfg, nil); err == nil {
		t.Error("Expected error for unsupported backend")
	}

	cfg = Config{Backend: BackendMock, DevicePath: ""}
	if _, err := Open(cfg, nil); err == nil {
		t.Error("Expected error for empty device path")
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Backend != BackendAuto {
		t.Errorf("Expected auto backend, got %s", cfg.Backend)
	}
	if cfg.DevicePath != DefaultDevicePath {
		t.Errorf("Expected default device path, got %s", cfg.DevicePath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate, got: %v", err)
	}
}
