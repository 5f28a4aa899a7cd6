package tone

import (
	"sync"
	"time"
)

// ToneCall records one SetTone invocation on a MockDevice.
type ToneCall struct {
	Frequency int32
	At        time.Time
}

// MockDevice is a tone device for testing. It records every SetTone
// call and can be told to fail.
type MockDevice struct {
	mu     sync.Mutex
	calls  []ToneCall
	closed bool

	// SetToneFunc, when set, supplies the return value of SetTone.
	// The call is recorded either way.
	SetToneFunc func(freq int32) error
}

// NewMockDevice creates a new mock tone device.
func NewMockDevice() *MockDevice {
	return &MockDevice{}
}

// SetTone records the call.
func (m *MockDevice) SetTone(freq int32) error {
	m.mu.Lock()
	m.calls = append(m.calls, ToneCall{Frequency: freq, At: time.Now()})
	fn := m.SetToneFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(freq)
	}
	return nil
}

// Close marks the device closed.
func (m *MockDevice) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockDevice) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Calls returns a copy of the recorded calls.
func (m *MockDevice) Calls() []ToneCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ToneCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Frequencies returns the recorded frequencies in call order.
func (m *MockDevice) Frequencies() []int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int32, len(m.calls))
	for i, c := range m.calls {
		out[i] = c.Frequency
	}
	return out
}

// Reset discards recorded calls.
func (m *MockDevice) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Ensure MockDevice implements Device.
var _ Device = (*MockDevice)(nil)
