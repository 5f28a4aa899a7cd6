package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bricklab/go-brick/pkg/battery"
	"github.com/bricklab/go-brick/pkg/events"
	"github.com/bricklab/go-brick/pkg/melody"
	"github.com/bricklab/go-brick/pkg/playback"
	"github.com/bricklab/go-brick/pkg/speaker"
	"github.com/bricklab/go-brick/pkg/tone"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func writeSysfs(t *testing.T, voltageUV, currentUA string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "voltage_now"), []byte(voltageUV+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "current_now"), []byte(currentUA+"\n"), 0o644))
	return dir
}

func newTestServer(t *testing.T, mutate ...func(*speaker.Config)) (*Server, *speaker.Speaker, *tone.MockDevice) {
	t.Helper()

	cfg := speaker.DefaultConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	dev := &tone.MockDevice{}
	spk, err := speaker.New(cfg, testLogger(), speaker.WithToneDevice(dev))
	require.NoError(t, err)

	bcfg := battery.DefaultConfig()
	bcfg.SysfsDir = writeSysfs(t, "7100000", "51000")
	mon, err := battery.NewMonitor(bcfg, testLogger())
	require.NoError(t, err)

	srv := NewServer(Config{Host: "127.0.0.1", Port: 0}, spk, mon, events.NewHub(testLogger()), testLogger())
	return srv, spk, dev
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var m map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	return m
}

func TestServer_Health(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := srv.app.Test(httptest.NewRequest(fiber.MethodGet, "/api/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "ok", body["status"])
}

func TestServer_Status(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := srv.app.Test(httptest.NewRequest(fiber.MethodGet, "/api/status", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, false, body["busy"])
	assert.Equal(t, true, body["tone_available"])
}

func TestServer_Beep(t *testing.T) {
	srv, _, dev := newTestServer(t)

	req := jsonRequest(t, fiber.MethodPost, "/api/beep", map[string]any{
		"frequency":   880,
		"duration_ms": 10,
	})
	resp, err := srv.app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, []int32{880, 0}, dev.Frequencies())
}

func TestServer_BeepDefaults(t *testing.T) {
	srv, _, dev := newTestServer(t)

	resp, err := srv.app.Test(httptest.NewRequest(fiber.MethodPost, "/api/beep", nil), 5000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	freqs := dev.Frequencies()
	require.NotEmpty(t, freqs)
	assert.Equal(t, int32(speaker.DefaultFrequency), freqs[0])
	assert.Equal(t, int32(0), freqs[len(freqs)-1])
}

func TestServer_BeepOpenEndedThenSilence(t *testing.T) {
	srv, _, dev := newTestServer(t)

	req := jsonRequest(t, fiber.MethodPost, "/api/beep", map[string]any{
		"frequency":   440,
		"duration_ms": -1,
	})
	resp, err := srv.app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	freqs := dev.Frequencies()
	require.Equal(t, []int32{440}, freqs, "open-ended beep must leave the tone on")

	resp, err = srv.app.Test(httptest.NewRequest(fiber.MethodPost, "/api/silence", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	freqs = dev.Frequencies()
	assert.Equal(t, int32(0), freqs[len(freqs)-1])
}

func TestServer_Notes(t *testing.T) {
	srv, _, dev := newTestServer(t)

	req := jsonRequest(t, fiber.MethodPost, "/api/notes", map[string]any{
		"notes": []string{"C4/4", "E4/4"},
		"tempo": 6000,
	})
	resp, err := srv.app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(2), body["count"])

	freqs := dev.Frequencies()
	assert.Contains(t, freqs, int32(523))
	assert.Contains(t, freqs, int32(659))
	assert.Equal(t, int32(0), freqs[len(freqs)-1])
}

func TestServer_NotesValidation(t *testing.T) {
	srv, _, _ := newTestServer(t)

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing notes", map[string]any{"tempo": 120}},
		{"bad syntax", map[string]any{"notes": []string{"H4/4"}, "tempo": 6000}},
		{"bad tempo", map[string]any{"notes": []string{"C4/4"}, "tempo": -5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := srv.app.Test(jsonRequest(t, fiber.MethodPost, "/api/notes", tc.body), 5000)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestServer_File(t *testing.T) {
	aplay := writeScript(t, "aplay", "exit 0\n")
	srv, _, _ := newTestServer(t, func(c *speaker.Config) { c.AplayPath = aplay })

	req := jsonRequest(t, fiber.MethodPost, "/api/file", map[string]any{"path": "/tmp/test.wav"})
	resp, err := srv.app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestServer_FileHelperFailure(t *testing.T) {
	aplay := writeScript(t, "aplay", "echo 'no sound card' >&2\nexit 1\n")
	srv, _, _ := newTestServer(t, func(c *speaker.Config) { c.AplayPath = aplay })

	req := jsonRequest(t, fiber.MethodPost, "/api/file", map[string]any{"path": "/tmp/test.wav"})
	resp, err := srv.app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Contains(t, body["error"], "playing file failed")
	assert.Contains(t, body["error"], "no sound card")
}

func TestServer_FileSpawnError(t *testing.T) {
	srv, _, _ := newTestServer(t, func(c *speaker.Config) {
		c.AplayPath = "/nonexistent/aplay"
	})

	req := jsonRequest(t, fiber.MethodPost, "/api/file", map[string]any{"path": "/tmp/test.wav"})
	resp, err := srv.app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Contains(t, body["error"], "failed to spawn")
}

func TestServer_FileMissingPath(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := srv.app.Test(jsonRequest(t, fiber.MethodPost, "/api/file", map[string]any{}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestServer_Say(t *testing.T) {
	espeak := writeScript(t, "espeak", "printf 'fake-audio'\n")
	aplay := writeScript(t, "aplay", "cat >/dev/null\nexit 0\n")
	srv, _, _ := newTestServer(t, func(c *speaker.Config) {
		c.EspeakPath = espeak
		c.AplayPath = aplay
	})

	req := jsonRequest(t, fiber.MethodPost, "/api/say", map[string]any{"text": "hello brick"})
	resp, err := srv.app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestServer_SayMissingText(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := srv.app.Test(jsonRequest(t, fiber.MethodPost, "/api/say", map[string]any{}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestServer_BusyConflict(t *testing.T) {
	srv, spk, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- spk.PlayNotes(ctx, []string{"C4/1", "C4/1", "C4/1"}, 30)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !spk.Status().Busy {
		if time.Now().After(deadline) {
			t.Fatal("Speaker never became busy")
		}
		time.Sleep(5 * time.Millisecond)
	}

	req := jsonRequest(t, fiber.MethodPost, "/api/beep", map[string]any{"frequency": 880})
	resp, err := srv.app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Melody did not stop after cancel")
	}
}

func TestServer_Battery(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := srv.app.Test(httptest.NewRequest(fiber.MethodGet, "/api/battery", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(7100), body["voltage_mv"])
	assert.Equal(t, float64(51), body["current_ma"])
	assert.Equal(t, float64(80), body["percent"])
	assert.Equal(t, false, body["low"])
}

func TestServer_BatteryReadFailure(t *testing.T) {
	dev := &tone.MockDevice{}
	spk, err := speaker.New(speaker.DefaultConfig(), testLogger(), speaker.WithToneDevice(dev))
	require.NoError(t, err)

	bcfg := battery.DefaultConfig()
	bcfg.SysfsDir = filepath.Join(t.TempDir(), "missing")
	mon, err := battery.NewMonitor(bcfg, testLogger())
	require.NoError(t, err)

	srv := NewServer(DefaultConfig(), spk, mon, events.NewHub(testLogger()), testLogger())

	resp, err := srv.app.Test(httptest.NewRequest(fiber.MethodGet, "/api/battery", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestServer_WebsocketRequiresUpgrade(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := srv.app.Test(httptest.NewRequest(fiber.MethodGet, "/ws/events", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"busy", speaker.ErrBusy, fiber.StatusConflict},
		{"syntax", &melody.SyntaxError{Token: "X4/4", Reason: "missing octave number 2-8"}, fiber.StatusBadRequest},
		{"tempo", melody.ErrInvalidTempo, fiber.StatusBadRequest},
		{"spawn", &playback.SpawnError{Cmd: "aplay", Err: errors.New("no such file")}, fiber.StatusBadGateway},
		{"exit", &playback.ExitError{Cmd: "aplay", Stderr: "boom"}, fiber.StatusBadGateway},
		{"wrapped exit", fmt.Errorf("speaker: playing file failed: %w", &playback.ExitError{Cmd: "aplay", Stderr: "boom"}), fiber.StatusBadGateway},
		{"device", &tone.DeviceError{Op: "write", Path: "/dev/input/event0", Err: errors.New("eio")}, fiber.StatusBadGateway},
		{"other", errors.New("unexpected"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, statusFor(tc.err))
		})
	}
}
