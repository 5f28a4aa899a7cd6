// Package client is a Go client for the brickd HTTP API.
//
// Playback calls block until the sound finishes on the brick, mirroring
// the local speaker API, so the default HTTP client allows several
// minutes per request.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bricklab/go-brick/internal/httpc"
)

// Client talks to a brickd daemon.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a client for the brickd instance at baseURL, for example
// "http://192.168.2.3:8090".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpc.NewClient(httpc.PlaybackTimeout),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health is the daemon liveness report.
type Health struct {
	Status  string `json:"status"`
	UptimeS int64  `json:"uptime_s"`
}

// Activity summarizes one playback request.
type Activity struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Detail    string    `json:"detail,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// Status is the speaker snapshot reported by the daemon.
type Status struct {
	Busy          bool      `json:"busy"`
	ToneAvailable bool      `json:"tone_available"`
	Last          *Activity `json:"last,omitempty"`
}

// BatteryReading is a battery snapshot.
type BatteryReading struct {
	VoltageMV int  `json:"voltage_mv"`
	CurrentMA int  `json:"current_ma"`
	Percent   int  `json:"percent"`
	Low       bool `json:"low"`
}

// Health returns daemon liveness.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.get(ctx, "/api/health", &h)
	return h, err
}

// Status returns the speaker snapshot.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var s Status
	err := c.get(ctx, "/api/status", &s)
	return s, err
}

// Battery returns a fresh battery reading.
func (c *Client) Battery(ctx context.Context) (BatteryReading, error) {
	var b BatteryReading
	err := c.get(ctx, "/api/battery", &b)
	return b, err
}

// Beep sounds a tone and returns when it ends. A negative duration
// leaves the tone on until Silence.
func (c *Client) Beep(ctx context.Context, freq int32, duration time.Duration) error {
	ms := duration.Milliseconds()
	if duration < 0 && ms == 0 {
		// Sub-millisecond negative durations still mean "stay on".
		ms = -1
	}
	return c.post(ctx, "/api/beep", map[string]any{
		"frequency":   freq,
		"duration_ms": ms,
	})
}

// PlayNotes plays a melody from note tokens such as "C4/4". Tempo 0
// selects the daemon's default.
func (c *Client) PlayNotes(ctx context.Context, notes []string, tempo int) error {
	return c.post(ctx, "/api/notes", map[string]any{
		"notes": notes,
		"tempo": tempo,
	})
}

// PlayFile plays a sound file that exists on the brick.
func (c *Client) PlayFile(ctx context.Context, path string) error {
	return c.post(ctx, "/api/file", map[string]any{"path": path})
}

// Say speaks the given text on the brick.
func (c *Client) Say(ctx context.Context, text string) error {
	return c.post(ctx, "/api/say", map[string]any{"text": text})
}

// Silence turns the tone off, ending an open-ended beep.
func (c *Client) Silence(ctx context.Context) error {
	return c.post(ctx, "/api/silence", nil)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("client: building request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("client: encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("client: building request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return apiError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("client: decoding %s response: %w", req.URL.Path, err)
		}
	}
	return nil
}

// apiError extracts the daemon's error message, falling back to the raw
// body when it is not the usual JSON shape.
func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return &APIError{Status: resp.StatusCode, Message: payload.Error}
	}
	return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
}
