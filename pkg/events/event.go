// Package events provides the websocket fan-out hub for brickd event
// streaming. Producers publish typed envelopes and every connected
// subscriber receives them as JSON text frames.
package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Wire event types emitted by brickd.
const (
	TypePlaybackStarted  = "playback.started"
	TypePlaybackFinished = "playback.finished"
	TypePlaybackFailed   = "playback.failed"
	TypeBatterySample    = "battery.sample"
)

// Event is the envelope for every message broadcast to subscribers.
type Event struct {
	Type      string          `json:"type"`
	Timestamp int64           `json:"ts"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewEvent creates an event with the current timestamp.
func NewEvent(eventType string, data any) (Event, error) {
	var raw json.RawMessage
	if data != nil {
		var err error
		raw, err = json.Marshal(data)
		if err != nil {
			return Event{}, fmt.Errorf("events: marshal %s data: %w", eventType, err)
		}
	}
	return Event{
		Type:      eventType,
		Timestamp: time.Now().UnixMilli(),
		Data:      raw,
	}, nil
}

// ParseEvent parses a JSON-encoded event.
func ParseEvent(data []byte) (Event, error) {
	var evt Event
	if err := json.Unmarshal(data, &evt); err != nil {
		return Event{}, fmt.Errorf("events: parse event: %w", err)
	}
	return evt, nil
}

// ParseData unmarshals the event payload into v. A missing payload
// leaves v untouched.
func (e Event) ParseData(v any) error {
	if e.Data == nil {
		return nil
	}
	return json.Unmarshal(e.Data, v)
}

// Bytes returns the JSON encoding of the event.
func (e Event) Bytes() ([]byte, error) {
	return json.Marshal(e)
}
