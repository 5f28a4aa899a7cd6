// Package speaker is the playback front end of the brick sound
// subsystem: beeps and melodies through the tone device, file playback
// and speech through external helper processes.
//
// A Speaker accepts one request at a time. Overlapping calls fail fast
// with ErrBusy rather than queueing, so a runaway caller cannot stack
// up sounds behind a long melody.
package speaker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bricklab/go-brick/pkg/melody"
	"github.com/bricklab/go-brick/pkg/playback"
	"github.com/bricklab/go-brick/pkg/tone"
)

// Event names published through the Publisher.
const (
	EventStarted  = "playback.started"
	EventFinished = "playback.finished"
	EventFailed   = "playback.failed"
)

// Publisher receives playback lifecycle events. A nil publisher drops
// them.
type Publisher interface {
	Publish(event string, data any)
}

// PlaybackEvent is the payload published at request start and end.
type PlaybackEvent struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Detail     string `json:"detail,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
}

// Activity describes one accepted playback request.
type Activity struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"` // "beep", "notes", "file" or "say"
	Detail    string    `json:"detail,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// Status is a point-in-time snapshot of the speaker.
type Status struct {
	Busy          bool      `json:"busy"`
	ToneAvailable bool      `json:"tone_available"`
	Last          *Activity `json:"last,omitempty"`
}

// Speaker plays sounds on the brick.
type Speaker struct {
	cfg    Config
	driver *tone.Driver
	seq    *melody.Sequencer
	runner *playback.Runner
	logger *slog.Logger
	pub    Publisher

	mu   sync.Mutex
	busy bool
	last *Activity
}

// Option configures a Speaker.
type Option func(*Speaker)

// WithPublisher sends playback lifecycle events to pub.
func WithPublisher(pub Publisher) Option {
	return func(s *Speaker) { s.pub = pub }
}

// WithToneDevice substitutes the tone device, bypassing the configured
// backend. Used by tests.
func WithToneDevice(dev tone.Device) Option {
	return func(s *Speaker) { s.driver = tone.NewDriver(dev, s.logger) }
}

// New creates a speaker from the given configuration.
func New(cfg Config, logger *slog.Logger, opts ...Option) (*Speaker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Speaker{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(s)
	}

	if s.driver == nil {
		d, err := tone.Open(cfg.Tone, logger)
		if err != nil {
			return nil, err
		}
		s.driver = d
	}
	s.seq = melody.NewSequencer(s.driver, logger)
	s.runner = playback.NewRunner(logger)

	return s, nil
}

// Beep sounds a tone. Frequency 0 silences; a negative duration leaves
// the tone on until Silence is called. The tone is silenced even when
// the wait is cut short by ctx.
func (s *Speaker) Beep(ctx context.Context, freq int32, duration time.Duration) error {
	act, err := s.begin("beep", strconv.Itoa(int(freq))+" Hz")
	if err != nil {
		return err
	}
	err = s.beep(ctx, freq, duration)
	s.end(act, err)
	return err
}

func (s *Speaker) beep(ctx context.Context, freq int32, duration time.Duration) error {
	if err := s.driver.SetTone(freq); err != nil {
		return err
	}
	if duration < 0 {
		// Tone keeps sounding. The caller silences it later.
		return nil
	}
	werr := sleepCtx(ctx, duration)
	if serr := s.driver.Silence(); werr == nil && serr != nil {
		return serr
	}
	return werr
}

// PlayNotes plays a sequence of note tokens such as "C4/4" at the
// given tempo in quarter notes per minute. Tempo 0 selects the
// configured default.
func (s *Speaker) PlayNotes(ctx context.Context, notes []string, tempo int) error {
	if tempo == 0 {
		tempo = s.cfg.Tempo
	}
	act, err := s.begin("notes", fmt.Sprintf("%d notes at tempo %d", len(notes), tempo))
	if err != nil {
		return err
	}
	err = s.seq.Play(ctx, notes, tempo)
	s.end(act, err)
	return err
}

// PlayFile plays a sound file through the playback helper.
func (s *Speaker) PlayFile(ctx context.Context, path string) error {
	act, err := s.begin("file", path)
	if err != nil {
		return err
	}
	err = s.playFile(ctx, path)
	s.end(act, err)
	return err
}

func (s *Speaker) playFile(ctx context.Context, path string) error {
	err := s.runner.Run(ctx, playback.Command{
		Path: s.cfg.AplayPath,
		Args: []string{"-q", path},
	})
	var exitErr *playback.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("speaker: playing file failed: %w", err)
	}
	return err
}

// Say speaks the given text: the synthesizer renders it to audio on
// its stdout, which is piped into the playback helper.
func (s *Speaker) Say(ctx context.Context, text string) error {
	act, err := s.begin("say", truncate(text, 80))
	if err != nil {
		return err
	}
	err = s.say(ctx, text)
	s.end(act, err)
	return err
}

func (s *Speaker) say(ctx context.Context, text string) error {
	synth := playback.Command{
		Path: s.cfg.EspeakPath,
		Args: []string{
			"-a", strconv.Itoa(s.cfg.Amplitude),
			"-s", strconv.Itoa(s.cfg.Speed),
			"-v", s.cfg.Voice,
			"--stdout", text,
		},
	}
	play := playback.Command{
		Path: s.cfg.AplayPath,
		Args: []string{"-q"},
	}
	err := s.runner.RunPiped(ctx, synth, play)
	var exitErr *playback.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("speaker: saying text failed: %w", err)
	}
	return err
}

// Silence stops any sounding tone, ending an open-ended beep. It works
// regardless of the busy state.
func (s *Speaker) Silence() error {
	return s.driver.Silence()
}

// Status returns a snapshot of the speaker state.
func (s *Speaker) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{Busy: s.busy, ToneAvailable: s.driver.Available()}
	if s.last != nil {
		a := *s.last
		st.Last = &a
	}
	return st
}

// Close silences the tone and releases the device.
func (s *Speaker) Close() error {
	return s.driver.Close()
}

// begin claims the speaker for one request, failing fast with ErrBusy
// if another request is in flight.
func (s *Speaker) begin(kind, detail string) (*Activity, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	act := &Activity{
		ID:        uuid.NewString(),
		Kind:      kind,
		Detail:    detail,
		StartedAt: time.Now(),
	}
	s.busy = true
	s.last = act
	s.mu.Unlock()

	s.logger.Info("playback started", "id", act.ID, "kind", kind, "detail", detail)
	s.publish(EventStarted, PlaybackEvent{ID: act.ID, Kind: kind, Detail: detail})
	return act, nil
}

func (s *Speaker) end(act *Activity, err error) {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()

	elapsed := time.Since(act.StartedAt)
	ev := PlaybackEvent{
		ID:         act.ID,
		Kind:       act.Kind,
		Detail:     act.Detail,
		DurationMS: elapsed.Milliseconds(),
	}
	if err != nil {
		ev.Error = err.Error()
		s.logger.Warn("playback failed", "id", act.ID, "kind", act.Kind, "error", err)
		s.publish(EventFailed, ev)
		return
	}
	s.logger.Debug("playback finished", "id", act.ID, "kind", act.Kind, "duration_ms", ev.DurationMS)
	s.publish(EventFinished, ev)
}

func (s *Speaker) publish(event string, data PlaybackEvent) {
	if s.pub != nil {
		s.pub.Publish(event, data)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// sleepCtx suspends for d without blocking other goroutines, waking
// early if ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
