package melody

import (
	"context"
	"log/slog"
	"time"
)

// Tone is the sound endpoint a Sequencer drives. Frequency 0 means
// silence.
type Tone interface {
	SetTone(freq int32) error
}

// Sequencer plays note sequences on a tone device with firmware
// timing: each untied note sounds for 7/8 of its length and releases
// for the remaining 1/8 so successive notes stay distinct.
type Sequencer struct {
	tone   Tone
	logger *slog.Logger
}

// NewSequencer creates a sequencer driving the given tone endpoint.
func NewSequencer(tone Tone, logger *slog.Logger) *Sequencer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sequencer{tone: tone, logger: logger}
}

// Play sounds each note in order at the given tempo in quarter notes
// per minute. It blocks until the sequence finishes, a note fails to
// parse or sound, or ctx is cancelled. The tone is silenced before
// returning on every path. A cancelled sequence is not resumable;
// play it again from the start.
func (s *Sequencer) Play(ctx context.Context, notes []string, tempo int) (err error) {
	if tempo <= 0 {
		return ErrInvalidTempo
	}
	whole := WholeNote(tempo)

	s.logger.Debug("melody started", "notes", len(notes), "tempo", tempo)

	// Exit silent on every path. This also ends a trailing tied note,
	// which skips its own release.
	defer func() {
		if serr := s.tone.SetTone(0); serr != nil && err == nil {
			err = serr
		}
	}()

	for _, token := range notes {
		n, err := ParseNote(token)
		if err != nil {
			return err
		}
		if err := s.playNote(ctx, n, whole); err != nil {
			return err
		}
	}

	return nil
}

func (s *Sequencer) playNote(ctx context.Context, n Note, whole time.Duration) error {
	d := n.Duration(whole)

	if err := s.tone.SetTone(int32(n.Frequency)); err != nil {
		return err
	}

	if n.Tied {
		return sleepCtx(ctx, d)
	}

	ms := d.Milliseconds()
	if err := sleepCtx(ctx, time.Duration(7*ms/8)*time.Millisecond); err != nil {
		return err
	}
	if err := s.tone.SetTone(0); err != nil {
		return err
	}
	return sleepCtx(ctx, time.Duration(ms/8)*time.Millisecond)
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
