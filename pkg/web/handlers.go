package web

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/bricklab/go-brick/pkg/melody"
	"github.com/bricklab/go-brick/pkg/playback"
	"github.com/bricklab/go-brick/pkg/speaker"
	"github.com/bricklab/go-brick/pkg/tone"
)

// handleHealth reports liveness.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "ok",
		"uptime_s": int64(time.Since(s.started).Seconds()),
	})
}

// handleStatus returns the speaker snapshot.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.speaker.Status())
}

// handleBattery returns a fresh battery reading.
func (s *Server) handleBattery(c *fiber.Ctx) error {
	r, err := s.battery.Read()
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(r)
}

// beepRequest uses pointers so an explicit zero is distinct from an
// omitted field.
type beepRequest struct {
	Frequency  *int32 `json:"frequency"`
	DurationMS *int64 `json:"duration_ms"`
}

// handleBeep sounds a tone. With no body it plays the default beep.
// A negative duration_ms leaves the tone on until /api/silence.
func (s *Server) handleBeep(c *fiber.Ctx) error {
	var req beepRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON body")
		}
	}

	freq := int32(speaker.DefaultFrequency)
	if req.Frequency != nil {
		freq = *req.Frequency
	}
	duration := speaker.DefaultBeepDuration
	if req.DurationMS != nil {
		duration = time.Duration(*req.DurationMS) * time.Millisecond
	}

	if err := s.speaker.Beep(c.Context(), freq, duration); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"status": "done"})
}

type notesRequest struct {
	Notes []string `json:"notes"`
	Tempo int      `json:"tempo"`
}

// handleNotes plays a note sequence. Tempo 0 selects the configured
// default.
func (s *Server) handleNotes(c *fiber.Ctx) error {
	var req notesRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}
	if len(req.Notes) == 0 {
		return badRequest(c, "notes required")
	}

	if err := s.speaker.PlayNotes(c.Context(), req.Notes, req.Tempo); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"status": "done", "count": len(req.Notes)})
}

type fileRequest struct {
	Path string `json:"path"`
}

// handleFile plays a sound file on the brick.
func (s *Server) handleFile(c *fiber.Ctx) error {
	var req fileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}
	if req.Path == "" {
		return badRequest(c, "path required")
	}

	if err := s.speaker.PlayFile(c.Context(), req.Path); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"status": "done"})
}

type sayRequest struct {
	Text string `json:"text"`
}

// handleSay speaks the given text.
func (s *Server) handleSay(c *fiber.Ctx) error {
	var req sayRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}
	if req.Text == "" {
		return badRequest(c, "text required")
	}

	if err := s.speaker.Say(c.Context(), req.Text); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"status": "done"})
}

// handleSilence turns the tone off, ending an open-ended beep. It is
// not gated on the busy state.
func (s *Server) handleSilence(c *fiber.Ctx) error {
	if err := s.speaker.Silence(); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// fail maps a playback error onto an HTTP response.
func (s *Server) fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// statusFor picks the HTTP status for an error: caller mistakes are
// 400/409, helper process and device failures are 502, the rest 500.
func statusFor(err error) int {
	var (
		syntaxErr *melody.SyntaxError
		spawnErr  *playback.SpawnError
		exitErr   *playback.ExitError
		devErr    *tone.DeviceError
	)
	switch {
	case errors.Is(err, speaker.ErrBusy):
		return fiber.StatusConflict
	case errors.As(err, &syntaxErr) || errors.Is(err, melody.ErrInvalidTempo):
		return fiber.StatusBadRequest
	case errors.As(err, &spawnErr) || errors.As(err, &exitErr) || errors.As(err, &devErr):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
