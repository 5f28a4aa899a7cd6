// Package web exposes the speaker and battery over HTTP and streams
// playback events to websocket subscribers.
package web

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/bricklab/go-brick/pkg/battery"
	"github.com/bricklab/go-brick/pkg/events"
	"github.com/bricklab/go-brick/pkg/speaker"
)

// Config holds the HTTP listener settings.
type Config struct {
	Host string
	Port int
}

// DefaultConfig listens on all interfaces, the usual setup for a brick
// driven from another machine.
func DefaultConfig() Config {
	return Config{Host: "0.0.0.0", Port: 8090}
}

// Addr returns the listen address in host:port form.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Server is the brickd HTTP and websocket front end.
type Server struct {
	app     *fiber.App
	cfg     Config
	logger  *slog.Logger
	speaker *speaker.Speaker
	battery *battery.Monitor
	hub     *events.Hub
	started time.Time
}

// NewServer wires the API routes. The hub must be running before
// websocket clients connect.
func NewServer(cfg Config, spk *speaker.Speaker, bat *battery.Monitor, hub *events.Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		speaker: spk,
		battery: bat,
		hub:     hub,
		started: time.Now(),
	}

	app := fiber.New(fiber.Config{
		AppName:               "brickd",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/status", s.handleStatus)
	api.Get("/battery", s.handleBattery)
	api.Post("/beep", s.handleBeep)
	api.Post("/notes", s.handleNotes)
	api.Post("/file", s.handleFile)
	api.Post("/say", s.handleSay)
	api.Post("/silence", s.handleSilence)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully. The
// shutdown closes the fasthttp done channel, which cancels the context
// seen by in-flight handlers and with it any running playback.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(s.cfg.Addr())
	}()
	s.logger.Info("http server listening", "addr", s.cfg.Addr())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}

// handleEventsWS attaches a subscriber to the event hub for the life of
// the connection.
func (s *Server) handleEventsWS(c *websocket.Conn) {
	events.NewClient(s.hub, c).Run()
}
