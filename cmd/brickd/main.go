// Brickd is the programmable brick's sound and telemetry daemon. It
// exposes the speaker and battery over HTTP and streams playback events
// to websocket subscribers.
//
// Usage:
//
//	brickd [flags]
//	brickd --config /etc/brickd/brickd.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bricklab/go-brick/internal/config"
	"github.com/bricklab/go-brick/internal/log"
	"github.com/bricklab/go-brick/pkg/battery"
	"github.com/bricklab/go-brick/pkg/events"
	"github.com/bricklab/go-brick/pkg/speaker"
	"github.com/bricklab/go-brick/pkg/web"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configFile := flag.String("config", "", "path to config file (e.g. configs/brickd.yaml)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("brickd %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("brickd starting", "version", version)

	// Root context with signal handling for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	hub := events.NewHub(log.With("component", "events"))

	spk, err := speaker.New(cfg.SpeakerConfig(), log.With("component", "speaker"),
		speaker.WithPublisher(hub))
	if err != nil {
		log.Error("failed to set up speaker", "error", err)
		os.Exit(1)
	}
	defer spk.Close()

	mon, err := battery.NewMonitor(cfg.BatteryConfig(), log.With("component", "battery"))
	if err != nil {
		log.Error("failed to set up battery monitor", "error", err)
		os.Exit(1)
	}

	srv := web.NewServer(cfg.WebConfig(), spk, mon, hub, log.With("component", "web"))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		return srv.Run(ctx)
	})
	g.Go(func() error {
		sampleBattery(ctx, mon, hub)
		return nil
	})

	log.Info("brickd ready", "addr", cfg.WebConfig().Addr(),
		"tone_available", spk.Status().ToneAvailable)

	if err := g.Wait(); err != nil {
		log.Error("brickd exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("brickd stopped")
}

// sampleBattery publishes a battery reading on each tick and raises a
// warning when the pack goes low. Read failures are logged and the loop
// keeps going, so a brick without the battery driver still runs.
func sampleBattery(ctx context.Context, mon *battery.Monitor, hub *events.Hub) {
	logger := log.With("component", "battery")

	ticker := time.NewTicker(mon.SampleInterval())
	defer ticker.Stop()

	wasLow := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r, err := mon.Read()
			if err != nil {
				logger.Warn("battery sample failed", "error", err)
				continue
			}
			hub.Publish(events.TypeBatterySample, r)
			if r.Low && !wasLow {
				logger.Warn("battery low", "voltage_mv", r.VoltageMV, "percent", r.Percent)
			}
			wasLow = r.Low
		}
	}
}
