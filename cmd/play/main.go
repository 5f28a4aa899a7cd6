// Play - local sound demo for the brick speaker
//
// Drives the speaker directly without the daemon: beeps, a demo melody,
// sound files and speech.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bricklab/go-brick/internal/log"
	"github.com/bricklab/go-brick/pkg/battery"
	"github.com/bricklab/go-brick/pkg/speaker"
	"github.com/bricklab/go-brick/pkg/tone"
)

// demoMelody is Twinkle Twinkle Little Star in note syntax.
var demoMelody = []string{
	"C4/4", "C4/4", "G4/4", "G4/4", "A4/4", "A4/4", "G4/2",
	"F4/4", "F4/4", "E4/4", "E4/4", "D4/4", "D4/4", "C4/2",
}

func main() {
	freq := flag.Int("freq", speaker.DefaultFrequency, "beep frequency in Hz")
	ms := flag.Int("ms", 100, "beep duration in milliseconds")
	notes := flag.String("notes", "", "comma-separated note tokens, e.g. C4/4,E4/4,G4/2")
	tempo := flag.Int("tempo", speaker.DefaultTempo, "melody tempo in quarter notes per minute")
	file := flag.String("file", "", "sound file to play")
	say := flag.String("say", "", "text to speak")
	backend := flag.String("backend", "auto", "tone backend: auto, evdev or mock")
	flag.Parse()

	log.Init("warn", "text")

	fmt.Println("🔊 Brick Sound Demo")
	fmt.Println("===================")

	cfg := speaker.DefaultConfig()
	cfg.Tone.Backend = tone.Backend(*backend)
	spk, err := speaker.New(cfg, log.L())
	if err != nil {
		fmt.Printf("❌ Speaker setup failed: %v\n", err)
		os.Exit(1)
	}
	defer spk.Close()

	if !spk.Status().ToneAvailable {
		fmt.Println("⚠️  No beep device found, tones will be silent")
	}

	// Handle Ctrl+C gracefully; playback stops and the tone goes quiet.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch {
	case *say != "":
		fmt.Printf("🗣  Saying: %s\n", *say)
		err = spk.Say(ctx, *say)
	case *file != "":
		fmt.Printf("🎵 Playing file: %s\n", *file)
		err = spk.PlayFile(ctx, *file)
	case *notes != "":
		tokens := strings.Split(*notes, ",")
		fmt.Printf("🎵 Playing %d notes at tempo %d\n", len(tokens), *tempo)
		err = spk.PlayNotes(ctx, tokens, *tempo)
	default:
		err = demoRoutine(ctx, spk, *freq, *ms, *tempo)
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println("\n👋 Stopped")
			return
		}
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✅ Done")
}

// demoRoutine runs the full show: battery check, ascending beeps, then
// the demo melody.
func demoRoutine(ctx context.Context, spk *speaker.Speaker, freq, ms, tempo int) error {
	printBattery()

	fmt.Println("\n🎺 Beeps...")
	for i := 0; i < 3; i++ {
		f := int32(freq * (i + 2) / 2)
		if err := spk.Beep(ctx, f, time.Duration(ms)*time.Millisecond); err != nil {
			return err
		}
		time.Sleep(50 * time.Millisecond)
	}

	fmt.Println("🎵 Twinkle Twinkle Little Star...")
	return spk.PlayNotes(ctx, demoMelody, tempo)
}

// printBattery shows the pack state when the battery driver is present.
func printBattery() {
	mon, err := battery.NewMonitor(battery.DefaultConfig(), log.L())
	if err != nil {
		return
	}
	r, err := mon.Read()
	if err != nil {
		fmt.Println("🔋 Battery: unavailable")
		return
	}
	marker := ""
	if r.Low {
		marker = " ⚠️ LOW"
	}
	fmt.Printf("🔋 Battery: %d mV (%d%%)%s\n", r.VoltageMV, r.Percent, marker)
}
