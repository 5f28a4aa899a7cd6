// Events - live view of the brickd event stream
//
// Subscribes to a running daemon's websocket and prints playback and
// battery events as they happen.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bricklab/go-brick/internal/config"
	"github.com/bricklab/go-brick/pkg/battery"
	"github.com/bricklab/go-brick/pkg/events"
	"github.com/bricklab/go-brick/pkg/speaker"
)

func main() {
	addr := flag.String("brick", config.BrickAddr("localhost:8090"), "brickd address (host:port)")
	flag.Parse()

	fmt.Println("📡 Brickd Event Stream")
	fmt.Println("======================")

	url := fmt.Sprintf("ws://%s/ws/events", *addr)
	fmt.Printf("Connecting to %s... ", url)
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	defer ws.Close()
	fmt.Println("✅")
	fmt.Println("Waiting for events (Ctrl+C to stop)")

	// Ctrl+C closes the connection, which unblocks the read loop.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n👋 Disconnecting")
		ws.Close()
		os.Exit(0)
	}()

	for {
		_, frame, err := ws.ReadMessage()
		if err != nil {
			fmt.Printf("Connection closed: %v\n", err)
			return
		}
		printEvent(frame)
	}
}

func printEvent(frame []byte) {
	evt, err := events.ParseEvent(frame)
	if err != nil {
		fmt.Printf("?? %s\n", frame)
		return
	}
	ts := time.UnixMilli(evt.Timestamp).Format("15:04:05")

	switch evt.Type {
	case events.TypePlaybackStarted:
		var p speaker.PlaybackEvent
		if evt.ParseData(&p) == nil {
			fmt.Printf("[%s] 🎵 %s started: %s\n", ts, p.Kind, p.Detail)
		}
	case events.TypePlaybackFinished:
		var p speaker.PlaybackEvent
		if evt.ParseData(&p) == nil {
			fmt.Printf("[%s] ✅ %s finished in %dms\n", ts, p.Kind, p.DurationMS)
		}
	case events.TypePlaybackFailed:
		var p speaker.PlaybackEvent
		if evt.ParseData(&p) == nil {
			fmt.Printf("[%s] ❌ %s failed: %s\n", ts, p.Kind, p.Error)
		}
	case events.TypeBatterySample:
		var r battery.Reading
		if evt.ParseData(&r) == nil {
			low := ""
			if r.Low {
				low = " ⚠️ LOW"
			}
			fmt.Printf("[%s] 🔋 %dmV (%d%%)%s\n", ts, r.VoltageMV, r.Percent, low)
		}
	default:
		fmt.Printf("[%s] %s %s\n", ts, evt.Type, evt.Data)
	}
}
