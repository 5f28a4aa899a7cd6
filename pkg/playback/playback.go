// Package playback runs external helper processes for sampled audio.
//
// Two shapes cover everything the speaker needs: a single process
// playing a file, and a synthesis process piped into a playback
// process for speech. Process exits are collected asynchronously;
// cancellation kills whatever is still running and then drains every
// pending exit so no process or pipe is left behind.
package playback

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Command names one helper process invocation.
type Command struct {
	Path string
	Args []string
}

// Name returns the bare executable name, used in errors and logs.
func (c Command) Name() string {
	return filepath.Base(c.Path)
}

// Runner spawns and supervises helper processes.
type Runner struct {
	logger *slog.Logger
}

// NewRunner creates a runner.
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger}
}

// proc is one spawned process with its pending exit notification.
type proc struct {
	cmd    *exec.Cmd
	name   string
	stderr *boundedBuffer
	done   chan error // receives the Wait result exactly once
}

// spawn starts a command with stdout discarded (or redirected to the
// given file) and stderr captured for diagnostics.
func spawn(c Command, stdin, stdout *os.File) (*proc, error) {
	cmd := exec.Command(c.Path, c.Args...)
	p := &proc{
		cmd:    cmd,
		name:   c.Name(),
		stderr: newBoundedBuffer(maxStderrCapture),
		done:   make(chan error, 1),
	}
	cmd.Stderr = p.stderr
	if stdin != nil {
		cmd.Stdin = stdin
	}
	if stdout != nil {
		cmd.Stdout = stdout
	}

	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Cmd: p.name, Err: err}
	}

	go func() {
		p.done <- cmd.Wait()
	}()
	return p, nil
}

func (p *proc) kill() {
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
}

// exitError converts a Wait result into an ExitError carrying the
// captured stderr, or nil on success.
func (p *proc) exitError(werr error) error {
	if werr == nil {
		return nil
	}
	return &ExitError{
		Cmd:    p.name,
		Stderr: strings.TrimSpace(p.stderr.String()),
		Err:    werr,
	}
}

// Run executes a single process and waits for it to finish. On
// cancellation the process is killed and reaped before the context
// error is returned; a kill-induced exit failure is not reported.
func (r *Runner) Run(ctx context.Context, c Command) error {
	p, err := spawn(c, nil, nil)
	if err != nil {
		return err
	}
	r.logger.Debug("playback process started", "cmd", p.name, "pid", p.cmd.Process.Pid)

	select {
	case werr := <-p.done:
		r.logger.Debug("playback process finished", "cmd", p.name, "ok", werr == nil)
		return p.exitError(werr)
	case <-ctx.Done():
		r.logger.Debug("playback interrupted", "cmd", p.name)
		p.kill()
		<-p.done
		return ctx.Err()
	}
}

// RunPiped executes producer and consumer with the producer's stdout
// spliced into the consumer's stdin. It waits for both exits and the
// end of the splice, in whatever order they arrive. On cancellation
// both processes are killed and all three completions are still
// drained before the context error is returned.
//
// A consumer failure is reported in preference to a producer failure.
// A splice error alone is not a failure; the consumer simply played
// whatever bytes arrived.
func (r *Runner) RunPiped(ctx context.Context, producer, consumer Command) error {
	// Both pipes are created by hand so their ends stay under our
	// control during teardown, whichever side dies first.
	prodR, prodW, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("playback: create pipe: %w", err)
	}
	consR, consW, err := os.Pipe()
	if err != nil {
		closeAll(prodR, prodW)
		return fmt.Errorf("playback: create pipe: %w", err)
	}

	prod, err := spawn(producer, nil, prodW)
	if err != nil {
		closeAll(prodR, prodW, consR, consW)
		return err
	}
	// The child holds its own copy of the write end.
	prodW.Close()

	cons, err := spawn(consumer, consR, nil)
	if err != nil {
		// Don't leak the producer: kill it and collect its exit.
		prod.kill()
		<-prod.done
		closeAll(prodR, consR, consW)
		return err
	}
	consR.Close()

	r.logger.Debug("playback pipeline started",
		"producer", prod.name, "producer_pid", prod.cmd.Process.Pid,
		"consumer", cons.name, "consumer_pid", cons.cmd.Process.Pid,
	)

	// Splice producer output into the consumer, closing both ends when
	// the stream finishes so the consumer sees EOF.
	spliceDone := make(chan error, 1)
	go func() {
		_, cerr := io.Copy(consW, prodR)
		consW.Close()
		prodR.Close()
		spliceDone <- cerr
	}()

	var (
		prodWait, consWait, spliceErr error

		pending   = 3
		cancelled = false
	)
	for pending > 0 {
		if cancelled {
			// Once interrupted, just drain what is still outstanding.
			select {
			case prodWait = <-prod.done:
				pending--
			case consWait = <-cons.done:
				pending--
			case spliceErr = <-spliceDone:
				pending--
			}
			continue
		}
		select {
		case prodWait = <-prod.done:
			pending--
		case consWait = <-cons.done:
			pending--
		case spliceErr = <-spliceDone:
			pending--
		case <-ctx.Done():
			r.logger.Debug("playback pipeline interrupted",
				"producer", prod.name, "consumer", cons.name)
			prod.kill()
			cons.kill()
			cancelled = true
		}
	}

	if cancelled {
		return ctx.Err()
	}

	if spliceErr != nil {
		r.logger.Debug("pipeline splice ended early", "error", spliceErr)
	}

	// The playback process's verdict outranks the synthesizer's.
	if err := cons.exitError(consWait); err != nil {
		return err
	}
	return prod.exitError(prodWait)
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
