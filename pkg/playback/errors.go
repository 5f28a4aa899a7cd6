package playback

import "fmt"

// SpawnError reports a process that could not be started at all.
type SpawnError struct {
	Cmd string
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("playback: failed to spawn %s: %v", e.Cmd, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// ExitError reports a process that started but finished unsuccessfully.
// When the process wrote diagnostics to stderr, those take the place of
// the generic exit status in the message.
type ExitError struct {
	Cmd    string
	Stderr string
	Err    error
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("playback: %s: %s", e.Cmd, e.Stderr)
	}
	return fmt.Sprintf("playback: %s: %v", e.Cmd, e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
