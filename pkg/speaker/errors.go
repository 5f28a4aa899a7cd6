package speaker

import "errors"

// ErrBusy is returned when a playback request arrives while another
// one is still in flight. The speaker plays one thing at a time;
// callers decide whether to retry, queue or drop.
var ErrBusy = errors.New("speaker: playback already in progress")
