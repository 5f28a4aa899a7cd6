package melody

import (
	"errors"
	"fmt"
)

// ErrInvalidTempo is returned when a tempo is zero or negative.
var ErrInvalidTempo = errors.New("melody: tempo must be positive")

// SyntaxError reports a malformed note token.
type SyntaxError struct {
	Token  string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("melody: bad note %q: %s", e.Token, e.Reason)
}
