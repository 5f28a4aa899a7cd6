package client

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the daemon.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("client: brickd returned %d: %s", e.Status, e.Message)
}

// IsBusy reports whether err is the daemon rejecting an overlapping
// playback request.
func IsBusy(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict
}
