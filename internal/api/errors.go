package api

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrSessionExpired is returned when a token refresh fails. The session has
// already been cleared by the time a caller sees it.
var ErrSessionExpired = errors.New("session expired")

// ErrNoSession is returned when an authenticated call is attempted without a
// token pair.
var ErrNoSession = errors.New("no active session")

// NetworkError wraps a transport-level failure. Local state is unchanged when
// one of these surfaces.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// APIError is a backend-reported failure: a non-2xx status or an envelope
// with success=false.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: %s (status %d)", e.Message, e.Status)
}
