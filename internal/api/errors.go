package api

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned by calls that require a validated API key
// before one has been established.
var ErrNotAuthenticated = errors.New("not authenticated")

// AuthError reports a missing or rejected API key.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return "authentication failed: " + e.Reason
}

// RequestError reports a non-2xx response from the remote API. A version
// conflict (stale If-Unmodified-Since-Version) arrives here like any other
// failure; the client does not special-case it.
type RequestError struct {
	Status     int
	StatusText string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("api request failed: %d %s", e.Status, e.StatusText)
}

// NetworkError reports a transport-level failure (no HTTP response).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }
