package chatclient

import "fmt"

// The client reports failures through three types so callers can decide
// what to surface without parsing strings: the request timed out, the
// server was never reached, or the server answered with a non-2xx status.
// None of them trigger a retry here; re-exposing the action is the
// caller's call.

type TimeoutError struct {
	Op string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: request timed out", e.Op)
}

type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: request failed: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError carries the message the backend put in its error envelope,
// or a generic fallback when the body had neither "error" nor "message".
type ServerError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.StatusCode, e.Message)
}
