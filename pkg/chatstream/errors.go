package chatstream

import (
	"errors"
	"fmt"
)

var (
	// ErrBodyMissing is returned when a successful response has no body at all.
	// An empty body is not missing: it completes without events.
	ErrBodyMissing = errors.New("response body is missing")

	// ErrEmptyQuestion is returned when the question is blank.
	ErrEmptyQuestion = errors.New("question is required")

	// ErrMissingAgent is returned when no agent token was supplied.
	ErrMissingAgent = errors.New("agent token is required")
)

// HTTPError is a non-2xx response to the stream request. Message is taken
// from the JSON error body when possible, otherwise from the status line.
type HTTPError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// DecodeError is a data line whose payload is not valid JSON. It is logged
// and the frame is skipped; the stream continues.
type DecodeError struct {
	Payload string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding stream payload %q: %v", e.Payload, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ServerReportedError is an explicit error or missing_api_key event sent by
// the server. Its Error is the human readable message.
type ServerReportedError struct {
	// Event is the event name, "error" or "missing_api_key".
	Event   string
	Message string
}

func (e *ServerReportedError) Error() string {
	return e.Message
}

// MissingAPIKey reports whether the server rejected the stream because the
// agent has no provider credential configured.
func (e *ServerReportedError) MissingAPIKey() bool {
	return e.Event == eventMissingAPIKey
}

// TransportError is a network level failure while requesting or reading the
// stream. It is fatal to the stream. Cancelling the request context also
// surfaces as a TransportError wrapping the context error.
type TransportError struct {
	// Connecting is true when the failure happened before a response
	// arrived, false when the body read failed mid-stream.
	Connecting bool
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil && e.Err.Error() != "" {
		return e.Err.Error()
	}
	if e.Connecting {
		return "Failed to connect to stream"
	}
	return "Stream connection failed"
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
