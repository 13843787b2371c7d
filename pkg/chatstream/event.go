package chatstream

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/botconsole/pkg/sse"
)

const (
	eventError         = "error"
	eventMissingAPIKey = "missing_api_key"

	fallbackErrorMessage         = "Stream error reported by server."
	unparseableErrorMessage      = "Unknown stream error reported by server."
	fallbackMissingKeyMessage    = "API key is missing."
	unparseableMissingKeyMessage = "Missing API key (unparseable server message)."
)

// EventKind classifies what a stream step produced.
type EventKind int

const (
	// EventDelta carries an incremental fragment of the answer in Text.
	EventDelta EventKind = iota

	// EventDone is the server's logical completion signal. It does not end
	// the stream; the stream ends when the body does.
	EventDone

	// EventServerError carries an "event: error" report in Err.
	EventServerError

	// EventMissingAPIKey carries an "event: missing_api_key" report in Err.
	EventMissingAPIKey
)

func (k EventKind) String() string {
	switch k {
	case EventDelta:
		return "delta"
	case EventDone:
		return "done"
	case EventServerError:
		return "server_error"
	case EventMissingAPIKey:
		return "missing_api_key"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is one step of a chat stream.
type Event struct {
	Kind EventKind

	// Text is set for EventDelta. It may be empty.
	Text string

	// Err is set for EventServerError and EventMissingAPIKey.
	Err *ServerReportedError
}

// payload is the JSON carried by data lines.
type payload struct {
	Text    *string `json:"text"`
	Message *string `json:"message"`
}

// interpret maps a frame to an event. It returns nil for frames that produce
// nothing: undecodable data lines and data lines without a text field. A
// null text counts as absent.
func interpret(frame *sse.Frame, logger *slog.Logger) *Event {
	switch frame.Kind {
	case sse.FrameData:
		var p payload
		if err := json.Unmarshal([]byte(frame.Data), &p); err != nil {
			decodeErr := &DecodeError{Payload: frame.Data, Err: err}
			logger.Error("failed to parse stream data", "error", decodeErr)
			return nil
		}
		if p.Text == nil {
			return nil
		}
		return &Event{Kind: EventDelta, Text: *p.Text}

	case sse.FrameDone:
		return &Event{Kind: EventDone}

	case sse.FrameError:
		msg := serverMessage(frame, fallbackErrorMessage, unparseableErrorMessage)
		logger.Error("received stream error event", "message", msg)
		return &Event{
			Kind: EventServerError,
			Err:  &ServerReportedError{Event: eventError, Message: msg},
		}

	case sse.FrameMissingAPIKey:
		msg := serverMessage(frame, fallbackMissingKeyMessage, unparseableMissingKeyMessage)
		logger.Warn("received missing api key event", "message", msg)
		return &Event{
			Kind: EventMissingAPIKey,
			Err:  &ServerReportedError{Event: eventMissingAPIKey, Message: msg},
		}
	}

	return nil
}

// serverMessage extracts the message of an event's data line. A frame without
// data, or with data that is not a JSON object, yields unparseable; a JSON
// object without a message yields fallback.
func serverMessage(frame *sse.Frame, fallback, unparseable string) string {
	if !frame.HasData {
		if frame.Kind == sse.FrameMissingAPIKey {
			return fallback
		}
		return unparseable
	}

	var p payload
	if err := json.Unmarshal([]byte(frame.Data), &p); err != nil {
		return unparseable
	}
	if p.Message == nil || *p.Message == "" {
		return fallback
	}
	return *p.Message
}
