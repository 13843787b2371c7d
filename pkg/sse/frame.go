// Package sse frames the chat stream wire format: newline delimited lines
// where "data:" lines carry JSON payloads and "event:" lines announce done,
// error and missing_api_key conditions.
//
// It is deliberately narrower than the full SSE specification. Lines are
// framed one at a time as soon as their newline arrives rather than being
// grouped into blank-line delimited events, which is what lets deltas reach
// the caller without waiting for an event terminator.
package sse

import "fmt"

// FrameKind classifies a framed line.
type FrameKind int

const (
	// FrameData is a "data:" line. Data holds the trimmed payload.
	FrameData FrameKind = iota

	// FrameDone is an "event: done" line.
	FrameDone

	// FrameError is an "event: error" line, paired with its data line if one followed.
	FrameError

	// FrameMissingAPIKey is an "event: missing_api_key" line, paired with its
	// data line if one followed.
	FrameMissingAPIKey
)

func (k FrameKind) String() string {
	switch k {
	case FrameData:
		return "data"
	case FrameDone:
		return "done"
	case FrameError:
		return "error"
	case FrameMissingAPIKey:
		return "missing_api_key"
	default:
		return fmt.Sprintf("FrameKind(%d)", int(k))
	}
}

// Frame is one classified logical unit extracted from the stream.
type Frame struct {
	Kind FrameKind

	// Data is the trimmed text after the "data:" prefix. For event frames it
	// is the payload of the data line that followed the event line.
	Data string

	// HasData reports whether Data was present. Event frames that were never
	// followed by a data line have HasData == false.
	HasData bool
}
