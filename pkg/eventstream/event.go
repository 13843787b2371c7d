// Package eventstream publishes finished chat turns to an event stream so
// other systems can follow conversations as they happen.
package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/botconsole/pkg/storage"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnCompleted is emitted after a chat turn reached its
	// terminal outcome.
	EventTypeTurnCompleted = "botconsole.turn.completed"
)

// TurnCompletedEvent is a transport-neutral event payload for a finished turn.
type TurnCompletedEvent struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	EventID       string       `json:"event_id"`
	EmittedAt     time.Time    `json:"emitted_at"`
	Source        EventSource  `json:"source"`
	DurationMs    int64        `json:"duration_ms"`
	Turn          storage.Turn `json:"turn"`
}

// EventSource identifies where the turn originated.
type EventSource struct {
	Platform string `json:"platform"`
	Host     string `json:"host,omitempty"`
}

// NewTurnCompletedEvent wraps turn in a v1 event with a fresh id.
func NewTurnCompletedEvent(turn *storage.Turn, source EventSource) *TurnCompletedEvent {
	return &TurnCompletedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeTurnCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		DurationMs:    turn.FinishedAt.Sub(turn.StartedAt).Milliseconds(),
		Turn:          *turn,
	}
}
