package storage

import (
	"errors"
	"time"
)

// ErrNilTurn is returned when a nil turn is saved.
var ErrNilTurn = errors.New("cannot store nil turn")

// Turn is one question and the answer streamed for it.
type Turn struct {
	ID             string    `json:"id"`
	AgentToken     string    `json:"agent_token"`
	ConversationID int64     `json:"conversation_id,omitempty"`
	Question       string    `json:"question"`
	Answer         string    `json:"answer"`
	Outcome        string    `json:"outcome"`
	Error          string    `json:"error,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}

// Validate checks the fields every driver relies on.
func (t *Turn) Validate() error {
	if t == nil {
		return ErrNilTurn
	}
	if t.ID == "" {
		return errors.New("turn id is required")
	}
	if t.AgentToken == "" {
		return errors.New("turn agent token is required")
	}
	return nil
}
