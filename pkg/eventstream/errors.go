package eventstream

import (
	"errors"
	"fmt"
)

var (
	// ErrNilTurnEvent is returned by publishers handed a nil event.
	ErrNilTurnEvent = errors.New("nil turn event")

	// ErrNoBrokers and ErrNoTopic reject an incomplete broker publisher
	// configuration.
	ErrNoBrokers = errors.New("event stream brokers are required")
	ErrNoTopic   = errors.New("event stream topic is required")
)

// PublishError is a failed delivery of one turn event.
type PublishError struct {
	EventID string
	TurnID  string
	Err     error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publishing turn event %s (turn %s): %v", e.EventID, e.TurnID, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}
