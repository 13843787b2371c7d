// Package nop provides an eventstream publisher that publishes nowhere. It is
// used when no brokers are configured, and in tests to count what would have
// been published.
package nop

import (
	"context"
	"sync/atomic"

	"github.com/papercomputeco/botconsole/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher.
type Publisher struct {
	published atomic.Int64
}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishTurn validates input and counts it.
func (p *Publisher) PublishTurn(_ context.Context, event *eventstream.TurnCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilTurnEvent
	}

	p.published.Add(1)
	return nil
}

// Published returns how many events were accepted.
func (p *Publisher) Published() int64 {
	return p.published.Load()
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
