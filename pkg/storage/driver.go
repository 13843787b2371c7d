// Package storage persists finished chat turns so transcripts outlive the
// process and can be inspected per agent.
package storage

import (
	"context"
)

// Driver defines the interface for persisting and retrieving turns in a
// storage backend.
type Driver interface {
	// SaveTurn stores a turn. Saving a turn whose ID already exists is a no-op,
	// which makes redelivery from the worker pool harmless.
	SaveTurn(ctx context.Context, turn *Turn) error

	// GetTurn retrieves a turn by its ID. A missing turn yields NotFoundError.
	GetTurn(ctx context.Context, id string) (*Turn, error)

	// ListTurns returns turns newest first. An empty agentToken lists every
	// agent; limit <= 0 means no limit.
	ListTurns(ctx context.Context, agentToken string, limit int) ([]*Turn, error)

	// Close closes the store and releases any resources.
	Close() error
}
