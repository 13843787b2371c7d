// Package inmemory provides a storage.Driver that keeps turns in process
// memory. It is the default when no database is configured.
package inmemory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/papercomputeco/botconsole/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	// mu guards turns
	mu sync.RWMutex

	// turns maps turn ID to a private copy of the turn
	turns map[string]storage.Turn
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		turns: make(map[string]storage.Turn),
	}
}

// SaveTurn stores a copy of turn. Existing IDs are left untouched.
func (d *Driver) SaveTurn(_ context.Context, turn *storage.Turn) error {
	if err := turn.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.turns[turn.ID]; ok {
		return nil
	}
	d.turns[turn.ID] = *turn
	return nil
}

// GetTurn retrieves a turn by its ID.
func (d *Driver) GetTurn(_ context.Context, id string) (*storage.Turn, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	turn, ok := d.turns[id]
	if !ok {
		return nil, storage.NotFoundError{ID: id}
	}
	return &turn, nil
}

// ListTurns returns turns newest first.
func (d *Driver) ListTurns(_ context.Context, agentToken string, limit int) ([]*storage.Turn, error) {
	d.mu.RLock()
	result := make([]*storage.Turn, 0, len(d.turns))
	for _, turn := range d.turns {
		if agentToken != "" && turn.AgentToken != agentToken {
			continue
		}
		result = append(result, &turn)
	}
	d.mu.RUnlock()

	slices.SortFunc(result, func(a, b *storage.Turn) int {
		if c := b.FinishedAt.Compare(a.FinishedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}
