package notify

import (
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Store keeps the toasts currently on display, oldest first. It implements
// Notifier so it can be subscribed to a Bus directly.
type Store struct {
	mu     sync.Mutex
	toasts []Toast
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Add stores toast under a fresh id and returns the id. Any id already set on
// toast is replaced.
func (s *Store) Add(toast Toast) string {
	toast.ID = uuid.NewString()

	s.mu.Lock()
	s.toasts = append(s.toasts, toast)
	s.mu.Unlock()

	return toast.ID
}

// Notify adds toast.
func (s *Store) Notify(toast Toast) {
	s.Add(toast)
}

// Remove deletes the toast with id. Unknown ids are ignored.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.toasts = slices.DeleteFunc(s.toasts, func(t Toast) bool {
		return t.ID == id
	})
}

// Find returns the toast with id.
func (s *Store) Find(id string) (Toast, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.toasts, func(t Toast) bool {
		return t.ID == id
	})
	if i < 0 {
		return Toast{}, false
	}
	return s.toasts[i], true
}

// List returns a copy of the stored toasts.
func (s *Store) List() []Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.toasts)
}

// Drain returns the stored toasts and removes the ones that are not
// persistent.
func (s *Store) Drain() []Toast {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := slices.Clone(s.toasts)
	s.toasts = slices.DeleteFunc(s.toasts, func(t Toast) bool {
		return !t.Persistent
	})
	return out
}

// ClearAll removes every toast.
func (s *Store) ClearAll() {
	s.mu.Lock()
	s.toasts = nil
	s.mu.Unlock()
}
