package notify

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/papercomputeco/botconsole/pkg/logger"
)

// Bus fans toasts out to every subscriber. Handlers run synchronously on the
// publishing goroutine in no particular order; a slow handler delays the
// publisher.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string]func(Toast)
	logger   *slog.Logger
}

// NewBus creates an empty Bus. A nil logger discards log output.
func NewBus(log *slog.Logger) *Bus {
	if log == nil {
		log = logger.Nop()
	}
	return &Bus{
		handlers: make(map[string]func(Toast)),
		logger:   log.With("component", "notify"),
	}
}

// Subscribe registers handler and returns a function that removes it.
// Calling the returned function more than once is harmless.
func (b *Bus) Subscribe(handler func(Toast)) func() {
	id := uuid.NewString()

	b.mu.Lock()
	b.handlers[id] = handler
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}

// Notify publishes toast to all current subscribers.
func (b *Bus) Notify(toast Toast) {
	b.mu.RLock()
	targets := make([]func(Toast), 0, len(b.handlers))
	for _, h := range b.handlers {
		targets = append(targets, h)
	}
	b.mu.RUnlock()

	b.logger.Debug("publishing toast",
		"type", toast.Type,
		"title", toast.Title,
		"subscribers", len(targets),
	)

	for _, h := range targets {
		h(toast)
	}
}

// Subscribers returns the number of registered handlers.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
