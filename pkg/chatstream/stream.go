package chatstream

import (
	"io"
	"log/slog"
	"sync"

	"github.com/papercomputeco/botconsole/pkg/sse"
)

// State is the lifecycle position of a stream. Open reports every transition
// through Handlers.OnState; a Stream returned by Start is already framing.
type State int

const (
	StateIdle State = iota
	StateRequesting
	StateFraming
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateFraming:
		return "framing"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is absorbing.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Stream is an open chat stream. Events are pulled with Next; each Next
// performs at most one read of the body, so a slow caller slows the reads.
//
// Next must not be called concurrently. Close may be called from any
// goroutine and interrupts a blocked Next.
type Stream struct {
	body   io.ReadCloser
	reader *sse.Reader
	logger *slog.Logger

	mu      sync.Mutex
	state   State
	err     error
	sawDone bool

	closeOnce sync.Once
}

func newStream(body io.ReadCloser, logger *slog.Logger) *Stream {
	return &Stream{
		body:   body,
		reader: sse.NewReader(body),
		logger: logger,
		state:  StateFraming,
	}
}

// Next returns the next event. It returns nil, nil when the body ended
// normally and nil, *TransportError when reading it failed. Once either
// happened the stream is terminal and Next keeps returning the same result.
func (s *Stream) Next() (*Event, error) {
	for {
		if state, err := s.terminal(); state.Terminal() {
			return nil, err
		}

		frame, err := s.reader.Next()
		if err != nil {
			s.logger.Error("stream reading error", "error", err)
			s.finish(StateFailed, &TransportError{Err: err})
			return nil, s.err
		}

		if frame == nil {
			s.logger.Debug("stream reading finished")
			s.finish(StateCompleted, nil)
			return nil, nil
		}

		event := interpret(frame, s.logger)
		if event == nil {
			continue
		}

		if event.Kind == EventDone {
			s.mu.Lock()
			s.sawDone = true
			s.mu.Unlock()
		}

		return event, nil
	}
}

// State returns the stream's lifecycle state.
func (s *Stream) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SawDone reports whether the server sent its "event: done" signal. It is
// informational; a stream can complete without it.
func (s *Stream) SawDone() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sawDone
}

// Close releases the response body. Closing a stream that is still framing
// makes it fail with a TransportError on the next read.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.body.Close()
	})
	return err
}

func (s *Stream) terminal() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.err
}

func (s *Stream) finish(state State, err error) {
	s.mu.Lock()
	if !s.state.Terminal() {
		s.state = state
		s.err = err
	}
	s.mu.Unlock()

	_ = s.Close()
}
