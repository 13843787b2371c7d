package chatstream

import (
	"context"
	"errors"
	"sync"
)

// Outcome is the terminal result reported to Handlers.OnEnd.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeError     Outcome = "error"
)

// Handlers receive the events of a stream opened with Open. Any of them may
// be nil.
type Handlers struct {
	// OnDelta receives each text fragment in arrival order.
	OnDelta func(text string)

	// OnError receives fatal failures as well as server reported errors. A
	// server reported error does not end the stream by itself.
	OnError func(err error)

	// OnState observes lifecycle transitions, starting from StateIdle. The
	// terminal state is reported right before OnEnd.
	OnState func(from, to State)

	// OnEnd is called exactly once, after every other callback.
	OnEnd func(outcome Outcome)
}

// Open streams the answer to req, dispatching to h until the stream reaches
// its terminal outcome. It blocks until then; callers that want to fire and
// forget run it on its own goroutine. Cancelling ctx aborts the stream with
// an error outcome.
//
// Callbacks run on the calling goroutine, strictly in order.
func (c *Client) Open(ctx context.Context, req Request, h Handlers) {
	state := StateIdle
	move := func(to State) {
		if h.OnState != nil {
			h.OnState(state, to)
		}
		state = to
	}

	var once sync.Once
	end := func(outcome Outcome) {
		once.Do(func() {
			if outcome == OutcomeCompleted {
				move(StateCompleted)
			} else {
				move(StateFailed)
			}
			if h.OnEnd != nil {
				h.OnEnd(outcome)
			}
		})
	}
	fail := func(err error) {
		if h.OnError != nil {
			h.OnError(err)
		}
		end(OutcomeError)
	}

	move(StateRequesting)
	stream, err := c.Start(ctx, req)
	if err != nil {
		fail(err)
		return
	}
	defer stream.Close()
	move(StateFraming)

	for {
		event, err := stream.Next()
		if err != nil {
			fail(err)
			return
		}
		if event == nil {
			end(OutcomeCompleted)
			return
		}

		switch event.Kind {
		case EventDelta:
			if h.OnDelta != nil {
				h.OnDelta(event.Text)
			}
		case EventServerError, EventMissingAPIKey:
			if h.OnError != nil {
				h.OnError(event.Err)
			}
		case EventDone:
		}
	}
}

// IsMissingAPIKey reports whether err is a missing_api_key report.
func IsMissingAPIKey(err error) bool {
	var reported *ServerReportedError
	return errors.As(err, &reported) && reported.MissingAPIKey()
}
