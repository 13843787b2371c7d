package eventstream_test

import (
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/botconsole/pkg/eventstream"
	"github.com/papercomputeco/botconsole/pkg/storage"
)

var _ = Describe("Event", func() {
	var turn *storage.Turn

	BeforeEach(func() {
		now := time.Unix(1735689600, 0).UTC()
		turn = &storage.Turn{
			ID:         "turn-1",
			AgentToken: "01HX",
			Question:   "hello",
			Answer:     "hi",
			Outcome:    "completed",
			StartedAt:  now.Add(-2 * time.Second),
			FinishedAt: now,
		}
	})

	It("builds a v1 event around a turn", func() {
		event := eventstream.NewTurnCompletedEvent(turn, eventstream.EventSource{Platform: "http://chatbot_platform.test"})

		Expect(event.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
		Expect(event.EventType).To(Equal(eventstream.EventTypeTurnCompleted))
		Expect(event.EventID).NotTo(BeEmpty())
		Expect(event.DurationMs).To(Equal(int64(2000)))
		Expect(event.Turn.ID).To(Equal("turn-1"))
	})

	It("marshals TurnCompletedEvent with expected top-level keys", func() {
		payload, err := json.Marshal(eventstream.NewTurnCompletedEvent(turn, eventstream.EventSource{Platform: "p"}))
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("source"))
		Expect(got).To(HaveKey("duration_ms"))
		Expect(got).To(HaveKeyWithValue("turn", HaveKeyWithValue("agent_token", "01HX")))
	})

	It("defines stable event constants", func() {
		Expect(eventstream.SchemaVersionV1).To(BeNumerically(">", 0))
		Expect(eventstream.EventTypeTurnCompleted).To(Equal("botconsole.turn.completed"))
	})

	It("provides ErrNilTurnEvent for nil payload validation", func() {
		Expect(eventstream.ErrNilTurnEvent).To(MatchError("nil turn event"))
	})

	It("unwraps a PublishError to its cause", func() {
		cause := errors.New("leader not available")
		err := error(&eventstream.PublishError{EventID: "e1", TurnID: "t1", Err: cause})
		Expect(err).To(MatchError(cause))
		Expect(err.Error()).To(Equal("publishing turn event e1 (turn t1): leader not available"))
	})
})
