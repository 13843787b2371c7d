package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/botconsole/pkg/eventstream"
	"github.com/papercomputeco/botconsole/pkg/logger"
	"github.com/papercomputeco/botconsole/pkg/storage"
)

type fakeWriter struct {
	messages []kafkago.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

var _ = Describe("Publisher", func() {
	var (
		writer    *fakeWriter
		publisher *Publisher
		event     *eventstream.TurnCompletedEvent
	)

	BeforeEach(func() {
		writer = &fakeWriter{}
		publisher = newPublisher(writer, "botconsole.turns", logger.Nop())

		now := time.Now()
		event = eventstream.NewTurnCompletedEvent(&storage.Turn{
			ID:         "turn-1",
			AgentToken: "01HX",
			Outcome:    "completed",
			StartedAt:  now.Add(-time.Second),
			FinishedAt: now,
		}, eventstream.EventSource{Platform: "http://chatbot_platform.test"})
	})

	It("requires brokers and a topic", func() {
		_, err := NewPublisher(Config{Topic: "t"}, nil)
		Expect(err).To(MatchError(eventstream.ErrNoBrokers))

		_, err = NewPublisher(Config{Brokers: []string{"localhost:9092"}}, nil)
		Expect(err).To(MatchError(eventstream.ErrNoTopic))

		p, err := NewPublisher(Config{Brokers: []string{"localhost:9092"}, Topic: "t"}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Close()).To(Succeed())
	})

	It("returns ErrNilTurnEvent for nil events", func() {
		Expect(publisher.PublishTurn(context.Background(), nil)).To(MatchError(eventstream.ErrNilTurnEvent))
		Expect(writer.messages).To(BeEmpty())
	})

	It("writes the event as JSON keyed by agent", func() {
		Expect(publisher.PublishTurn(context.Background(), event)).To(Succeed())

		Expect(writer.messages).To(HaveLen(1))
		msg := writer.messages[0]
		Expect(string(msg.Key)).To(Equal("01HX"))
		Expect(msg.Headers).To(ContainElement(kafkago.Header{Key: "event_type", Value: []byte(eventstream.EventTypeTurnCompleted)}))

		var decoded eventstream.TurnCompletedEvent
		Expect(json.Unmarshal(msg.Value, &decoded)).To(Succeed())
		Expect(decoded.EventID).To(Equal(event.EventID))
		Expect(decoded.Turn.ID).To(Equal("turn-1"))
	})

	It("wraps write failures with the event and turn", func() {
		down := errors.New("broker down")
		writer.err = down
		err := publisher.PublishTurn(context.Background(), event)
		Expect(err).To(MatchError(down))

		var publishErr *eventstream.PublishError
		Expect(errors.As(err, &publishErr)).To(BeTrue())
		Expect(publishErr.EventID).To(Equal(event.EventID))
		Expect(publishErr.TurnID).To(Equal("turn-1"))
		Expect(err.Error()).To(ContainSubstring("broker down"))
	})

	It("closes the writer", func() {
		Expect(publisher.Close()).To(Succeed())
		Expect(writer.closed).To(BeTrue())
	})

	It("parses comma separated brokers", func() {
		Expect(ParseBrokers(" a:9092, ,b:9092 ")).To(Equal([]string{"a:9092", "b:9092"}))
		Expect(ParseBrokers("")).To(BeEmpty())
	})
})
