package conversation_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/botconsole/pkg/chatstream"
	"github.com/papercomputeco/botconsole/pkg/conversation"
	"github.com/papercomputeco/botconsole/pkg/logger"
	"github.com/papercomputeco/botconsole/pkg/notify"
	"github.com/papercomputeco/botconsole/pkg/platform"
)

var _ = Describe("Store", func() {
	var (
		streamer *scriptedStreamer
		plat     *fakePlatform
		toasts   *notify.Store
		store    *conversation.Store
	)

	BeforeEach(func() {
		streamer = &scriptedStreamer{script: deltas(chatstream.OutcomeCompleted)}
		plat = &fakePlatform{}
		toasts = notify.NewStore()
		store = conversation.New(conversation.Config{
			Streamer: streamer,
			Platform: plat,
			Notifier: toasts,
			Logger:   logger.Nop(),
		})
	})

	Describe("SendMessage", func() {
		It("refuses to send without an agent", func() {
			err := store.SendMessage(context.Background(), "hi")
			Expect(err).To(MatchError(conversation.ErrMissingAgent))
			Expect(store.LastError()).To(Equal("Agent ULID is missing."))
			Expect(store.Messages()).To(BeEmpty())
			Expect(streamer.requests).To(BeEmpty())
		})

		It("streams the answer into a bot placeholder", func() {
			streamer.script = deltas(chatstream.OutcomeCompleted, "Hel", "lo")
			store.SetAgent("01HX")

			Expect(store.SendMessage(context.Background(), "hi")).To(Succeed())

			Expect(streamer.requests).To(Equal([]chatstream.Request{{AgentToken: "01HX", Question: "hi"}}))

			messages := store.Messages()
			Expect(messages).To(HaveLen(2))
			Expect(messages[0].UserMessage).To(Equal("hi"))
			Expect(messages[0].Bot).To(BeFalse())
			Expect(messages[1].Bot).To(BeTrue())
			Expect(messages[1].BotResponse).To(Equal("Hello"))

			Expect(store.Sending()).To(BeFalse())
			Expect(store.Streaming()).To(BeFalse())
			Expect(store.LastError()).To(BeEmpty())
			Expect(toasts.List()).To(BeEmpty())
		})

		It("uses a replaced streamer for the next exchange", func() {
			store.SetAgent("01HX")
			next := &scriptedStreamer{script: deltas(chatstream.OutcomeCompleted, "rotated")}
			store.SetStreamer(next)

			Expect(store.SendMessage(context.Background(), "hi")).To(Succeed())
			Expect(streamer.requests).To(BeEmpty())
			Expect(next.requests).To(HaveLen(1))
			Expect(store.Messages()[1].BotResponse).To(Equal("rotated"))
		})

		It("is sending and streaming while deltas arrive", func() {
			var sending, streaming bool
			streamer.script = func(h chatstream.Handlers) {
				sending, streaming = store.Sending(), store.Streaming()
				h.OnEnd(chatstream.OutcomeCompleted)
			}
			store.SetAgent("01HX")

			Expect(store.SendMessage(context.Background(), "hi")).To(Succeed())
			Expect(sending).To(BeTrue())
			Expect(streaming).To(BeTrue())
		})

		It("removes an empty placeholder when the stream fails", func() {
			streamer.script = func(h chatstream.Handlers) {
				h.OnError(&chatstream.HTTPError{StatusCode: 500, Message: "boom"})
				h.OnEnd(chatstream.OutcomeError)
			}
			store.SetAgent("01HX")

			err := store.SendMessage(context.Background(), "hi")
			Expect(err).To(MatchError("boom"))

			messages := store.Messages()
			Expect(messages).To(HaveLen(1))
			Expect(messages[0].UserMessage).To(Equal("hi"))
			Expect(store.LastError()).To(Equal("Stream failed: boom"))
			Expect(store.Sending()).To(BeFalse())

			Expect(toasts.List()).To(ConsistOf(And(
				HaveField("Type", notify.TypeError),
				HaveField("Title", "Stream Error"),
				HaveField("Message", "boom"),
			)))
		})

		It("annotates a partial answer when the stream fails", func() {
			streamer.script = func(h chatstream.Handlers) {
				h.OnDelta("partial")
				h.OnError(&chatstream.TransportError{Err: errors.New("connection reset")})
				h.OnEnd(chatstream.OutcomeError)
			}
			store.SetAgent("01HX")

			Expect(store.SendMessage(context.Background(), "hi")).NotTo(Succeed())

			messages := store.Messages()
			Expect(messages).To(HaveLen(2))
			Expect(messages[1].BotResponse).To(Equal("partial\n\n**Error:** Stream interrupted."))
		})

		It("titles the toast for a missing api key", func() {
			streamer.script = func(h chatstream.Handlers) {
				h.OnError(&chatstream.ServerReportedError{Event: "missing_api_key", Message: "Add a key"})
				h.OnEnd(chatstream.OutcomeCompleted)
			}
			store.SetAgent("01HX")

			Expect(store.SendMessage(context.Background(), "hi")).To(Succeed())
			Expect(toasts.List()).To(ConsistOf(HaveField("Title", "API Key Missing")))
			Expect(store.LastError()).To(Equal("Stream failed: Add a key"))
		})

		It("reflects every mutation to subscribers", func() {
			streamer.script = deltas(chatstream.OutcomeCompleted, "a", "b")
			store.SetAgent("01HX")

			var changes []conversation.Change
			store.Subscribe(func(c conversation.Change) { changes = append(changes, c) })

			Expect(store.SendMessage(context.Background(), "hi")).To(Succeed())

			kinds := make([]conversation.ChangeKind, 0, len(changes))
			for _, c := range changes {
				kinds = append(kinds, c.Kind)
			}
			Expect(kinds).To(Equal([]conversation.ChangeKind{
				conversation.MessageAdded,
				conversation.MessageAdded,
				conversation.MessageUpdated,
				conversation.MessageUpdated,
				conversation.MessageUpdated,
			}))
			Expect(changes[3].Message.BotResponse).To(Equal("ab"))
		})

		It("stops notifying an unsubscribed listener", func() {
			store.SetAgent("01HX")
			var n int
			unsubscribe := store.Subscribe(func(conversation.Change) { n++ })
			unsubscribe()

			Expect(store.SendMessage(context.Background(), "hi")).To(Succeed())
			Expect(n).To(BeZero())
		})

		It("reports the finished turn", func() {
			streamer.script = func(h chatstream.Handlers) {
				h.OnDelta("answer")
				h.OnError(&chatstream.ServerReportedError{Event: "error", Message: "late failure"})
				h.OnEnd(chatstream.OutcomeCompleted)
			}
			store.SetAgent("01HX")
			store.SetCurrentConversation(&platform.Conversation{ID: 9})

			var turns []conversation.Turn
			store.OnTurn(func(t conversation.Turn) { turns = append(turns, t) })

			Expect(store.SendMessage(context.Background(), "q")).To(Succeed())

			Expect(turns).To(HaveLen(1))
			turn := turns[0]
			Expect(turn.ID).NotTo(BeEmpty())
			Expect(turn.AgentToken).To(Equal("01HX"))
			Expect(turn.ConversationID).To(Equal(int64(9)))
			Expect(turn.Question).To(Equal("q"))
			Expect(turn.Answer).To(Equal("answer\n\n**Error:** Stream interrupted."))
			Expect(turn.Outcome).To(Equal("completed"))
			Expect(turn.Error).To(Equal("late failure"))
			Expect(turn.FinishedAt).NotTo(BeTemporally("<", turn.StartedAt))
		})
	})

	Describe("with the real stream client", func() {
		It("collects deltas from the wire", func() {
			upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/event-stream")
				fmt.Fprint(w, "data: {\"text\":\"Hi \"}\ndata: {\"text\":\"there\"}\nevent: done\ndata: {}\n")
			}))
			defer upstream.Close()

			client := chatstream.NewClient(chatstream.Config{BaseURL: upstream.URL}, logger.Nop())
			store := conversation.New(conversation.Config{Streamer: client})
			store.SetAgent("01HX")

			Expect(store.SendMessage(context.Background(), "hello")).To(Succeed())
			Expect(store.Messages()[1].BotResponse).To(Equal("Hi there"))
		})
	})

	Describe("platform operations", func() {
		It("loads the playground conversation", func() {
			plat.playground = &platform.Conversation{ID: 4}

			conv, err := store.LoadPlayground(context.Background(), 12)
			Expect(err).NotTo(HaveOccurred())
			Expect(conv.ID).To(Equal(int64(4)))
			Expect(store.CurrentConversation()).To(Equal(conv))
			Expect(store.Loading()).To(BeFalse())
		})

		It("records load failures", func() {
			plat.err = &platform.APIError{StatusCode: 500, Message: "Failed to fetch conversations"}

			_, err := store.LoadConversations(context.Background(), 12)
			Expect(err).To(HaveOccurred())
			Expect(store.LastError()).To(Equal("Failed to fetch conversations"))
			Expect(store.Loading()).To(BeFalse())
		})

		It("lists conversations", func() {
			plat.conversations = []platform.Conversation{{ID: 1}, {ID: 2}}

			conversations, err := store.LoadConversations(context.Background(), 12)
			Expect(err).NotTo(HaveOccurred())
			Expect(conversations).To(HaveLen(2))
			Expect(store.Conversations()).To(HaveLen(2))
		})

		It("replaces the transcript with loaded messages", func() {
			plat.messages = []platform.ChatMessage{{
				ID:          5,
				UserMessage: "q",
				BotResponse: "a",
				CreatedAt:   "2024-05-01T10:00:00Z",
			}}

			Expect(store.LoadMessages(context.Background(), 3)).To(Succeed())

			messages := store.Messages()
			Expect(messages).To(HaveLen(1))
			Expect(messages[0].ID).To(Equal("5"))
			Expect(messages[0].BotResponse).To(Equal("a"))
			Expect(messages[0].CreatedAt).To(BeTemporally("==", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))
		})

		It("needs a current conversation to clear", func() {
			msg, err := store.Clear(context.Background())
			Expect(err).To(MatchError(conversation.ErrNoConversation))
			Expect(msg).To(Equal("No active conversation found"))
			Expect(plat.cleared).To(BeZero())
		})

		It("clears the transcript and toasts success", func() {
			plat.clearMessage = "cleared"
			store.SetCurrentConversation(&platform.Conversation{ID: 4})
			store.SetAgent("01HX")
			Expect(store.SendMessage(context.Background(), "hi")).To(Succeed())

			msg, err := store.Clear(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(msg).To(Equal("cleared"))
			Expect(store.Messages()).To(BeEmpty())
			Expect(toasts.List()).To(ConsistOf(And(
				HaveField("Type", notify.TypeSuccess),
				HaveField("Message", "Chat history cleared successfully"),
			)))
		})

		It("toasts a clear failure", func() {
			plat.err = &platform.APIError{StatusCode: 500}
			store.SetCurrentConversation(&platform.Conversation{ID: 4})

			msg, err := store.Clear(context.Background())
			Expect(err).To(HaveOccurred())
			Expect(msg).To(Equal("Failed to clear chat history"))
			Expect(toasts.List()).To(ConsistOf(HaveField("Title", "Error")))
		})
	})
})
