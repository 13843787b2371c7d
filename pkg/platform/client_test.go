package platform_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/botconsole/pkg/logger"
	"github.com/papercomputeco/botconsole/pkg/platform"
)

var _ = Describe("Client", func() {
	var (
		upstream *httptest.Server
		client   *platform.Client
		mu       sync.Mutex
		lastReq  *http.Request
		status   int
		body     string
	)

	BeforeEach(func() {
		status = http.StatusOK
		body = `{"success":true,"data":null}`
		upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			lastReq = r
			mu.Unlock()
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = io.WriteString(w, body)
		}))

		var err error
		client, err = platform.NewClient(platform.Config{
			BaseURL:       upstream.URL + "/",
			SessionCookie: "laravel_session=abc",
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		upstream.Close()
	})

	last := func() *http.Request {
		mu.Lock()
		defer mu.Unlock()
		return lastReq
	}

	It("requires a base URL", func() {
		_, err := platform.NewClient(platform.Config{}, nil)
		Expect(err).To(HaveOccurred())
	})

	It("lists conversations for an agent", func() {
		body = `{"success":true,"data":[{"id":7,"user_identifier":"u1","created_at":"2024-01-01T00:00:00Z"}]}`

		conversations, err := client.ListConversations(context.Background(), 12)
		Expect(err).NotTo(HaveOccurred())
		Expect(conversations).To(HaveLen(1))
		Expect(conversations[0].ID).To(Equal(int64(7)))

		Expect(last().Method).To(Equal(http.MethodGet))
		Expect(last().URL.Path).To(Equal("/api/user/conversations"))
		Expect(last().URL.Query().Get("chatbot_id")).To(Equal("12"))
		Expect(last().URL.Query().Get("limit")).To(Equal("10"))
		Expect(last().Header.Get("Accept")).To(Equal("application/json"))
		Expect(last().Header.Get("Cookie")).To(Equal("laravel_session=abc"))
	})

	It("loads the playground conversation", func() {
		body = `{"success":true,"data":{"id":3,"tenant":{"id":"t1","business_name":"Acme"}}}`

		conversation, err := client.PlaygroundConversation(context.Background(), 12)
		Expect(err).NotTo(HaveOccurred())
		Expect(conversation.ID).To(Equal(int64(3)))
		Expect(conversation.Tenant.BusinessName).To(Equal("Acme"))
		Expect(last().URL.Path).To(Equal("/api/user/playground/chatbot/12"))
	})

	It("loads conversation messages", func() {
		body = `{"success":true,"data":[{"id":1,"user_message":"hi","bot_response":"hello"}]}`

		messages, err := client.ConversationMessages(context.Background(), 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(messages).To(Equal([]platform.ChatMessage{{ID: 1, UserMessage: "hi", BotResponse: "hello"}}))
		Expect(last().URL.Path).To(Equal("/api/user/conversations/3/chat-messages"))
	})

	It("clears the playground conversation", func() {
		body = `{"success":true,"message":"Chat history cleared"}`

		msg, err := client.ClearPlayground(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(msg).To(Equal("Chat history cleared"))
		Expect(last().Method).To(Equal(http.MethodDelete))
		Expect(last().URL.Path).To(Equal("/api/user/playground/conversations-messages"))
	})

	It("loads an agent", func() {
		body = `{"success":true,"data":{"id":12,"ulid":"01HXAGENT","name":"Support"}}`

		agent, err := client.Agent(context.Background(), 12)
		Expect(err).NotTo(HaveOccurred())
		Expect(agent.ULID).To(Equal("01HXAGENT"))
		Expect(last().URL.Path).To(Equal("/api/user/chatbots/12"))
	})

	It("turns success=false into an APIError", func() {
		body = `{"success":false,"message":"Conversation not found"}`

		_, err := client.ConversationMessages(context.Background(), 3)
		var apiErr *platform.APIError
		Expect(errors.As(err, &apiErr)).To(BeTrue())
		Expect(apiErr.Message).To(Equal("Conversation not found"))
	})

	It("turns a non-2xx status into an APIError", func() {
		status = http.StatusUnauthorized
		body = `{"message":"Unauthenticated."}`

		_, err := client.ClearPlayground(context.Background())
		var apiErr *platform.APIError
		Expect(errors.As(err, &apiErr)).To(BeTrue())
		Expect(apiErr.StatusCode).To(Equal(http.StatusUnauthorized))
		Expect(err.Error()).To(Equal("Unauthenticated."))
	})

	It("describes a rejected request without a message by its status", func() {
		status = http.StatusBadGateway
		body = "bad gateway"

		_, err := client.ClearPlayground(context.Background())
		Expect(err).To(MatchError("platform returned status 502"))
	})
})
