package session_test

import (
	"context"
	"net"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/botconsole/cmd/botconsole/session"
	"github.com/papercomputeco/botconsole/mock"
	"github.com/papercomputeco/botconsole/pkg/chatstream"
	"github.com/papercomputeco/botconsole/pkg/config"
	"github.com/papercomputeco/botconsole/pkg/conversation"
	"github.com/papercomputeco/botconsole/pkg/eventstream"
	"github.com/papercomputeco/botconsole/pkg/eventstream/kafka"
	"github.com/papercomputeco/botconsole/pkg/eventstream/nop"
	"github.com/papercomputeco/botconsole/pkg/logger"
	"github.com/papercomputeco/botconsole/pkg/notify"
	"github.com/papercomputeco/botconsole/pkg/storage/inmemory"
	"github.com/papercomputeco/botconsole/pkg/storage/sqlite"
)

func startMock(cfg mock.Config) (*mock.Server, string) {
	s := mock.NewServer(cfg, logger.Nop())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).NotTo(HaveOccurred())

	go func() {
		defer GinkgoRecover()
		_ = s.Serve(ln)
	}()
	DeferCleanup(s.Shutdown)

	return s, "http://" + ln.Addr().String()
}

var _ = Describe("OpenDriver", func() {
	ctx := context.Background()

	It("defaults to memory", func() {
		driver, err := session.OpenDriver(ctx, config.StorageConfig{}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(driver).To(BeAssignableToTypeOf(&inmemory.Driver{}))
		Expect(driver.Close()).To(Succeed())
	})

	It("prefers SQLite when a path is set", func() {
		path := filepath.Join(GinkgoT().TempDir(), "turns.db")
		driver, err := session.OpenDriver(ctx, config.StorageConfig{
			SQLitePath:  path,
			PostgresDSN: "postgres://unused",
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(driver).To(BeAssignableToTypeOf(&sqlite.Driver{}))
		Expect(driver.Close()).To(Succeed())
	})
})

var _ = Describe("OpenPublisher", func() {
	It("is a nop without brokers", func() {
		publisher, err := session.OpenPublisher(config.EventStreamConfig{Brokers: " , "}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(publisher).To(BeAssignableToTypeOf(&nop.Publisher{}))
	})

	It("uses Kafka with brokers", func() {
		publisher, err := session.OpenPublisher(config.EventStreamConfig{
			Brokers: "localhost:9092",
			Topic:   "botconsole.turns",
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(publisher).To(BeAssignableToTypeOf(&kafka.Publisher{}))
		Expect(publisher.Close()).To(Succeed())
	})

	It("requires a topic with brokers", func() {
		_, err := session.OpenPublisher(config.EventStreamConfig{Brokers: "localhost:9092"}, logger.Nop())
		Expect(err).To(MatchError(eventstream.ErrNoTopic))
	})
})

var _ = Describe("Session", func() {
	var (
		ctx    context.Context
		server *mock.Server
		cfg    *config.Config
	)

	BeforeEach(func() {
		ctx = context.Background()

		var baseURL string
		server, baseURL = startMock(mock.Config{Answer: "Persisted.", RequireCookie: "session=one"})

		cfg = config.NewDefaultConfig()
		cfg.Platform.BaseURL = baseURL
		cfg.Platform.SessionCookie = "session=one"
		cfg.Chat.AgentToken = server.AgentToken()
	})

	It("requires a base URL", func() {
		cfg.Platform.BaseURL = ""
		_, err := session.New(ctx, cfg, session.Options{}, logger.Nop())
		Expect(err).To(MatchError(session.ErrNoBaseURL))
	})

	It("persists finished turns through the worker pool", func() {
		cfg.Storage.SQLitePath = filepath.Join(GinkgoT().TempDir(), "turns.db")

		s, err := session.New(ctx, cfg, session.Options{Persist: true}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Pool).NotTo(BeNil())

		Expect(s.Store.SendMessage(ctx, "hello")).To(Succeed())
		Expect(s.Close()).To(Succeed())

		driver, err := sqlite.NewDriver(ctx, cfg.Storage.SQLitePath)
		Expect(err).NotTo(HaveOccurred())
		defer driver.Close()

		turns, err := driver.ListTurns(ctx, server.AgentToken(), 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(turns).To(HaveLen(1))
		Expect(turns[0].Question).To(Equal("hello"))
		Expect(turns[0].Answer).To(Equal("You asked: hello. Persisted."))
		Expect(turns[0].Outcome).To(Equal(string(chatstream.OutcomeCompleted)))
	})

	It("makes a finished turn readable after Flush without closing", func() {
		s, err := session.New(ctx, cfg, session.Options{Persist: true}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()

		Expect(s.Store.SendMessage(ctx, "hello")).To(Succeed())
		Expect(s.Flush(ctx)).To(Succeed())

		turns, err := s.Driver.ListTurns(ctx, server.AgentToken(), 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(turns).To(HaveLen(1))
	})

	It("flushes without a pipeline", func() {
		s, err := session.New(ctx, cfg, session.Options{}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()

		Expect(s.Flush(ctx)).To(Succeed())
	})

	It("resolves the agent token from the agent id", func() {
		cfg.Chat.AgentToken = ""
		cfg.Chat.AgentID = 1

		s, err := session.New(ctx, cfg, session.Options{}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()

		token, err := s.ResolveAgent(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(token).To(Equal(server.AgentToken()))
		Expect(s.Store.AgentToken()).To(Equal(server.AgentToken()))
	})

	It("reports a missing agent when neither token nor id is set", func() {
		cfg.Chat.AgentToken = ""

		s, err := session.New(ctx, cfg, session.Options{}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()

		_, err = s.ResolveAgent(ctx)
		Expect(err).To(MatchError(conversation.ErrMissingAgent))
	})

	It("picks up a rotated session cookie", func() {
		cfg.Platform.SessionCookie = "session=stale"

		s, err := session.New(ctx, cfg, session.Options{}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()

		toasts := notify.NewStore()
		unsubscribe := s.Bus.Subscribe(toasts.Notify)
		defer unsubscribe()

		Expect(s.Store.SendMessage(ctx, "first")).To(HaveOccurred())
		Expect(toasts.List()).To(HaveLen(1))

		rotated := *cfg
		rotated.Platform.SessionCookie = "session=one"
		Expect(s.Reconfigure(&rotated)).To(BeTrue())

		Expect(s.Store.SendMessage(ctx, "second")).To(Succeed())
		Expect(s.Config().Platform.SessionCookie).To(Equal("session=one"))
	})

	It("ignores a reload that changes nothing", func() {
		s, err := session.New(ctx, cfg, session.Options{}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()

		same := *cfg
		Expect(s.Reconfigure(&same)).To(BeFalse())
	})
})
