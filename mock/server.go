package mock

import (
	"log/slog"
	"net"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/botconsole/pkg/logger"
)

// Server is the mock platform server.
type Server struct {
	config Config
	state  *state
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a mock server with one agent and no conversations.
func NewServer(config Config, log *slog.Logger) *Server {
	if config.Answer == "" {
		config.Answer = defaultAnswer
	}
	if log == nil {
		log = logger.Nop()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		state:  newState(),
		logger: log,
		app:    app,
	}

	app.Get("/ping", s.handlePing)

	user := app.Group("/api/user", s.requireSession)
	user.Post("/ask-questions/chatbot/:agent", s.handleAsk)
	user.Get("/chatbots/:id", s.handleGetAgent)
	user.Get("/conversations", s.handleListConversations)
	user.Get("/conversations/:id/chat-messages", s.handleConversationMessages)
	user.Get("/playground/chatbot/:id", s.handlePlayground)
	user.Delete("/playground/conversations-messages", s.handleClearPlayground)

	return s
}

// AgentToken returns the token of the built-in agent.
func (s *Server) AgentToken() string {
	return mockAgentULID
}

// Run starts the mock server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting mock platform server",
		"listen", s.config.ListenAddr,
		"agent", mockAgentULID,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Serve serves on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Shutdown gracefully shuts down the mock server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// requireSession rejects requests without the configured session cookie.
func (s *Server) requireSession(c *fiber.Ctx) error {
	if s.config.RequireCookie == "" {
		return c.Next()
	}
	if !strings.Contains(c.Get(fiber.HeaderCookie), s.config.RequireCookie) {
		return c.Status(fiber.StatusUnauthorized).JSON(errorBody{Message: "Unauthenticated."})
	}
	return c.Next()
}
