package mock

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/botconsole/pkg/platform"
)

type errorBody struct {
	Message string `json:"message"`
}

type askRequest struct {
	Question string `json:"question"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleAsk streams a canned answer to the question.
func (s *Server) handleAsk(c *fiber.Ctx) error {
	agent := strings.Clone(c.Params("agent"))

	var req askRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(errorBody{Message: "The request body must be JSON."})
	}
	if strings.TrimSpace(req.Question) == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(errorBody{Message: "The question field is required."})
	}

	s.logger.Debug("streaming mock answer", "agent", agent, "question_length", len(req.Question))

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set("X-Accel-Buffering", "no")

	// io.Pipe gives per-chunk flushing; fasthttp writes each chunk as it is
	// read from the pipe.
	pr, pw := io.Pipe()
	go s.stream(pw, agent, req.Question)
	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

func (s *Server) stream(pw *io.PipeWriter, agent, question string) {
	defer pw.Close()

	if agent == AgentMissingKey {
		_ = writeEvent(pw, "missing_api_key", "No API key is configured for this agent. Add one in the agent settings.")
		return
	}

	answer := s.reply(question)
	failAt := -1
	if agent == AgentError {
		failAt = len(answer) / 2
	}

	var sent strings.Builder
	for _, word := range strings.SplitAfter(answer, " ") {
		if word == "" {
			continue
		}
		if s.config.WordDelay > 0 {
			time.Sleep(s.config.WordDelay)
		}
		if err := writeText(pw, word); err != nil {
			s.logger.Debug("client went away", "error", err)
			return
		}
		sent.WriteString(word)

		if failAt >= 0 && sent.Len() >= failAt {
			_ = writeEvent(pw, "error", "The model provider failed mid-answer.")
			return
		}
	}

	// Recorded before done so the exchange is visible once the client sees
	// the end of the stream.
	s.state.record(s.state.agentIDForToken(agent), question, sent.String())

	_, _ = io.WriteString(pw, "event: done\ndata: {}\n\n")
}

func (s *Server) reply(question string) string {
	return fmt.Sprintf("You asked: %s. %s", strings.TrimSpace(question), s.config.Answer)
}

func writeText(w io.Writer, text string) error {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}

func writeEvent(w io.Writer, event, message string) error {
	payload, err := json.Marshal(errorBody{Message: message})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}

func (s *Server) handleGetAgent(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{Message: "invalid agent id"})
	}

	agent, ok := s.state.agent(int64(id))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(platform.Envelope[any]{Message: "Chatbot not found"})
	}
	return c.JSON(platform.Envelope[platform.Agent]{Data: agent, Success: true})
}

func (s *Server) handleListConversations(c *fiber.Ctx) error {
	agentID := c.QueryInt("chatbot_id")
	limit := c.QueryInt("limit", 10)

	return c.JSON(platform.Envelope[[]platform.Conversation]{
		Data:    s.state.conversationsFor(int64(agentID), limit),
		Success: true,
	})
}

func (s *Server) handleConversationMessages(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{Message: "invalid conversation id"})
	}

	messages, ok := s.state.messagesFor(int64(id))
	if !ok {
		return c.JSON(platform.Envelope[[]platform.ChatMessage]{
			Data:    []platform.ChatMessage{},
			Message: "Conversation not found",
		})
	}
	return c.JSON(platform.Envelope[[]platform.ChatMessage]{Data: messages, Success: true})
}

func (s *Server) handlePlayground(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{Message: "invalid agent id"})
	}
	if _, ok := s.state.agent(int64(id)); !ok {
		return c.JSON(platform.Envelope[any]{Message: "Chatbot not found"})
	}

	return c.JSON(platform.Envelope[platform.Conversation]{
		Data:    s.state.playground(int64(id)),
		Success: true,
	})
}

func (s *Server) handleClearPlayground(c *fiber.Ctx) error {
	n := s.state.clearAll()
	s.logger.Debug("cleared playground messages", "count", n)

	return c.JSON(platform.Envelope[any]{
		Success: true,
		Message: "Chat history cleared successfully",
	})
}
