// Package platform is a client for the chatbot platform's REST endpoints
// under /api/user: agents, conversations and their messages.
package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/botconsole/pkg/logger"
)

const (
	basePath = "/api/user"

	// conversationListLimit matches what the platform UI requests.
	conversationListLimit = 10
)

// APIError is a request the platform rejected, either with a non-2xx status
// or with success=false in the envelope.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("platform returned status %d", e.StatusCode)
}

// Config configures a Client.
type Config struct {
	BaseURL       string
	SessionCookie string

	// Timeout bounds each request. Zero means 30 seconds.
	Timeout time.Duration
}

// Client talks to the platform REST API.
type Client struct {
	baseURL    string
	cookie     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client. A nil logger discards log output.
func NewClient(c Config, log *slog.Logger) (*Client, error) {
	if c.BaseURL == "" {
		return nil, errors.New("platform base URL is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return nil, fmt.Errorf("parsing platform base URL: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}

	timeout := c.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(c.BaseURL, "/"),
		cookie:     c.SessionCookie,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}, nil
}

// ListConversations returns the most recent conversations with agentID.
func (c *Client) ListConversations(ctx context.Context, agentID int64) ([]Conversation, error) {
	query := url.Values{}
	query.Set("chatbot_id", strconv.FormatInt(agentID, 10))
	query.Set("limit", strconv.Itoa(conversationListLimit))

	var env Envelope[[]Conversation]
	if err := c.do(ctx, http.MethodGet, "/conversations?"+query.Encode(), &env); err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	return env.Data, nil
}

// PlaygroundConversation returns the caller's playground conversation with
// agentID, creating it on the platform side if needed.
func (c *Client) PlaygroundConversation(ctx context.Context, agentID int64) (*Conversation, error) {
	var env Envelope[*Conversation]
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/playground/chatbot/%d", agentID), &env); err != nil {
		return nil, fmt.Errorf("loading playground conversation: %w", err)
	}
	return env.Data, nil
}

// ConversationMessages returns the exchanges recorded in a conversation.
func (c *Client) ConversationMessages(ctx context.Context, conversationID int64) ([]ChatMessage, error) {
	var env Envelope[[]ChatMessage]
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/conversations/%d/chat-messages", conversationID), &env); err != nil {
		return nil, fmt.Errorf("loading conversation messages: %w", err)
	}
	return env.Data, nil
}

// ClearPlayground deletes the messages of the caller's playground
// conversation and returns the platform's confirmation message.
func (c *Client) ClearPlayground(ctx context.Context) (string, error) {
	var env Envelope[json.RawMessage]
	if err := c.do(ctx, http.MethodDelete, "/playground/conversations-messages", &env); err != nil {
		return "", err
	}
	return env.Message, nil
}

// Agent returns the agent with id.
func (c *Client) Agent(ctx context.Context, id int64) (*Agent, error) {
	var env Envelope[*Agent]
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/chatbots/%d", id), &env); err != nil {
		return nil, fmt.Errorf("loading agent %d: %w", id, err)
	}
	if env.Data == nil {
		return nil, fmt.Errorf("loading agent %d: empty response", id)
	}
	return env.Data, nil
}

// envelope lets do check success without knowing T.
type envelope interface {
	ok() (bool, string)
}

func (e *Envelope[T]) ok() (bool, string) {
	return e.Success, e.Message
}

func (c *Client) do(ctx context.Context, method, path string, out envelope) error {
	endpoint := c.baseURL + basePath + path

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	c.logger.Debug("platform request", "method", method, "path", basePath+path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errBody struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &errBody) == nil {
			apiErr.Message = errBody.Message
		}
		c.logger.Debug("platform request rejected",
			"status", resp.StatusCode,
			"message", apiErr.Message,
		)
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	if ok, msg := out.ok(); !ok {
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	return nil
}
