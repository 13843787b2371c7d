// Package chatstream opens a streaming answer from the chatbot platform and
// turns the response body into incremental text deltas plus exactly one
// terminal outcome.
package chatstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/papercomputeco/botconsole/pkg/logger"
)

// askPath is the streaming endpoint, relative to the platform base URL.
const askPath = "/api/user/ask-questions/chatbot/"

// Config configures a Client.
type Config struct {
	// BaseURL is the platform origin, e.g. http://chatbot_platform.test.
	BaseURL string

	// SessionCookie is sent verbatim as the Cookie header when set. It stands
	// in for the browser's ambient credentials.
	SessionCookie string

	// HTTPClient is used for requests. nil means a client without timeout:
	// streams may legitimately stay open for a long time.
	HTTPClient *http.Client
}

// Client opens chat streams against one platform.
type Client struct {
	baseURL string
	cookie  string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a Client. A nil logger discards log output.
func NewClient(cfg Config, log *slog.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		cookie:  cfg.SessionCookie,
		http:    httpClient,
		logger:  log,
	}
}

// Request identifies one question to stream an answer for.
type Request struct {
	// AgentToken is the agent's public identifier (a ULID on the platform).
	AgentToken string
	Question   string
}

// Endpoint returns the URL a stream for agentToken is opened against.
func (c *Client) Endpoint(agentToken string) string {
	return c.baseURL + askPath + url.PathEscape(agentToken)
}

type askBody struct {
	Question string `json:"question"`
}

// Start issues the stream request and returns a Stream positioned before the
// first event. A non-2xx response yields an *HTTPError and a failed network
// round trip a *TransportError; in both cases no framing takes place.
func (c *Client) Start(ctx context.Context, req Request) (*Stream, error) {
	if req.AgentToken == "" {
		return nil, ErrMissingAgent
	}
	if strings.TrimSpace(req.Question) == "" {
		return nil, ErrEmptyQuestion
	}

	body, err := json.Marshal(askBody{Question: req.Question})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := c.Endpoint(req.AgentToken)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.cookie != "" {
		httpReq.Header.Set("Cookie", c.cookie)
	}

	c.logger.Debug("opening chat stream",
		"endpoint", endpoint,
		"question_length", len(req.Question),
	)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Error("failed to initiate stream request", "error", err)
		return nil, &TransportError{Connecting: true, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		httpErr := newHTTPError(resp)
		c.logger.Error("stream request rejected",
			"status", resp.StatusCode,
			"message", httpErr.Message,
		)
		return nil, httpErr
	}

	// http.NoBody is a readable, already drained body: the stream completes
	// without events.
	if resp.Body == nil {
		return nil, ErrBodyMissing
	}

	return newStream(resp.Body, c.logger), nil
}

// maxErrorBody bounds how much of a rejected response is read for its message.
const maxErrorBody = 64 * 1024

func newHTTPError(resp *http.Response) *HTTPError {
	httpErr := &HTTPError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var errBody struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &errBody); err != nil {
		httpErr.Message = http.StatusText(resp.StatusCode)
	} else {
		httpErr.Message = errBody.Message
	}

	if httpErr.Message == "" {
		httpErr.Message = fmt.Sprintf("HTTP error! status: %d", resp.StatusCode)
	}

	return httpErr
}
