// Package conversation holds the state of a chat session with one agent: the
// transcript, the in-flight answer and the conversations known on the
// platform. Streamed answers arrive through chatstream and mutations are
// reflected to subscribers as they happen.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/botconsole/pkg/chatstream"
	"github.com/papercomputeco/botconsole/pkg/logger"
	"github.com/papercomputeco/botconsole/pkg/notify"
	"github.com/papercomputeco/botconsole/pkg/platform"
)

const (
	missingAgentMessage = "Agent ULID is missing."
	noConversationMsg   = "No active conversation found"
	unexpectedErrorMsg  = "An unexpected error occurred"
	interruptedSuffix   = "\n\n**Error:** Stream interrupted."
)

var (
	// ErrMissingAgent is returned by SendMessage before SetAgent was called.
	ErrMissingAgent = errors.New("agent token is missing")

	// ErrNoConversation is returned by Clear without a current conversation.
	ErrNoConversation = errors.New("no active conversation")

	errNoPlatform = errors.New("no platform client configured")
)

// Streamer opens chat streams. *chatstream.Client implements it.
type Streamer interface {
	Open(ctx context.Context, req chatstream.Request, h chatstream.Handlers)
}

// Platform is the subset of the platform API the store needs.
// *platform.Client implements it.
type Platform interface {
	ListConversations(ctx context.Context, agentID int64) ([]platform.Conversation, error)
	PlaygroundConversation(ctx context.Context, agentID int64) (*platform.Conversation, error)
	ConversationMessages(ctx context.Context, conversationID int64) ([]platform.ChatMessage, error)
	ClearPlayground(ctx context.Context) (string, error)
}

// Config wires a Store.
type Config struct {
	Streamer Streamer

	// Platform is optional; without it only SendMessage works.
	Platform Platform

	// Notifier receives toasts. nil discards them.
	Notifier notify.Notifier

	Logger *slog.Logger

	// Now is the clock. nil means time.Now.
	Now func() time.Time
}

// Store is safe for concurrent use. Listeners and turn hooks are called
// without the store's lock held, so they may call back into the store.
type Store struct {
	streamer Streamer
	platform Platform
	notifier notify.Notifier
	logger   *slog.Logger
	now      func() time.Time

	mu            sync.Mutex
	agentToken    string
	current       *platform.Conversation
	conversations []platform.Conversation
	messages      []Message
	loading       bool
	sending       bool
	streaming     bool
	lastErr       string

	listeners map[string]func(Change)
	turnHooks []func(Turn)
}

// New creates a Store.
func New(c Config) *Store {
	s := &Store{
		streamer:  c.Streamer,
		platform:  c.Platform,
		notifier:  c.Notifier,
		logger:    c.Logger,
		now:       c.Now,
		listeners: make(map[string]func(Change)),
	}
	if s.notifier == nil {
		s.notifier = notify.Discard
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// SetStreamer replaces the streamer used by later SendMessage calls, for
// example after the session cookie was rotated. An exchange in flight keeps
// the streamer it started with.
func (s *Store) SetStreamer(streamer Streamer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streamer = streamer
}

// SetPlatform replaces the platform client used by later loads and clears.
func (s *Store) SetPlatform(p Platform) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.platform = p
}

// SetAgent selects the agent messages are sent to.
func (s *Store) SetAgent(token string) {
	s.mu.Lock()
	s.agentToken = token
	s.mu.Unlock()
}

// AgentToken returns the selected agent.
func (s *Store) AgentToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agentToken
}

// Subscribe registers fn for every transcript change and returns a function
// that removes it.
func (s *Store) Subscribe(fn func(Change)) func() {
	id := uuid.NewString()

	s.mu.Lock()
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// OnTurn registers fn to be called once per finished SendMessage.
func (s *Store) OnTurn(fn func(Turn)) {
	s.mu.Lock()
	s.turnHooks = append(s.turnHooks, fn)
	s.mu.Unlock()
}

// SendMessage appends content as a user message, streams the agent's answer
// into a bot placeholder and returns once the stream reached its terminal
// outcome. It returns the stream's fatal error for an error outcome and nil
// otherwise; server reported errors are also recorded in LastError and
// surfaced as toasts.
func (s *Store) SendMessage(ctx context.Context, content string) error {
	s.mu.Lock()
	agent := s.agentToken
	if agent == "" {
		s.lastErr = missingAgentMessage
		s.mu.Unlock()
		s.logger.Error("cannot send message without an agent")
		return ErrMissingAgent
	}

	streamer := s.streamer
	var conversationID int64
	if s.current != nil {
		conversationID = s.current.ID
	}

	now := s.now()
	user := Message{ID: "user-" + uuid.NewString(), UserMessage: content, CreatedAt: now, UpdatedAt: now}
	botID := "bot-" + uuid.NewString()
	placeholder := Message{ID: botID, Bot: true, CreatedAt: now, UpdatedAt: now}

	s.messages = append(s.messages, user, placeholder)
	s.sending = true
	s.streaming = true
	s.lastErr = ""
	s.mu.Unlock()

	s.emit(Change{Kind: MessageAdded, Message: user}, Change{Kind: MessageAdded, Message: placeholder})

	var (
		outcome  chatstream.Outcome
		lastErr  error
		fatalErr error
	)

	streamer.Open(ctx, chatstream.Request{AgentToken: agent, Question: content}, chatstream.Handlers{
		OnDelta: func(text string) {
			s.update(botID, func(m *Message) {
				m.BotResponse += text
				m.UpdatedAt = s.now()
			})
		},
		OnError: func(err error) {
			lastErr = err
			s.streamFailed(botID, err)
		},
		OnEnd: func(o chatstream.Outcome) {
			outcome = o
			if o == chatstream.OutcomeError {
				fatalErr = lastErr
			}
			s.mu.Lock()
			s.sending = false
			s.mu.Unlock()
			s.update(botID, func(m *Message) {
				m.CreatedAt = s.now()
			})
			s.logger.Debug("stream ended", "outcome", string(o))
		},
	})

	s.mu.Lock()
	s.streaming = false
	answer := ""
	if i := s.indexOf(botID); i >= 0 {
		answer = s.messages[i].BotResponse
	}
	hooks := slices.Clone(s.turnHooks)
	s.mu.Unlock()

	turn := Turn{
		ID:             uuid.NewString(),
		AgentToken:     agent,
		ConversationID: conversationID,
		Question:       content,
		Answer:         answer,
		Outcome:        string(outcome),
		StartedAt:      now,
		FinishedAt:     s.now(),
	}
	if lastErr != nil {
		turn.Error = lastErr.Error()
	}
	for _, hook := range hooks {
		hook(turn)
	}

	return fatalErr
}

// streamFailed records a stream error: the error state, a toast, and either
// the removal of a still empty placeholder or an interruption note on it.
func (s *Store) streamFailed(botID string, err error) {
	msg := err.Error()

	s.mu.Lock()
	s.lastErr = "Stream failed: " + msg
	s.sending = false

	var change *Change
	if i := s.indexOf(botID); i >= 0 {
		if s.messages[i].BotResponse == "" {
			removed := s.messages[i]
			s.messages = slices.Delete(s.messages, i, i+1)
			change = &Change{Kind: MessageRemoved, Message: removed}
		} else {
			s.messages[i].BotResponse += interruptedSuffix
			s.messages[i].UpdatedAt = s.now()
			change = &Change{Kind: MessageUpdated, Message: s.messages[i]}
		}
	}
	s.mu.Unlock()

	title := "Stream Error"
	if chatstream.IsMissingAPIKey(err) {
		title = "API Key Missing"
	}
	s.logger.Error("stream error", "error", msg)
	s.notifier.Notify(notify.Toast{Type: notify.TypeError, Title: title, Message: msg})

	if change != nil {
		s.emit(*change)
	}
}

// update applies fn to the message with id, if it still exists.
func (s *Store) update(id string, fn func(*Message)) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	fn(&s.messages[i])
	changed := s.messages[i]
	s.mu.Unlock()

	s.emit(Change{Kind: MessageUpdated, Message: changed})
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.messages, func(m Message) bool {
		return m.ID == id
	})
}

func (s *Store) emit(changes ...Change) {
	s.mu.Lock()
	listeners := make([]func(Change), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, c := range changes {
		for _, l := range listeners {
			l(c)
		}
	}
}

// Messages returns a copy of the transcript.
func (s *Store) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

// LastError returns the last recorded error, or "" when the last operation
// succeeded.
func (s *Store) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Sending reports whether a message is waiting for its stream to end.
func (s *Store) Sending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

// Streaming reports whether SendMessage is in progress.
func (s *Store) Streaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}

// Loading reports whether a platform request is in progress.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// CurrentConversation returns the selected conversation, or nil.
func (s *Store) CurrentConversation() *platform.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Conversations returns the conversations loaded by LoadConversations.
func (s *Store) Conversations() []platform.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.conversations)
}

// SetCurrentConversation selects conversation and empties the transcript.
func (s *Store) SetCurrentConversation(conversation *platform.Conversation) {
	s.mu.Lock()
	s.current = conversation
	s.messages = nil
	s.mu.Unlock()

	s.emit(Change{Kind: MessagesReset})
}

// ResetMessages empties the local transcript without touching the platform.
func (s *Store) ResetMessages() {
	s.mu.Lock()
	s.messages = nil
	s.mu.Unlock()

	s.emit(Change{Kind: MessagesReset})
}

// LoadPlayground fetches the playground conversation with agentID and makes
// it current. The transcript is left as is.
func (s *Store) LoadPlayground(ctx context.Context, agentID int64) (*platform.Conversation, error) {
	plat, err := s.beginLoad()
	if err != nil {
		return nil, err
	}

	conversation, err := plat.PlaygroundConversation(ctx, agentID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.lastErr = errorMessage(err)
		return s.current, err
	}
	s.current = conversation
	return conversation, nil
}

// LoadConversations fetches the recent conversations with agentID.
func (s *Store) LoadConversations(ctx context.Context, agentID int64) ([]platform.Conversation, error) {
	plat, err := s.beginLoad()
	if err != nil {
		return nil, err
	}

	conversations, err := plat.ListConversations(ctx, agentID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.lastErr = errorMessage(err)
		return nil, err
	}
	s.conversations = conversations
	return slices.Clone(conversations), nil
}

// LoadMessages replaces the transcript with the messages of conversationID.
func (s *Store) LoadMessages(ctx context.Context, conversationID int64) error {
	plat, err := s.beginLoad()
	if err != nil {
		return err
	}

	loaded, err := plat.ConversationMessages(ctx, conversationID)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.lastErr = errorMessage(err)
		s.mu.Unlock()
		return err
	}
	s.messages = make([]Message, 0, len(loaded))
	for _, m := range loaded {
		s.messages = append(s.messages, fromPlatform(m))
	}
	s.mu.Unlock()

	s.emit(Change{Kind: MessagesReset})
	return nil
}

// Clear deletes the current conversation's history on the platform and
// empties the transcript. The outcome is also reported as a toast.
func (s *Store) Clear(ctx context.Context) (string, error) {
	s.mu.Lock()
	current := s.current
	plat := s.platform
	s.mu.Unlock()

	if current == nil || current.ID == 0 {
		return noConversationMsg, ErrNoConversation
	}
	if plat == nil {
		return "", errNoPlatform
	}

	msg, err := plat.ClearPlayground(ctx)
	if err != nil {
		failure := errorMessage(err)
		var apiErr *platform.APIError
		if errors.As(err, &apiErr) && apiErr.Message == "" {
			failure = "Failed to clear chat history"
		}
		s.notifier.Notify(notify.Toast{Type: notify.TypeError, Title: "Error", Message: failure})
		return failure, fmt.Errorf("clearing conversation: %w", err)
	}

	s.ResetMessages()
	s.notifier.Notify(notify.Toast{
		Type:    notify.TypeSuccess,
		Title:   "Success",
		Message: "Chat history cleared successfully",
	})
	return msg, nil
}

func (s *Store) beginLoad() (Platform, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.platform == nil {
		return nil, errNoPlatform
	}
	s.loading = true
	s.lastErr = ""
	return s.platform, nil
}

func errorMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return unexpectedErrorMsg
}
