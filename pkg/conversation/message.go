package conversation

import (
	"strconv"
	"time"

	"github.com/papercomputeco/botconsole/pkg/platform"
)

// Message is one entry of the visible transcript. Messages typed locally
// carry either UserMessage or BotResponse; messages loaded from the platform
// carry both.
type Message struct {
	ID          string
	UserMessage string
	BotResponse string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Bot marks the placeholder that collects a streamed answer.
	Bot bool
}

func fromPlatform(m platform.ChatMessage) Message {
	msg := Message{
		ID:          strconv.FormatInt(m.ID, 10),
		UserMessage: m.UserMessage,
		BotResponse: m.BotResponse,
	}
	msg.CreatedAt, _ = time.Parse(time.RFC3339, m.CreatedAt)
	msg.UpdatedAt, _ = time.Parse(time.RFC3339, m.UpdatedAt)
	return msg
}

// ChangeKind says what happened to the transcript.
type ChangeKind int

const (
	// MessageAdded: Message was appended.
	MessageAdded ChangeKind = iota

	// MessageUpdated: Message is the new content of an existing entry.
	MessageUpdated

	// MessageRemoved: Message was deleted.
	MessageRemoved

	// MessagesReset: the whole transcript was replaced or cleared.
	MessagesReset
)

// Change describes one transcript mutation. Message is a copy.
type Change struct {
	Kind    ChangeKind
	Message Message
}

// Turn is a finished question and answer exchange.
type Turn struct {
	ID             string
	AgentToken     string
	ConversationID int64
	Question       string
	Answer         string
	Outcome        string

	// Error is the last error reported during the exchange, if any.
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}
