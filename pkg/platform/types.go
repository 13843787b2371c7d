package platform

// Envelope is the response wrapper used by every /api/user endpoint.
type Envelope[T any] struct {
	Data    T      `json:"data"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Tenant is the business owning a conversation.
type Tenant struct {
	ID           string `json:"id"`
	BusinessName string `json:"business_name"`
	Domain       string `json:"domain,omitempty"`
	Language     string `json:"language,omitempty"`
	Timezone     string `json:"timezone,omitempty"`
}

// ChatMessage is one persisted exchange: the user's question and the bot's
// answer share a record.
type ChatMessage struct {
	ID          int64  `json:"id"`
	UserMessage string `json:"user_message"`
	BotResponse string `json:"bot_response"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// Conversation groups the exchanges of one user with one agent.
type Conversation struct {
	ID             int64         `json:"id"`
	Tenant         *Tenant       `json:"tenant,omitempty"`
	Chats          []ChatMessage `json:"chats,omitempty"`
	UserIdentifier string        `json:"user_identifier"`
	CreatedAt      string        `json:"created_at"`
	UpdatedAt      string        `json:"updated_at"`
}

// Agent is a configured chatbot. ULID is the token chat streams are opened
// against.
type Agent struct {
	ID          int64  `json:"id"`
	ULID        string `json:"ulid"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
}
