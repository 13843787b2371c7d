package mock

import (
	"sync"
	"time"

	"github.com/papercomputeco/botconsole/pkg/platform"
)

// mockAgentULID is the token of the agent the mock serves by default.
const mockAgentULID = "01HXMOCKAGENT00000000000000"

// state is the in-memory platform: agents and one playground conversation
// per agent.
type state struct {
	mu            sync.Mutex
	agents        []platform.Agent
	conversations map[int64]*platform.Conversation
	messages      map[int64][]platform.ChatMessage
	nextID        int64
}

func newState() *state {
	now := time.Now().UTC().Format(time.RFC3339)
	return &state{
		agents: []platform.Agent{{
			ID:          1,
			ULID:        mockAgentULID,
			Name:        "Mock Agent",
			Description: "Local mock chatbot",
			Type:        "support",
			IsActive:    true,
			CreatedAt:   now,
		}},
		conversations: make(map[int64]*platform.Conversation),
		messages:      make(map[int64][]platform.ChatMessage),
		nextID:        1,
	}
}

func (s *state) agent(id int64) (platform.Agent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.agents {
		if a.ID == id {
			return a, true
		}
	}
	return platform.Agent{}, false
}

func (s *state) agentIDForToken(token string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.agents {
		if a.ULID == token {
			return a.ID
		}
	}
	return 0
}

// playground returns the playground conversation of agentID, creating it.
func (s *state) playground(agentID int64) platform.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.playgroundLocked(agentID)
}

func (s *state) playgroundLocked(agentID int64) *platform.Conversation {
	if c, ok := s.conversations[agentID]; ok {
		return c
	}
	now := time.Now().UTC().Format(time.RFC3339)
	c := &platform.Conversation{
		ID:             s.nextID,
		UserIdentifier: "playground",
		CreatedAt:      now,
		UpdatedAt:      now,
		Tenant:         &platform.Tenant{ID: "mock", BusinessName: "Mock Tenant"},
	}
	s.nextID++
	s.conversations[agentID] = c
	return c
}

func (s *state) conversationsFor(agentID int64, limit int) []platform.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[agentID]
	if !ok || limit == 0 {
		return []platform.Conversation{}
	}
	return []platform.Conversation{*c}
}

func (s *state) messagesFor(conversationID int64) ([]platform.ChatMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conversations {
		if c.ID == conversationID {
			return append([]platform.ChatMessage{}, s.messages[conversationID]...), true
		}
	}
	return nil, false
}

// record appends a finished exchange to the playground of agentID.
func (s *state) record(agentID int64, question, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.playgroundLocked(agentID)
	now := time.Now().UTC().Format(time.RFC3339)
	s.messages[c.ID] = append(s.messages[c.ID], platform.ChatMessage{
		ID:          s.nextID,
		UserMessage: question,
		BotResponse: answer,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	s.nextID++
	c.UpdatedAt = now
}

// clearAll empties every playground conversation.
func (s *state) clearAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, msgs := range s.messages {
		n += len(msgs)
		delete(s.messages, id)
	}
	return n
}
