// Package mock provides a local stand-in for the chatbot platform: it streams
// canned answers in the platform's wire format and serves the conversation
// endpoints from memory, so the console can be exercised without a platform.
package mock

import "time"

// Special agent tokens that trigger failure paths.
const (
	AgentMissingKey = "missing-key"
	AgentError      = "error"
)

// Config is the mock server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8090")
	ListenAddr string

	// Answer is appended to every streamed reply.
	Answer string

	// WordDelay is slept between streamed words to make streaming visible.
	WordDelay time.Duration

	// RequireCookie, when set, must appear in the Cookie header of every
	// /api/user request.
	RequireCookie string
}

const defaultAnswer = "This is a streamed reply from the local mock chatbot."
