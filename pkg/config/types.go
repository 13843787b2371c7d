package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent botconsole configuration stored as
// config.toml in the .botconsole/ directory.
type Config struct {
	Version     int               `toml:"version"`
	Platform    PlatformConfig    `toml:"platform"`
	Chat        ChatConfig        `toml:"chat"`
	Storage     StorageConfig     `toml:"storage"`
	EventStream EventStreamConfig `toml:"event_stream"`
	Mock        MockConfig        `toml:"mock"`
}

// PlatformConfig holds the chatbot platform connection settings.
type PlatformConfig struct {
	// BaseURL is the scheme + host of the platform, without a trailing slash.
	BaseURL string `toml:"base_url,omitempty"`

	// SessionCookie is sent verbatim as the Cookie header on every request.
	SessionCookie string `toml:"session_cookie,omitempty"`
}

// ChatConfig selects the agent the console chats with.
type ChatConfig struct {
	// AgentToken is the opaque agent identifier used by the stream endpoint.
	AgentToken string `toml:"agent_token,omitempty"`

	// AgentID is the numeric agent id used by the conversation endpoints.
	AgentID int64 `toml:"agent_id,omitempty"`
}

// StorageConfig holds optional transcript persistence settings.
// SQLitePath wins when both are set.
type StorageConfig struct {
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// EventStreamConfig configures publishing of completed turns to Kafka.
// Publishing is disabled while Brokers is empty.
type EventStreamConfig struct {
	// Brokers is a comma separated list of host:port addresses.
	Brokers string `toml:"brokers,omitempty"`
	Topic   string `toml:"topic,omitempty"`
}

// MockConfig holds settings for the local mock chatbot server.
type MockConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"platform.base_url": {
		get: func(c *Config) string { return c.Platform.BaseURL },
		set: func(c *Config, v string) error { c.Platform.BaseURL = v; return nil },
	},
	"platform.session_cookie": {
		get: func(c *Config) string { return c.Platform.SessionCookie },
		set: func(c *Config, v string) error { c.Platform.SessionCookie = v; return nil },
	},
	"chat.agent_token": {
		get: func(c *Config) string { return c.Chat.AgentToken },
		set: func(c *Config, v string) error { c.Chat.AgentToken = v; return nil },
	},
	"chat.agent_id": {
		get: func(c *Config) string {
			if c.Chat.AgentID == 0 {
				return ""
			}
			return strconv.FormatInt(c.Chat.AgentID, 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for chat.agent_id: %w", err)
			}
			c.Chat.AgentID = n
			return nil
		},
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_dsn": {
		get: func(c *Config) string { return c.Storage.PostgresDSN },
		set: func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
	},
	"event_stream.brokers": {
		get: func(c *Config) string { return c.EventStream.Brokers },
		set: func(c *Config, v string) error { c.EventStream.Brokers = v; return nil },
	},
	"event_stream.topic": {
		get: func(c *Config) string { return c.EventStream.Topic },
		set: func(c *Config, v string) error { c.EventStream.Topic = v; return nil },
	},
	"mock.listen": {
		get: func(c *Config) string { return c.Mock.Listen },
		set: func(c *Config, v string) error { c.Mock.Listen = v; return nil },
	},
}
