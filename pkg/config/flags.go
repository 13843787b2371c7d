package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --agent
// on "botconsole chat", "botconsole ask" and "botconsole conversations").
type Flag struct {
	// Name is the long flag name (e.g. "base-url").
	Name string

	// Shorthand is the one-letter short flag (e.g. "a"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "chat.agent_token").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddInt64Flag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagBaseURL       = "base-url"
	FlagSessionCookie = "session-cookie"
	FlagAgentToken    = "agent"
	FlagAgentID       = "agent-id"
	FlagSQLite        = "sqlite"
	FlagPostgres      = "postgres"
	FlagBrokers       = "kafka-brokers"
	FlagTopic         = "kafka-topic"
	FlagMockListen    = "listen"
)

// ClientFlags are the flags shared by every command that talks to the platform.
var ClientFlags = FlagSet{
	FlagBaseURL: {
		Name:        "base-url",
		Shorthand:   "u",
		ViperKey:    "platform.base_url",
		Description: "Chatbot platform base URL",
	},
	FlagSessionCookie: {
		Name:        "session-cookie",
		ViperKey:    "platform.session_cookie",
		Description: "Session cookie sent verbatim with every request",
	},
	FlagAgentToken: {
		Name:        "agent",
		Shorthand:   "a",
		ViperKey:    "chat.agent_token",
		Description: "Agent token to chat with",
	},
	FlagAgentID: {
		Name:        "agent-id",
		ViperKey:    "chat.agent_id",
		Description: "Numeric agent id used by conversation endpoints",
	},
}

// TranscriptFlags configure where completed turns are persisted and published.
var TranscriptFlags = FlagSet{
	FlagSQLite: {
		Name:        "sqlite",
		Shorthand:   "s",
		ViperKey:    "storage.sqlite_path",
		Description: "Path to a SQLite database for transcripts",
	},
	FlagPostgres: {
		Name:        "postgres",
		ViperKey:    "storage.postgres_dsn",
		Description: "PostgreSQL DSN for transcripts",
	},
	FlagBrokers: {
		Name:        "kafka-brokers",
		ViperKey:    "event_stream.brokers",
		Description: "Comma separated Kafka brokers for turn events",
	},
	FlagTopic: {
		Name:        "kafka-topic",
		ViperKey:    "event_stream.topic",
		Description: "Kafka topic for turn events",
	},
}

// MockFlags configure the mock chatbot server.
var MockFlags = FlagSet{
	FlagMockListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "mock.listen",
		Description: "Address for the mock server to listen on",
	},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddInt64Flag registers an int64 flag on cmd from the given FlagSet.
func AddInt64Flag(cmd *cobra.Command, fs FlagSet, key string, target *int64) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultInt64(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().Int64VarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().Int64Var(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultInt64 returns the default int64 value for a viper key from NewDefaultConfig.
func defaultInt64(viperKey string) int64 {
	v := viper.New()
	setViperDefaults(v)
	return v.GetInt64(viperKey)
}
