package session

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/botconsole/pkg/config"
)

// Flags holds the registered client and transcript flag values. Commands read
// the effective values through LoadConfig, which layers them over the
// environment and config.toml.
type Flags struct {
	BaseURL       string
	SessionCookie string
	AgentToken    string
	AgentID       int64

	SQLitePath  string
	PostgresDSN string
	Brokers     string
	Topic       string
}

// AddClient registers the platform connection flags on cmd.
func (f *Flags) AddClient(cmd *cobra.Command) {
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagBaseURL, &f.BaseURL)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagSessionCookie, &f.SessionCookie)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagAgentToken, &f.AgentToken)
	config.AddInt64Flag(cmd, config.ClientFlags, config.FlagAgentID, &f.AgentID)
}

// AddTranscript registers the storage and event stream flags on cmd.
func (f *Flags) AddTranscript(cmd *cobra.Command) {
	config.AddStringFlag(cmd, config.TranscriptFlags, config.FlagSQLite, &f.SQLitePath)
	config.AddStringFlag(cmd, config.TranscriptFlags, config.FlagPostgres, &f.PostgresDSN)
	config.AddStringFlag(cmd, config.TranscriptFlags, config.FlagBrokers, &f.Brokers)
	config.AddStringFlag(cmd, config.TranscriptFlags, config.FlagTopic, &f.Topic)
}

// Persisting reports whether cfg names a transcript destination beyond the
// process memory.
func Persisting(cfg *config.Config) bool {
	return cfg.Storage.SQLitePath != "" || cfg.Storage.PostgresDSN != "" || cfg.EventStream.Brokers != ""
}
