// Package session wires the clients, conversation store and transcript
// pipeline that the interactive commands share.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/botconsole/pkg/chatstream"
	"github.com/papercomputeco/botconsole/pkg/config"
	"github.com/papercomputeco/botconsole/pkg/conversation"
	"github.com/papercomputeco/botconsole/pkg/eventstream"
	"github.com/papercomputeco/botconsole/pkg/eventstream/kafka"
	"github.com/papercomputeco/botconsole/pkg/eventstream/nop"
	"github.com/papercomputeco/botconsole/pkg/notify"
	"github.com/papercomputeco/botconsole/pkg/platform"
	"github.com/papercomputeco/botconsole/pkg/storage"
	"github.com/papercomputeco/botconsole/pkg/storage/inmemory"
	"github.com/papercomputeco/botconsole/pkg/storage/postgres"
	"github.com/papercomputeco/botconsole/pkg/storage/sqlite"
	"github.com/papercomputeco/botconsole/pkg/worker"
)

// ErrNoBaseURL is returned when no platform base URL is configured.
var ErrNoBaseURL = errors.New("platform base URL is not configured; pass --base-url or run: botconsole config set platform.base_url <url>")

// LoadConfig resolves the effective configuration for cmd: flags registered
// from the given sets, then BOTCONSOLE_* environment variables, then
// config.toml, then defaults.
func LoadConfig(cmd *cobra.Command, sets ...config.FlagSet) (*config.Config, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, err
	}

	for _, fs := range sets {
		keys := make([]string, 0, len(fs))
		for k := range fs {
			keys = append(keys, k)
		}
		config.BindRegisteredFlags(v, cmd, fs, keys)
	}

	return config.FromViper(v), nil
}

// Options tune what New builds.
type Options struct {
	// Persist enables the transcript worker pool. Without a configured SQLite
	// path or Postgres DSN turns are kept in memory for the process lifetime.
	Persist bool
}

// Session is everything a chat command needs for one agent.
type Session struct {
	Store *conversation.Store
	Bus   *notify.Bus

	// Driver and Pool are nil unless Options.Persist was set.
	Driver    storage.Driver
	Publisher eventstream.Publisher
	Pool      *worker.Pool

	logger *slog.Logger

	mu   sync.Mutex
	cfg  *config.Config
	plat *platform.Client
}

// New builds a Session from cfg.
func New(ctx context.Context, cfg *config.Config, opts Options, log *slog.Logger) (*Session, error) {
	if cfg.Platform.BaseURL == "" {
		return nil, ErrNoBaseURL
	}

	s := &Session{
		Bus:    notify.NewBus(log),
		logger: log,
		cfg:    cfg,
	}

	plat, err := platform.NewClient(platform.Config{
		BaseURL:       cfg.Platform.BaseURL,
		SessionCookie: cfg.Platform.SessionCookie,
	}, log)
	if err != nil {
		return nil, err
	}
	s.plat = plat

	s.Store = conversation.New(conversation.Config{
		Streamer: newStreamer(cfg, log),
		Platform: plat,
		Notifier: s.Bus,
		Logger:   log,
	})
	s.Store.SetAgent(cfg.Chat.AgentToken)

	if opts.Persist {
		if err := s.startPipeline(ctx, cfg); err != nil {
			_ = s.Close()
			return nil, err
		}
	}

	return s, nil
}

func newStreamer(cfg *config.Config, log *slog.Logger) *chatstream.Client {
	return chatstream.NewClient(chatstream.Config{
		BaseURL:       cfg.Platform.BaseURL,
		SessionCookie: cfg.Platform.SessionCookie,
	}, log)
}

func (s *Session) startPipeline(ctx context.Context, cfg *config.Config) error {
	driver, err := OpenDriver(ctx, cfg.Storage, s.logger)
	if err != nil {
		return err
	}
	s.Driver = driver

	publisher, err := OpenPublisher(cfg.EventStream, s.logger)
	if err != nil {
		return err
	}
	s.Publisher = publisher

	host, _ := os.Hostname()
	pool, err := worker.NewPool(&worker.Config{
		Driver:    driver,
		Publisher: publisher,
		Source:    eventstream.EventSource{Platform: cfg.Platform.BaseURL, Host: host},
		Logger:    s.logger,
	})
	if err != nil {
		return fmt.Errorf("creating worker pool: %w", err)
	}
	s.Pool = pool

	s.Store.OnTurn(func(turn conversation.Turn) {
		if !s.Pool.Enqueue(worker.Job{Turn: ToStorage(turn)}) {
			s.logger.Warn("transcript queue full, turn dropped", "turn_id", turn.ID)
		}
	})

	return nil
}

// Config returns the configuration the session currently runs with.
func (s *Session) Config() *config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// ResolveAgent makes sure the store has an agent token. When only a numeric
// agent id is configured the token is looked up on the platform.
func (s *Session) ResolveAgent(ctx context.Context) (string, error) {
	if token := s.Store.AgentToken(); token != "" {
		return token, nil
	}

	s.mu.Lock()
	id := s.cfg.Chat.AgentID
	plat := s.plat
	s.mu.Unlock()

	if id == 0 {
		return "", conversation.ErrMissingAgent
	}

	agent, err := plat.Agent(ctx, id)
	if err != nil {
		return "", fmt.Errorf("resolving agent %d: %w", id, err)
	}
	if agent.ULID == "" {
		return "", fmt.Errorf("agent %d has no token", id)
	}

	s.Store.SetAgent(agent.ULID)
	s.logger.Debug("resolved agent", "agent_id", id, "agent", agent.ULID, "name", agent.Name)
	return agent.ULID, nil
}

// Reconfigure applies a reloaded configuration. A changed base URL or session
// cookie swaps in new clients and a changed agent token redirects the next
// message. Storage and event stream settings only apply on restart.
// It reports whether anything changed.
func (s *Session) Reconfigure(cfg *config.Config) bool {
	s.mu.Lock()
	prev := s.cfg
	s.cfg = cfg
	s.mu.Unlock()

	changed := false
	if cfg.Platform != prev.Platform && cfg.Platform.BaseURL != "" {
		plat, err := platform.NewClient(platform.Config{
			BaseURL:       cfg.Platform.BaseURL,
			SessionCookie: cfg.Platform.SessionCookie,
		}, s.logger)
		if err != nil {
			s.logger.Warn("ignoring platform settings", "error", err)
		} else {
			s.mu.Lock()
			s.plat = plat
			s.mu.Unlock()
			s.Store.SetStreamer(newStreamer(cfg, s.logger))
			s.Store.SetPlatform(plat)
			s.logger.Info("platform settings reloaded", "base_url", cfg.Platform.BaseURL)
			changed = true
		}
	}

	if cfg.Chat.AgentToken != prev.Chat.AgentToken && cfg.Chat.AgentToken != "" {
		s.Store.SetAgent(cfg.Chat.AgentToken)
		s.logger.Info("agent changed", "agent", cfg.Chat.AgentToken)
		changed = true
	}

	return changed
}

// Flush waits until every finished turn handed to the pipeline so far is
// stored. It is a no-op without a pipeline.
func (s *Session) Flush(ctx context.Context) error {
	if s.Pool == nil {
		return nil
	}
	return s.Pool.Flush(ctx)
}

// Close drains the transcript pipeline and releases its resources.
func (s *Session) Close() error {
	if s.Pool != nil {
		s.Pool.Close()
	}

	var errs []error
	if s.Publisher != nil {
		errs = append(errs, s.Publisher.Close())
	}
	if s.Driver != nil {
		errs = append(errs, s.Driver.Close())
	}
	return errors.Join(errs...)
}

// OpenDriver picks the transcript store: SQLite when a path is set, else
// Postgres when a DSN is set, else memory.
func OpenDriver(ctx context.Context, c config.StorageConfig, log *slog.Logger) (storage.Driver, error) {
	switch {
	case c.SQLitePath != "":
		driver, err := sqlite.NewDriver(ctx, c.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite driver: %w", err)
		}
		log.Debug("using SQLite storage", "path", c.SQLitePath)
		return driver, nil

	case c.PostgresDSN != "":
		driver, err := postgres.NewDriver(ctx, c.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create Postgres driver: %w", err)
		}
		log.Debug("using Postgres storage")
		return driver, nil

	default:
		log.Debug("using in-memory storage")
		return inmemory.NewDriver(), nil
	}
}

// OpenPublisher returns a Kafka publisher when brokers are configured and a
// nop publisher otherwise.
func OpenPublisher(c config.EventStreamConfig, log *slog.Logger) (eventstream.Publisher, error) {
	brokers := kafka.ParseBrokers(c.Brokers)
	if len(brokers) == 0 {
		return nop.NewPublisher(), nil
	}

	publisher, err := kafka.NewPublisher(kafka.Config{Brokers: brokers, Topic: c.Topic}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
	}
	log.Debug("publishing turns to kafka", "brokers", brokers, "topic", c.Topic)
	return publisher, nil
}

// ToStorage converts a finished exchange into its stored form.
func ToStorage(t conversation.Turn) *storage.Turn {
	return &storage.Turn{
		ID:             t.ID,
		AgentToken:     t.AgentToken,
		ConversationID: t.ConversationID,
		Question:       t.Question,
		Answer:         t.Answer,
		Outcome:        t.Outcome,
		Error:          t.Error,
		StartedAt:      t.StartedAt,
		FinishedAt:     t.FinishedAt,
	}
}
