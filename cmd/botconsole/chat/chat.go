// Package chatcmder provides the chat command: an interactive session with a
// chatbot platform agent.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/botconsole/cmd/botconsole/session"
	"github.com/papercomputeco/botconsole/pkg/chatstream"
	"github.com/papercomputeco/botconsole/pkg/cliui"
	"github.com/papercomputeco/botconsole/pkg/config"
	"github.com/papercomputeco/botconsole/pkg/conversation"
	"github.com/papercomputeco/botconsole/pkg/dotdir"
	"github.com/papercomputeco/botconsole/pkg/logger"
	"github.com/papercomputeco/botconsole/pkg/notify"
	"github.com/papercomputeco/botconsole/pkg/utils"
)

var (
	userPrompt  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	agentPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("agent> ")
)

const historyLimit = 10

type chatCommander struct {
	flags     session.Flags
	logFile   string
	debug     bool
	configDir string

	cfg         *config.Config
	reload      func() (*config.Config, error)
	in          io.Reader
	out         io.Writer
	errOut      io.Writer
	interactive bool
	logger      *slog.Logger
	notices     *notify.Store
}

const chatLongDesc string = `Start an interactive chat session with an agent.

Each message is streamed to the agent and the answer is printed as it
arrives. Press Ctrl+C while an answer streams to stop it.

When an agent id is configured the agent's playground conversation is loaded
first. Without any agent settings the agent of the previous session is used.

Finished turns are recorded to the configured storage (SQLite, Postgres, or
memory) and published to Kafka when brokers are configured. Changes to the
platform or chat settings in config.toml apply without a restart, so a
rotated session cookie can be dropped in with "botconsole config set".

Commands inside the session:
  /history    Recent turns recorded by this console
  /notices    Notifications raised so far in this session
  /clear      Clear the playground conversation on the platform
  /help       Show these commands
  /exit       Leave (Ctrl+D works too)

Examples:
  botconsole chat
  botconsole chat --agent 01HXAGENT --base-url http://localhost:8090
  botconsole chat --agent-id 12 --sqlite ./turns.db --log-file chat.log`

const chatShortDesc string = "Interactive chat with an agent"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{notices: notify.NewStore()}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.reload = func() (*config.Config, error) {
				return session.LoadConfig(cmd, config.ClientFlags, config.TranscriptFlags)
			}

			var err error
			cmder.cfg, err = cmder.reload()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmd.SilenceUsage = true

			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			cmder.errOut = cmd.ErrOrStderr()
			cmder.interactive = cmder.in == os.Stdin && cliui.IsTerminal(os.Stdin)

			closeLog, err := cmder.setupLogger()
			if err != nil {
				return err
			}
			defer closeLog()

			return cmder.run(cmd.Context())
		},
	}

	cmder.flags.AddClient(cmd)
	cmder.flags.AddTranscript(cmd)
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")

	return cmd
}

// setupLogger logs to stderr and, with --log-file, to a JSON file as well.
func (c *chatCommander) setupLogger() (func(), error) {
	cli := logger.NewCLI(c.debug)
	if c.logFile == "" {
		c.logger = cli
		return func() {}, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	file := logger.New(
		logger.WithFormat(logger.FormatJSON),
		logger.WithDebug(c.debug),
		logger.WithWriter(f),
	)
	c.logger = logger.Multi(cli, file)

	return func() { _ = f.Close() }, nil
}

func (c *chatCommander) run(ctx context.Context) error {
	ddm := dotdir.NewManager()
	c.applySavedSession(ddm)

	s, err := session.New(ctx, c.cfg, session.Options{Persist: true}, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			c.logger.Warn("closing session", "error", err)
		}
	}()

	token, err := s.ResolveAgent(ctx)
	if err != nil {
		if errors.Is(err, conversation.ErrMissingAgent) {
			return errors.New("no agent configured; pass --agent or --agent-id, or run: botconsole config set chat.agent_token <token>")
		}
		return err
	}

	conversationID := c.loadPlayground(ctx, s)

	if err := ddm.SaveSession(&dotdir.SessionState{
		AgentToken:     token,
		AgentID:        c.cfg.Chat.AgentID,
		ConversationID: conversationID,
	}, c.configDir); err != nil {
		c.logger.Warn("could not save session state", "error", err)
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go c.watchConfig(watchCtx, s)

	printer := session.NewPrinter(c.out, c.errOut)
	defer s.Bus.Subscribe(printer.OnToast)()
	defer s.Bus.Subscribe(c.notices.Notify)()
	defer s.Store.Subscribe(printer.OnChange)()

	fmt.Fprintf(c.out, "\n  %s %s\n", cliui.KeyStyle.Render("Agent:"), cliui.NameStyle.Render(token))
	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /help for commands, /exit or Ctrl+D to quit."))

	return c.loop(ctx, s)
}

// applySavedSession falls back to the agent of the previous session when no
// agent is configured.
func (c *chatCommander) applySavedSession(ddm *dotdir.Manager) {
	if c.cfg.Chat.AgentToken != "" || c.cfg.Chat.AgentID != 0 {
		return
	}

	state, err := ddm.LoadSessionState(c.configDir)
	if err != nil {
		c.logger.Warn("could not load session state", "error", err)
		return
	}
	if state == nil {
		return
	}

	c.cfg.Chat.AgentToken = state.AgentToken
	c.cfg.Chat.AgentID = state.AgentID
	c.logger.Debug("resuming previous session", "agent", state.AgentToken, "agent_id", state.AgentID)
}

// loadPlayground makes the agent's playground conversation current and shows
// how many messages it holds. Failures are not fatal: chatting still works.
func (c *chatCommander) loadPlayground(ctx context.Context, s *session.Session) int64 {
	if c.cfg.Chat.AgentID == 0 {
		return 0
	}

	conv, err := s.Store.LoadPlayground(ctx, c.cfg.Chat.AgentID)
	if err != nil || conv == nil {
		c.logger.Warn("could not load playground conversation", "agent_id", c.cfg.Chat.AgentID, "error", err)
		return 0
	}

	if err := s.Store.LoadMessages(ctx, conv.ID); err != nil {
		c.logger.Warn("could not load conversation messages", "conversation_id", conv.ID, "error", err)
		return conv.ID
	}

	fmt.Fprintf(c.out, "\n  %s Playground conversation %s %s\n",
		cliui.SuccessMark,
		cliui.IDStyle.Render(fmt.Sprintf("#%d", conv.ID)),
		cliui.DimStyle.Render(fmt.Sprintf("(%d messages)", len(s.Store.Messages()))),
	)
	return conv.ID
}

func (c *chatCommander) watchConfig(ctx context.Context, s *session.Session) {
	cfger, err := config.NewConfiger(c.configDir)
	if err != nil || cfger.GetTarget() == "" {
		c.logger.Debug("config watch disabled", "error", err)
		return
	}

	err = cfger.Watch(ctx, func(*config.Config) {
		// Re-resolve so flags and environment keep their precedence.
		cfg, err := c.reload()
		if err != nil {
			c.logger.Warn("reloading config", "error", err)
			return
		}
		if s.Reconfigure(cfg) {
			fmt.Fprintf(c.errOut, "\n  %s %s\n", cliui.InfoMark, cliui.DimStyle.Render("Configuration reloaded"))
		}
	}, func(err error) {
		c.logger.Warn("reloading config", "error", err)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Warn("config watch stopped", "error", err)
	}
}

func (c *chatCommander) loop(ctx context.Context, s *session.Session) error {
	scanner := bufio.NewScanner(c.in)

	for {
		if c.interactive {
			fmt.Fprint(c.out, userPrompt)
		}
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/help":
			c.printHelp()
		case "/clear":
			c.clear(ctx, s)
		case "/history":
			c.printHistory(ctx, s)
		case "/notices":
			c.printNotices()
		default:
			c.send(ctx, s, input)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(c.out)
	return nil
}

// send streams one answer. Ctrl+C cancels the stream, not the session.
func (c *chatCommander) send(ctx context.Context, s *session.Session, input string) {
	sendCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	fmt.Fprint(c.out, agentPrompt)
	if err := s.Store.SendMessage(sendCtx, input); err != nil {
		c.logger.Debug("exchange failed", "error", err)
	}
	fmt.Fprint(c.out, "\n\n")
}

func (c *chatCommander) clear(ctx context.Context, s *session.Session) {
	if _, err := s.Store.Clear(ctx); err != nil {
		if errors.Is(err, conversation.ErrNoConversation) {
			fmt.Fprintf(c.out, "  %s %s\n\n", cliui.WarnMark, "No active conversation found. Set an agent id to clear the playground.")
		}
		c.logger.Debug("clear failed", "error", err)
	}
}

func (c *chatCommander) printHistory(ctx context.Context, s *session.Session) {
	if err := s.Flush(ctx); err != nil {
		fmt.Fprintf(c.errOut, "  %s %v\n\n", cliui.FailMark, err)
		return
	}

	turns, err := s.Driver.ListTurns(ctx, s.Store.AgentToken(), historyLimit)
	if err != nil {
		fmt.Fprintf(c.errOut, "  %s %v\n\n", cliui.FailMark, err)
		return
	}
	if len(turns) == 0 {
		fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("No turns recorded yet."))
		return
	}

	fmt.Fprintln(c.out)
	for _, t := range turns {
		mark := cliui.SuccessMark
		if t.Outcome != string(chatstream.OutcomeCompleted) {
			mark = cliui.FailMark
		}
		fmt.Fprintf(c.out, "  %s %s %s\n      %s\n",
			mark,
			cliui.DimStyle.Render(t.FinishedAt.Local().Format("15:04:05")),
			cliui.Clip(utils.FirstLine(t.Question), 60),
			cliui.DimStyle.Render(cliui.Clip(utils.FirstLine(t.Answer), 72)),
		)
	}
	fmt.Fprintln(c.out)
}

// printNotices lists the notifications seen since the last call.
func (c *chatCommander) printNotices() {
	toasts := c.notices.Drain()
	if len(toasts) == 0 {
		fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("No notifications."))
		return
	}

	for _, t := range toasts {
		fmt.Fprintf(c.out, "  %s %s %s\n", cliui.ToastMark(string(t.Type)), cliui.KeyStyle.Render(t.Title+":"), t.Message)
	}
	fmt.Fprintln(c.out)
}

func (c *chatCommander) printHelp() {
	fmt.Fprintf(c.out, "\n  %s  recent turns\n  %s  notifications so far\n  %s    clear the playground conversation\n  %s     leave\n\n",
		cliui.KeyStyle.Render("/history"),
		cliui.KeyStyle.Render("/notices"),
		cliui.KeyStyle.Render("/clear"),
		cliui.KeyStyle.Render("/exit"),
	)
}
