// Package conversationscmder provides the conversations command for browsing
// and clearing an agent's conversations on the platform.
package conversationscmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/botconsole/cmd/botconsole/session"
	"github.com/papercomputeco/botconsole/pkg/config"
	"github.com/papercomputeco/botconsole/pkg/logger"
)

const conversationsLongDesc string = `Browse the agent's conversations on the platform.

Conversations are looked up by the numeric agent id (--agent-id or
chat.agent_id). Messages are rendered as markdown.

Examples:
  botconsole conversations list --agent-id 12
  botconsole conversations messages 345
  botconsole conversations clear --agent-id 12`

const conversationsShortDesc string = "Browse the agent's conversations"

// conversationsCommander is shared by the subcommands.
type conversationsCommander struct {
	flags session.Flags
	debug bool

	cfg    *config.Config
	out    io.Writer
	logger *slog.Logger
}

func NewConversationsCmd() *cobra.Command {
	cmder := &conversationsCommander{}

	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"conv"},
		Short:   conversationsShortDesc,
		Long:    conversationsLongDesc,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, err = session.LoadConfig(cmd, config.ClientFlags)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cmder.debug, _ = cmd.Flags().GetBool("debug")
			cmder.out = cmd.OutOrStdout()
			cmder.logger = logger.NewCLI(cmder.debug)
			cmd.SilenceUsage = true
			return nil
		},
	}

	for _, sub := range []*cobra.Command{
		newListCmd(cmder),
		newMessagesCmd(cmder),
		newClearCmd(cmder),
	} {
		cmder.flags.AddClient(sub)
		cmd.AddCommand(sub)
	}

	return cmd
}

func (c *conversationsCommander) open(ctx context.Context) (*session.Session, error) {
	return session.New(ctx, c.cfg, session.Options{}, c.logger)
}

func (c *conversationsCommander) agentID() (int64, error) {
	if c.cfg.Chat.AgentID == 0 {
		return 0, errors.New("no agent id configured; pass --agent-id or run: botconsole config set chat.agent_id <id>")
	}
	return c.cfg.Chat.AgentID, nil
}
