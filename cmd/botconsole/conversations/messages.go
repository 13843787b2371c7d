package conversationscmder

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/botconsole/pkg/cliui"
)

var (
	userLabel  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you")
	agentLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("agent")
)

const messagesLongDesc string = `Show the messages of a conversation.

Agent responses are rendered as markdown.

Examples:
  botconsole conversations messages 345`

func newMessagesCmd(cmder *conversationsCommander) *cobra.Command {
	return &cobra.Command{
		Use:   "messages <conversation-id>",
		Short: "Show the messages of a conversation",
		Long:  messagesLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid conversation id %q: %w", args[0], err)
			}
			return cmder.runMessages(cmd, id)
		},
	}
}

func (c *conversationsCommander) runMessages(cmd *cobra.Command, conversationID int64) error {
	s, err := c.open(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Store.LoadMessages(cmd.Context(), conversationID); err != nil {
		return fmt.Errorf("loading messages: %w", err)
	}

	messages := s.Store.Messages()
	if len(messages) == 0 {
		fmt.Fprintf(c.out, "  %s\n", cliui.DimStyle.Render("No messages in this conversation."))
		return nil
	}

	width := cliui.Width(os.Stdout)
	for _, m := range messages {
		stamp := cliui.DimStyle.Render(m.CreatedAt.Local().Format("2006-01-02 15:04"))
		fmt.Fprintf(c.out, "\n  %s %s\n  %s\n", userLabel, stamp, m.UserMessage)

		rendered, err := cliui.RenderMarkdownWidth(m.BotResponse, width)
		if err != nil {
			c.logger.Debug("markdown rendering failed", "error", err)
		}
		fmt.Fprintf(c.out, "\n  %s\n%s", agentLabel, rendered)
	}
	fmt.Fprintln(c.out)

	return nil
}
