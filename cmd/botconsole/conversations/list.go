package conversationscmder

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/botconsole/pkg/cliui"
)

const listLongDesc string = `List the most recent conversations with the agent.

Examples:
  botconsole conversations list --agent-id 12`

func newListCmd(cmder *conversationsCommander) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recent conversations",
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.runList(cmd)
		},
	}
}

func (c *conversationsCommander) runList(cmd *cobra.Command) error {
	agentID, err := c.agentID()
	if err != nil {
		return err
	}

	s, err := c.open(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	conversations, err := s.Store.LoadConversations(cmd.Context(), agentID)
	if err != nil {
		return fmt.Errorf("listing conversations: %w", err)
	}

	if len(conversations) == 0 {
		fmt.Fprintf(c.out, "  %s\n", cliui.DimStyle.Render("No conversations yet."))
		return nil
	}

	fmt.Fprintln(c.out)
	for _, conv := range conversations {
		fmt.Fprintf(c.out, "  %s  %s  %s  %s\n",
			cliui.IDStyle.Render(fmt.Sprintf("#%-6s", strconv.FormatInt(conv.ID, 10))),
			cliui.NameStyle.Render(cliui.Clip(conv.UserIdentifier, 24)),
			cliui.DimStyle.Render(conv.UpdatedAt),
			cliui.DimStyle.Render(fmt.Sprintf("%d messages", len(conv.Chats))),
		)
	}
	fmt.Fprintln(c.out)

	return nil
}
