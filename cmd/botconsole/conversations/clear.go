package conversationscmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/botconsole/pkg/cliui"
)

const clearLongDesc string = `Clear the agent's playground conversation on the platform.

Examples:
  botconsole conversations clear --agent-id 12`

func newClearCmd(cmder *conversationsCommander) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the playground conversation",
		Long:  clearLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.runClear(cmd)
		},
	}
}

func (c *conversationsCommander) runClear(cmd *cobra.Command) error {
	agentID, err := c.agentID()
	if err != nil {
		return err
	}

	s, err := c.open(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	var msg string
	err = cliui.Step(c.out, "Clearing playground conversation", func() error {
		if _, err := s.Store.LoadPlayground(cmd.Context(), agentID); err != nil {
			return fmt.Errorf("loading playground: %w", err)
		}

		msg, err = s.Store.Clear(cmd.Context())
		if err != nil {
			return fmt.Errorf("%s: %w", msg, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "  %s\n", msg)
	return nil
}
