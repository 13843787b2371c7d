// Package historycmder provides the history command for reading the turns
// recorded by chat sessions.
package historycmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/botconsole/cmd/botconsole/session"
	"github.com/papercomputeco/botconsole/pkg/chatstream"
	"github.com/papercomputeco/botconsole/pkg/cliui"
	"github.com/papercomputeco/botconsole/pkg/config"
	"github.com/papercomputeco/botconsole/pkg/logger"
	"github.com/papercomputeco/botconsole/pkg/storage"
	"github.com/papercomputeco/botconsole/pkg/utils"
)

type historyCommander struct {
	flags session.Flags
	limit int
	all   bool
	debug bool

	cfg    *config.Config
	out    io.Writer
	logger *slog.Logger
}

const historyLongDesc string = `Show turns recorded by chat sessions.

Reads the configured transcript storage (--sqlite or --postgres). Without an
argument the most recent turns with the configured agent are listed, newest
first; --all lists every agent. With a turn id the full exchange is shown.

Examples:
  botconsole history --sqlite ./turns.db
  botconsole history --all --limit 50
  botconsole history 2b4f0c1e-8d7e-4d53-9a53-6f1f3f0f6a01`

const historyShortDesc string = "Show recorded chat turns"

func NewHistoryCmd() *cobra.Command {
	cmder := &historyCommander{}

	cmd := &cobra.Command{
		Use:   "history [turn-id]",
		Short: historyShortDesc,
		Long:  historyLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, err = session.LoadConfig(cmd, config.ClientFlags, config.TranscriptFlags)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmd.SilenceUsage = true
			cmder.out = cmd.OutOrStdout()
			cmder.logger = logger.NewCLI(cmder.debug)

			if len(args) == 1 {
				return cmder.runShow(cmd.Context(), args[0])
			}
			return cmder.runList(cmd.Context())
		},
	}

	cmder.flags.AddClient(cmd)
	cmder.flags.AddTranscript(cmd)
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", 20, "Maximum number of turns to list")
	cmd.Flags().BoolVar(&cmder.all, "all", false, "List turns of every agent")

	return cmd
}

func (c *historyCommander) openDriver(ctx context.Context) (storage.Driver, error) {
	if c.cfg.Storage.SQLitePath == "" && c.cfg.Storage.PostgresDSN == "" {
		return nil, errors.New("no transcript storage configured; pass --sqlite or --postgres")
	}
	return session.OpenDriver(ctx, c.cfg.Storage, c.logger)
}

func (c *historyCommander) runList(ctx context.Context) error {
	driver, err := c.openDriver(ctx)
	if err != nil {
		return err
	}
	defer driver.Close()

	agent := c.cfg.Chat.AgentToken
	if c.all {
		agent = ""
	}

	turns, err := driver.ListTurns(ctx, agent, c.limit)
	if err != nil {
		return fmt.Errorf("listing turns: %w", err)
	}

	if len(turns) == 0 {
		fmt.Fprintf(c.out, "  %s\n", cliui.DimStyle.Render("No turns recorded."))
		return nil
	}

	fmt.Fprintln(c.out)
	for _, t := range turns {
		fmt.Fprintf(c.out, "  %s %s %s %s\n      %s\n",
			outcomeMark(t),
			cliui.IDStyle.Render(utils.Truncate(t.ID, 8)),
			cliui.DimStyle.Render(t.FinishedAt.Local().Format("2006-01-02 15:04:05")),
			cliui.Clip(utils.FirstLine(t.Question), 60),
			cliui.DimStyle.Render(cliui.Clip(utils.FirstLine(t.Answer), 72)),
		)
	}
	fmt.Fprintln(c.out)

	return nil
}

func (c *historyCommander) runShow(ctx context.Context, id string) error {
	driver, err := c.openDriver(ctx)
	if err != nil {
		return err
	}
	defer driver.Close()

	turn, err := driver.GetTurn(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "\n  %s %s\n", cliui.KeyStyle.Render("Turn:    "), cliui.IDStyle.Render(turn.ID))
	fmt.Fprintf(c.out, "  %s %s\n", cliui.KeyStyle.Render("Agent:   "), cliui.NameStyle.Render(turn.AgentToken))
	fmt.Fprintf(c.out, "  %s %s %s\n", cliui.KeyStyle.Render("Outcome: "), outcomeMark(turn), turn.Outcome)
	fmt.Fprintf(c.out, "  %s %s\n",
		cliui.KeyStyle.Render("Duration:"),
		cliui.FormatDuration(turn.FinishedAt.Sub(turn.StartedAt)),
	)
	if turn.Error != "" {
		fmt.Fprintf(c.out, "  %s %s\n", cliui.KeyStyle.Render("Error:   "), turn.Error)
	}

	fmt.Fprintf(c.out, "\n  %s\n\n", turn.Question)

	rendered, err := cliui.RenderMarkdownWidth(turn.Answer, cliui.Width(os.Stdout))
	if err != nil {
		c.logger.Debug("markdown rendering failed", "error", err)
	}
	fmt.Fprint(c.out, rendered)

	return nil
}

func outcomeMark(t *storage.Turn) string {
	if t.Outcome == string(chatstream.OutcomeCompleted) {
		return cliui.SuccessMark
	}
	return cliui.FailMark
}
