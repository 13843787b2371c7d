// Package askcmder provides the ask command: a single question streamed to
// the configured agent.
package askcmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/botconsole/cmd/botconsole/session"
	"github.com/papercomputeco/botconsole/pkg/cliui"
	"github.com/papercomputeco/botconsole/pkg/config"
	"github.com/papercomputeco/botconsole/pkg/logger"
)

type askCommander struct {
	flags  session.Flags
	render bool
	debug  bool

	cfg    *config.Config
	out    io.Writer
	errOut io.Writer
	logger *slog.Logger
}

const askLongDesc string = `Ask the configured agent a single question.

The answer is printed as it streams in. With --render the complete answer is
rendered as markdown once the stream ends instead. The command exits non-zero
when the stream fails; errors the agent reports mid-answer are printed but do
not fail the command.

When storage or an event stream is configured the exchange is recorded like
a chat turn.

Examples:
  botconsole ask "What are your opening hours?"
  botconsole ask --agent 01HXAGENT --base-url http://localhost:8090 hello
  botconsole ask --render "Summarize the refund policy"`

const askShortDesc string = "Ask the agent a single question"

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
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
			cmder.errOut = cmd.ErrOrStderr()
			cmder.logger = logger.NewCLI(cmder.debug)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return cmder.run(ctx, strings.Join(args, " "))
		},
	}

	cmder.flags.AddClient(cmd)
	cmder.flags.AddTranscript(cmd)
	cmd.Flags().BoolVarP(&cmder.render, "render", "r", false, "Render the complete answer as markdown")

	return cmd
}

func (c *askCommander) run(ctx context.Context, question string) error {
	s, err := session.New(ctx, c.cfg, session.Options{Persist: session.Persisting(c.cfg)}, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			c.logger.Warn("closing session", "error", err)
		}
	}()

	if _, err := s.ResolveAgent(ctx); err != nil {
		return err
	}

	printer := session.NewPrinter(c.out, c.errOut)
	defer s.Bus.Subscribe(printer.OnToast)()
	if !c.render {
		defer s.Store.Subscribe(printer.OnChange)()
	}

	sendErr := s.Store.SendMessage(ctx, question)

	if c.render {
		c.printRendered(s)
	} else {
		fmt.Fprintln(c.out)
	}

	return sendErr
}

func (c *askCommander) printRendered(s *session.Session) {
	messages := s.Store.Messages()
	if len(messages) == 0 || !messages[len(messages)-1].Bot {
		return
	}

	answer := messages[len(messages)-1].BotResponse
	rendered, err := cliui.RenderMarkdownWidth(answer, cliui.Width(os.Stdout))
	if err != nil {
		c.logger.Debug("markdown rendering failed", "error", err)
	}
	fmt.Fprint(c.out, rendered)
}
