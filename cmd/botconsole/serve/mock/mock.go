// Package mockcmder provides the cobra command that runs the mock chatbot
// platform.
package mockcmder

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/botconsole/mock"
	"github.com/papercomputeco/botconsole/pkg/config"
	"github.com/papercomputeco/botconsole/pkg/logger"
)

type mockCommander struct {
	listen        string
	answer        string
	wordDelay     time.Duration
	requireCookie string
	debug         bool
	logFormat     string
	logFile       string
	logOut        io.Closer

	logger *slog.Logger
}

const mockLongDesc string = `Run a mock chatbot platform.

The mock streams a canned answer word by word in the platform's stream
format and serves the conversation endpoints from memory. Point botconsole
at it with --base-url and chat with the agent token it logs on startup.

Special agent tokens exercise the failure paths:
  missing-key    replies with a missing_api_key event
  error          fails half way through the answer

Logs are JSON on stdout unless --log-format says otherwise. --log-file
copies them to a file as well.

Examples:
  botconsole serve mock
  botconsole serve mock --listen :9000 --word-delay 50ms
  botconsole serve mock --log-format pretty --log-file mock.log`

const mockShortDesc string = "Run a mock chatbot platform"

func NewMockCmd() *cobra.Command {
	cmder := &mockCommander{}

	cmd := &cobra.Command{
		Use:   "mock",
		Short: mockShortDesc,
		Long:  mockLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.MockFlags, []string{config.FlagMockListen})
			cmder.listen = config.FromViper(v).Mock.Listen
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			if err := cmder.setupLogger(); err != nil {
				return err
			}
			if cmder.logOut != nil {
				defer cmder.logOut.Close()
			}
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.MockFlags, config.FlagMockListen, &cmder.listen)
	cmd.Flags().StringVar(&cmder.answer, "answer", "", "Text appended to every streamed reply")
	cmd.Flags().DurationVar(&cmder.wordDelay, "word-delay", 30*time.Millisecond, "Delay between streamed words")
	cmd.Flags().StringVar(&cmder.requireCookie, "require-cookie", "", "Reject requests whose Cookie header lacks this value")
	cmd.Flags().StringVar(&cmder.logFormat, "log-format", string(logger.FormatJSON), "Log format: text, pretty or json")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append logs to this file")

	return cmd
}

// setupLogger builds the server logger. Debug runs also record the source
// location of each line.
func (c *mockCommander) setupLogger() error {
	format, err := logger.ParseFormat(c.logFormat)
	if err != nil {
		return err
	}

	writers := []io.Writer{os.Stdout}
	if c.logFile != "" {
		f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		writers = append(writers, f)
		c.logOut = f
	}

	c.logger = logger.New(
		logger.WithFormat(format),
		logger.WithDebug(c.debug),
		logger.WithSource(c.debug),
		logger.WithWriter(writers...),
	)
	return nil
}

func (c *mockCommander) run() error {
	server := mock.NewServer(mock.Config{
		ListenAddr:    c.listen,
		Answer:        c.answer,
		WordDelay:     c.wordDelay,
		RequireCookie: c.requireCookie,
	}, c.logger)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("mock server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}
