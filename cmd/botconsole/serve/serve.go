// Package servecmder provides the serve command with subcommands for running
// local services.
package servecmder

import (
	"github.com/spf13/cobra"

	mockcmder "github.com/papercomputeco/botconsole/cmd/botconsole/serve/mock"
)

const serveLongDesc string = `Run local botconsole services.

Available services:
  botconsole serve mock    Run a mock chatbot platform for local development`

const serveShortDesc string = "Run local botconsole services"

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
	}

	cmd.AddCommand(mockcmder.NewMockCmd())

	return cmd
}
