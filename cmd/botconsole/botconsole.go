// Package botconsolecmder
package botconsolecmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/botconsole/cmd/botconsole/ask"
	chatcmder "github.com/papercomputeco/botconsole/cmd/botconsole/chat"
	configcmder "github.com/papercomputeco/botconsole/cmd/botconsole/config"
	conversationscmder "github.com/papercomputeco/botconsole/cmd/botconsole/conversations"
	historycmder "github.com/papercomputeco/botconsole/cmd/botconsole/history"
	servecmder "github.com/papercomputeco/botconsole/cmd/botconsole/serve"
	versioncmder "github.com/papercomputeco/botconsole/cmd/version"
)

const botconsoleLongDesc string = `botconsole is a terminal console for chatbot platform agents.

Chat with an agent and watch its answers stream in:
  botconsole chat                     Interactive chat session
  botconsole ask "question"           Ask a single question
  botconsole conversations list       Recent conversations with the agent
  botconsole history                  Turns recorded by this console
  botconsole serve mock               Run a mock platform locally

Settings come from flags, BOTCONSOLE_* environment variables and
.botconsole/config.toml, in that order.`

const botconsoleShortDesc string = "botconsole - chatbot platform console"

func NewBotconsoleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "botconsole",
		Short: botconsoleShortDesc,
		Long:  botconsoleLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .botconsole/ config directory")

	// Add subcommands
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(conversationscmder.NewConversationsCmd())
	cmd.AddCommand(historycmder.NewHistoryCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
