// Package configcmder provides the config command for managing persistent
// botconsole configuration stored in the .botconsole/ directory.
package configcmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/botconsole/pkg/config"
)

const configLongDesc string = `Manage persistent botconsole configuration.

Configuration is stored as config.toml in the .botconsole/ directory and
provides default values for command flags. CLI flags and BOTCONSOLE_*
environment variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  platform.base_url, platform.session_cookie,
  chat.agent_token, chat.agent_id,
  storage.sqlite_path, storage.postgres_dsn,
  event_stream.brokers, event_stream.topic,
  mock.listen

Use subcommands to get, set, or list configuration values:
  botconsole config set <key> <value>    Set a configuration value
  botconsole config get <key>            Get a configuration value
  botconsole config list                 List all configuration values

Examples:
  botconsole config set platform.base_url http://chatbot_platform.test
  botconsole config set chat.agent_token 01HXAGENT
  botconsole config get chat.agent_token
  botconsole config list`

const configShortDesc string = "Manage persistent botconsole configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}
