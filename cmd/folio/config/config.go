// Package configcmder provides the config command for managing persistent
// folio configuration stored in the .folio/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/folio/pkg/cliui"
	"github.com/papercomputeco/folio/pkg/config"
)

const configLongDesc string = `Manage persistent folio configuration.

Configuration is stored as config.toml in the .folio/ directory and provides
default values for command flags. FOLIO_* environment variables override the
file, and CLI flags override both.

Keys use dotted notation matching the TOML section structure:
  client.api_target, client.timeout,
  chat.context_file, chat.record, chat.record_dir,
  replay.listen, replay.tape, replay.chunk_size, replay.chunk_delay,
  events.provider, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  folio config set <key> <value>    Set a configuration value
  folio config get <key>            Get a configuration value
  folio config list                 List all configuration values

Examples:
  folio config set client.api_target https://advisor.example.com/api/v1
  folio config set events.brokers broker-1:9092,broker-2:9092
  folio config get client.timeout
  folio config list`

const configShortDesc string = "Manage persistent folio configuration"

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

// completeKeys completes the first argument with config keys.
func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func checkKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func printTarget(w io.Writer, cfger *config.Configer) {
	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}
