// Package foliocmder is the root of the folio command tree.
package foliocmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/folio/cmd/folio/chat"
	configcmder "github.com/papercomputeco/folio/cmd/folio/config"
	replaycmder "github.com/papercomputeco/folio/cmd/folio/replay"
	versioncmder "github.com/papercomputeco/folio/cmd/version"
)

const folioLongDesc string = `Folio is a terminal client for the portfolio advisor chat.

Chat with the advisor, record its streamed answers, and replay them offline:
  folio chat              Start an interactive chat session
  folio replay <tape>     Serve a recorded answer stream at POST /chat
  folio config            Manage persistent configuration`

const folioShortDesc string = "Folio - portfolio advisor chat"

func NewFolioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "folio",
		Short:        folioShortDesc,
		Long:         folioLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .folio configuration directory")

	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(replaycmder.NewReplayCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
