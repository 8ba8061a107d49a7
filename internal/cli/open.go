package cli

import (
	"github.com/spf13/cobra"
)

func newOpenCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open",
		Short: "Open ComfyUI in a web browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.openURL(cmd.Context(), a.client.BaseURL())
		},
	}
}
