package cli

import (
	"github.com/spf13/cobra"
)

func newStatsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Display basic statistics about client and server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := a.client.SystemStats(cmd.Context())
			if err != nil {
				return err
			}
			renderStats(cmd.OutOrStdout(), clientInfo{
				Name:     name,
				Version:  version,
				ClientID: a.client.ClientID(),
				URL:      a.client.BaseURL(),
			}, stats)
			return nil
		},
	}
}
