package cli

import (
	"github.com/spf13/cobra"

	"github.com/richinsley/cmfy/client"
)

func newCancelCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the currently running prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.client.CancelRunningPrompt(cmd.Context())
		},
	}
}

func newClearCommand(a *app) *cobra.Command {
	opts := client.DefaultClearOptions()

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the queue, cancel the running prompt and clear the history",
		Long: `Clear the queue, cancel the running prompt and clear the history.

With --wait (the default) the history is only cleared once the server
reports an empty queue, polling every --retry for at most --timeout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.client.ClearAll(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Wait, "wait", "w", opts.Wait, "wait for the queue to drain before clearing history")
	cmd.Flags().DurationVarP(&opts.Timeout, "timeout", "t", opts.Timeout, "maximum time to wait (with --wait)")
	cmd.Flags().DurationVarP(&opts.Retry, "retry", "r", opts.Retry, "time between queue polls (with --wait)")
	return cmd
}
