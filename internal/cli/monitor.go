package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/richinsley/cmfy/client"
	"github.com/richinsley/cmfy/internal/monitor"
	"github.com/richinsley/cmfy/internal/progress"
)

func newMonitorCommand(a *app) *cobra.Command {
	var timeout time.Duration
	var retries int

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Display live progress of queued prompts",
		Long: `Display live progress of queued prompts.

Shows one progress bar per prompt in history or queue, updated from the
server's event stream and by polling whenever the stream stays quiet for
--timeout. Stops when the server closes the stream or on Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := client.NewComfyClient(a.cfg.Hostname, a.cfg.Port,
				client.WithClientID(a.client.ClientID()),
				client.WithWebSocketRetry(retries, time.Second, 30*time.Second),
			)
			if err != nil {
				return err
			}

			stream, err := c.Listen(ctx)
			if err != nil {
				return err
			}
			defer stream.Close()

			multi := progress.New(cmd.ErrOrStderr())
			defer multi.Close()

			err = monitor.New(c, multi, monitor.WithTimeout(timeout)).Run(ctx, stream)
			if canceled(ctx, err) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().DurationVarP(&timeout, "timeout", "t", monitor.DefaultTimeout, "poll the server when no event arrived for this long")
	cmd.Flags().IntVar(&retries, "connect-retries", 3, "websocket connection attempts to retry")
	return cmd
}
