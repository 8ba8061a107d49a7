package cli

import (
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/richinsley/cmfy/internal/xjson"
)

func newListenCommand(a *app) *cobra.Command {
	var pretty bool

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Print every websocket message from the server as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			stream, err := a.client.Listen(ctx)
			if err != nil {
				return err
			}
			defer stream.Close()

			out := cmd.OutOrStdout()
			for {
				var raw xjson.RawMessage
				err := stream.NextJSON(ctx, &raw)
				if errors.Is(err, io.EOF) || canceled(ctx, err) {
					return nil
				}
				if err != nil {
					return err
				}
				if err := writeRawJSON(out, raw, pretty); err != nil {
					return err
				}
			}
		},
	}

	cmd.Flags().BoolVar(&pretty, "pretty", false, "pretty print the JSON output")
	return cmd
}
