package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newGetCommand(a *app) *cobra.Command {
	var output string
	var pretty bool

	cmd := &cobra.Command{
		Use:   "get ROUTE",
		Short: "Display the raw JSON output of a GET request",
		Long: `Display the raw JSON output of a GET request.

Performs a get request to the server and displays the raw JSON output,
e.g. 'cmfy get /object_info'. For the available routes, refer to
https://docs.comfy.org/essentials/comms_routes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := a.client.Get(cmd.Context(), strings.TrimPrefix(args[0], "/"))
			if err != nil {
				return err
			}

			out, err := openOutput(cmd, output)
			if err != nil {
				return err
			}
			if err := writeRawJSON(out, raw, pretty); err != nil {
				out.Close()
				return err
			}
			return out.Close()
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", stdio, "output file, '-' for stdout")
	cmd.Flags().BoolVarP(&pretty, "pretty", "P", false, "pretty print the JSON output")
	return cmd
}
