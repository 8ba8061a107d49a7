package cli

import (
	"github.com/spf13/cobra"

	"github.com/richinsley/cmfy/client"
	"github.com/richinsley/cmfy/graphapi"
)

func newExtractCommand(a *app) *cobra.Command {
	var output string
	var pretty bool

	cmd := &cobra.Command{
		Use:   "extract [PNG|-]",
		Short: "Extract the prompt embedded in a generated PNG",
		Long: `Extract the prompt embedded in a generated PNG.

The prompt is written as a one element JSON array, ready for 'submit'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := stdio
			if len(args) == 1 {
				input = args[0]
			}
			r, err := openInput(cmd, input)
			if err != nil {
				return err
			}
			defer r.Close()

			nodes, err := client.PromptFromPNG(r)
			if err != nil {
				return err
			}
			return writeJSONTo(cmd, output, []graphapi.PromptNodes{nodes}, pretty)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", stdio, "output file, '-' for stdout")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "pretty print the JSON output")
	return cmd
}
