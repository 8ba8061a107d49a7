package cli

import (
	"github.com/spf13/cobra"

	"github.com/richinsley/cmfy/graphapi"
)

func newCaptureCommand(a *app) *cobra.Command {
	opts := &listOptions{}
	var output string
	var pretty bool

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture prompts to a JSON file",
		Long: `Capture prompts to a JSON file.

Retrieves prompts from the queue and/or history and saves their nodes as
a JSON array. The file can be re-queued with the 'submit' command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			history, queue := opts.sources()
			batch, err := a.client.CollectPromptBatch(cmd.Context(), history, queue)
			if err != nil {
				return err
			}

			prompts := make([]graphapi.PromptNodes, 0, len(batch))
			for _, e := range batch {
				prompts = append(prompts, e.Prompt.Nodes)
			}
			return writeJSONTo(cmd, output, prompts, pretty)
		},
	}

	cmd.Flags().BoolVarP(&opts.queue, "queue", "q", false, "capture prompts from queue (running and pending)")
	cmd.Flags().BoolVarP(&opts.history, "history", "s", false, "capture prompts from history (completed and cancelled)")
	cmd.Flags().BoolVarP(&opts.all, "all", "a", true, "capture prompts from both queue and history")
	cmd.Flags().StringVarP(&output, "output", "o", stdio, "output file, '-' for stdout")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "pretty print the JSON output")
	return cmd
}
