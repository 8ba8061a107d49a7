package cli

import (
	"github.com/spf13/cobra"

	"github.com/richinsley/cmfy/client"
)

type listOptions struct {
	history bool
	queue   bool
	all     bool
	images  bool
}

// sources resolves the selection flags; --all is the default and is
// overridden by an explicit --history or --queue.
func (o listOptions) sources() (history, queue bool) {
	if o.history || o.queue {
		return o.history, o.queue
	}
	return true, true
}

func newListCommand(a *app) *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all prompts from history and queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, a, *opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.history, "history", "s", false, "display prompts from history")
	cmd.Flags().BoolVarP(&opts.queue, "queue", "q", false, "display prompts from queue")
	cmd.Flags().BoolVarP(&opts.all, "all", "a", true, "display prompts from history and queue")
	cmd.Flags().BoolVarP(&opts.images, "images", "i", false, "display the output image url of completed prompts")
	return cmd
}

func runList(cmd *cobra.Command, a *app, opts listOptions) error {
	history, queue := opts.sources()
	batch, err := a.client.CollectPromptBatch(cmd.Context(), history, queue)
	if err != nil {
		return err
	}

	var imageURL func(client.Image) string
	if opts.images {
		imageURL = a.client.URLForImage
	}
	renderList(cmd.OutOrStdout(), batch, imageURL)
	return nil
}
