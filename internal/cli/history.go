package cli

import (
	"github.com/spf13/cobra"
)

func newHistoryCommand(a *app) *cobra.Command {
	var doList, doClear bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List and/or clear the history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if doList {
				if err := runList(cmd, a, listOptions{history: true}); err != nil {
					return err
				}
			}
			if doClear {
				return a.client.ClearHistory(cmd.Context())
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&doList, "list", "l", false, "list all prompts from history")
	cmd.Flags().BoolVarP(&doClear, "clear", "c", false, "clear all prompts from history")
	return cmd
}

func newQueueCommand(a *app) *cobra.Command {
	var doList, doClear bool

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List and/or clear the queue of pending prompts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if doList {
				if err := runList(cmd, a, listOptions{queue: true}); err != nil {
					return err
				}
			}
			if doClear {
				return a.client.ClearQueue(cmd.Context())
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&doList, "list", "l", false, "list all prompts from queue")
	cmd.Flags().BoolVarP(&doClear, "clear", "c", false, "clear all pending prompts from queue")
	return cmd
}
