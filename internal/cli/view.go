package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/richinsley/cmfy/client"
)

const downloadConcurrency = 4

// selectHistory returns history entries in uuid order, limited to the
// indices in selection when given.
func selectHistory(ctx context.Context, c *client.ComfyClient, selection string) ([]client.HistoryLogEntry, error) {
	var selected indexSet
	if selection != "" {
		var err error
		if selected, err = parseRange(selection); err != nil {
			return nil, err
		}
	}

	history, err := c.History(ctx)
	if err != nil {
		return nil, err
	}

	var entries []client.HistoryLogEntry
	for _, id := range history.IDs() {
		e := history[id]
		if selected == nil || selected.contains(e.Prompt.Index) {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func forgetEntries(ctx context.Context, c *client.ComfyClient, entries []client.HistoryLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.Prompt.UUID)
	}
	return c.DeleteFromHistory(ctx, ids...)
}

func rangeArg(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return ""
}

func newViewCommand(a *app) *cobra.Command {
	var clearAfter bool

	cmd := &cobra.Command{
		Use:   "view [RANGE]",
		Short: "Open images of completed prompts in a browser",
		Long: `Open images of completed prompts in a browser.

RANGE selects prompt indices, e.g. '1,2,3' or '4-5' or '1,3,4-6'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			entries, err := selectHistory(ctx, a.client, rangeArg(args))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			g, gctx := errgroup.WithContext(ctx)
			for _, e := range entries {
				for _, img := range e.Outputs.Images() {
					url := a.client.URLForImage(img)
					fmt.Fprintln(out, url)
					g.Go(func() error {
						return a.openURL(gctx, url)
					})
				}
			}
			if err := g.Wait(); err != nil {
				return err
			}

			if clearAfter {
				return forgetEntries(ctx, a.client, entries)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&clearAfter, "clear", "c", false, "remove the prompts from history afterwards")
	return cmd
}

func newDownloadCommand(a *app) *cobra.Command {
	var clearAfter bool
	var dir string

	cmd := &cobra.Command{
		Use:   "download [RANGE]",
		Short: "Download images of completed prompts",
		Long: `Download images of completed prompts.

RANGE selects prompt indices, e.g. '1,2,3' or '4-5' or '1,3,4-6'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			entries, err := selectHistory(ctx, a.client, rangeArg(args))
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return client.NewInputError(dir, err.Error())
			}

			var mu sync.Mutex
			out := cmd.OutOrStdout()
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(downloadConcurrency)
			for _, e := range entries {
				for _, img := range e.Outputs.Images() {
					g.Go(func() error {
						data, err := a.client.DownloadImage(gctx, img)
						if err != nil {
							return err
						}
						path := filepath.Join(dir, filepath.Base(img.Filename))
						if err := os.WriteFile(path, data, 0o644); err != nil {
							return err
						}

						mu.Lock()
						defer mu.Unlock()
						fmt.Fprintf(out, "%s -> %s\n", a.client.URLForImage(img), path)
						return nil
					})
				}
			}
			if err := g.Wait(); err != nil {
				return err
			}

			if clearAfter {
				return forgetEntries(ctx, a.client, entries)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&clearAfter, "clear", "c", false, "remove the prompts from history afterwards")
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "directory to save images in")
	return cmd
}
