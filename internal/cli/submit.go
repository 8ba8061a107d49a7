package cli

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/richinsley/cmfy/client"
	"github.com/richinsley/cmfy/graphapi"
	"github.com/richinsley/cmfy/internal/xjson"
)

type submitOptions struct {
	reseed bool
	seed   uint64
	steps  uint8
	size   string
	lora   string
	count  int
}

func newSubmitCommand(a *app) *cobra.Command {
	opts := &submitOptions{}

	cmd := &cobra.Command{
		Use:   "submit [FILE|-]",
		Short: "Submit a batch of prompts to the server",
		Long: `Submit a batch of prompts to the server.

Reads a JSON array of prompts, as written by 'capture' or 'extract', and
queues each of them. Sampler and latent settings can be rewritten on the
way; --reseed, --seed and --steps assume a KSampler node, --size an
EmptyLatentImage node and --lora a LoraLoader node.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := stdio
			if len(args) == 1 {
				input = args[0]
			}
			return runSubmit(cmd, a, input, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.reseed, "reseed", "r", false, "use a random seed for each prompt")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "set the seed of each prompt")
	cmd.Flags().Uint8Var(&opts.steps, "steps", 0, "set the number of sampling steps")
	cmd.Flags().StringVar(&opts.size, "size", "", "set the latent size, WxH or WxHxB")
	cmd.Flags().StringVar(&opts.lora, "lora", "", "set the lora name")
	cmd.Flags().IntVarP(&opts.count, "count", "n", 1, "number of times each prompt is submitted")
	cmd.MarkFlagsMutuallyExclusive("reseed", "seed")
	return cmd
}

func runSubmit(cmd *cobra.Command, a *app, input string, opts *submitOptions) error {
	if opts.count < 1 {
		return client.NewInputError(fmt.Sprint(opts.count), "count must be at least 1")
	}

	var size *latentSize
	if opts.size != "" {
		s, err := parseSize(opts.size)
		if err != nil {
			return err
		}
		size = &s
	}

	r, err := openInput(cmd, input)
	if err != nil {
		return err
	}
	var prompts []graphapi.PromptNodes
	err = xjson.NewDecoder(r).Decode(&prompts)
	r.Close()
	if err != nil {
		return &client.ParseError{What: "prompts from " + input, Err: err}
	}

	out := cmd.OutOrStdout()
	for i, prompt := range prompts {
		if err := prompt.Validate(); err != nil {
			return fmt.Errorf("prompt %d: %w", i, err)
		}

		// each repeat gets its own copy so --reseed draws a new seed per submission
		for n := 0; n < opts.count; n++ {
			nodes := prompt.Clone()
			if err := applySubmitOptions(cmd, nodes, opts, size); err != nil {
				return fmt.Errorf("prompt %d: %w", i, err)
			}
			resp, err := a.client.Submit(cmd.Context(), nodes)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s%s\n", indexLabel(resp.Number), resp.PromptID)
		}
	}
	return nil
}

func applySubmitOptions(cmd *cobra.Command, p graphapi.PromptNodes, opts *submitOptions, size *latentSize) error {
	flags := cmd.Flags()
	if opts.reseed {
		seed := rand.Uint64()
		slog.Debug("reseeding prompt", "seed", seed)
		if err := p.SetSeed(seed); err != nil {
			return err
		}
	}
	if flags.Changed("seed") {
		if err := p.SetSeed(opts.seed); err != nil {
			return err
		}
	}
	if flags.Changed("steps") {
		if err := p.SetSteps(opts.steps); err != nil {
			return err
		}
	}
	if size != nil {
		if err := p.SetSize(size.width, size.height, size.batch); err != nil {
			return err
		}
	}
	if opts.lora != "" {
		if err := p.SetLoraName(opts.lora); err != nil {
			return err
		}
	}
	return nil
}
