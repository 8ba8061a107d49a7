// Package cli implements the cmfy command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/richinsley/cmfy/client"
	"github.com/richinsley/cmfy/internal/config"
)

// version is set via build-time ldflags
var version = "dev"

const name = "cmfy"

// app carries the resolved global options and the client shared by every
// subcommand.
type app struct {
	flags      config.Config
	configPath string
	verbose    bool

	cfg    config.Config
	client *client.ComfyClient

	lookupEnv func(string) (string, bool)
	openURL   func(ctx context.Context, url string) error
}

func newApp() *app {
	return &app{
		lookupEnv: os.LookupEnv,
		openURL:   openBrowser,
	}
}

// NewRootCommand returns the cmfy command with every subcommand attached.
func NewRootCommand() *cobra.Command {
	return newRootCommand(newApp())
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name,
		Short: "Command line client for a ComfyUI server",
		Long: `cmfy inspects a ComfyUI server, captures and re-submits prompts,
and monitors running prompts with live progress bars.

Connection settings come from flags, COMFY_* environment variables or
a YAML config file, in that order of precedence.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.flags.Hostname, "hostname", "H", config.DefaultHostname, "hostname of the server (env "+config.EnvHostname+")")
	flags.IntVarP(&a.flags.Port, "port", "p", config.DefaultPort, "port of the server (env "+config.EnvPort+")")
	flags.StringVar(&a.flags.ClientID, "client-id", "", "client id used when listening to events (env "+config.EnvClientID+")")
	flags.StringVar(&a.configPath, "config", "", "config file (env "+config.EnvConfig+", default "+config.DefaultPath()+")")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log debug information to stderr")

	cmd.AddCommand(
		newStatsCommand(a),
		newHistoryCommand(a),
		newQueueCommand(a),
		newListCommand(a),
		newCancelCommand(a),
		newClearCommand(a),
		newOpenCommand(a),
		newCaptureCommand(a),
		newSubmitCommand(a),
		newViewCommand(a),
		newDownloadCommand(a),
		newGetCommand(a),
		newListenCommand(a),
		newExtractCommand(a),
		newMonitorCommand(a),
	)
	return cmd
}

// setup installs logging, resolves the configuration and builds the client.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

	cfg, err := a.resolve(cmd)
	if err != nil {
		return err
	}
	a.cfg = cfg
	slog.Debug("configuration", "hostname", cfg.Hostname, "port", cfg.Port, "client_id", cfg.ClientID)

	a.client, err = client.NewComfyClient(cfg.Hostname, cfg.Port, client.WithClientID(cfg.ClientID))
	return err
}

func (a *app) resolve(cmd *cobra.Command) (config.Config, error) {
	path := config.DefaultPath()
	if v, ok := a.lookupEnv(config.EnvConfig); ok {
		path = v
	}
	if cmd.Flags().Changed("config") {
		path = a.configPath
	}
	file, err := config.LoadFile(path)
	if err != nil {
		return config.Config{}, err
	}

	env, err := config.FromEnv(a.lookupEnv)
	if err != nil {
		return config.Config{}, err
	}

	var explicit config.Config
	if cmd.Flags().Changed("hostname") {
		explicit.Hostname = a.flags.Hostname
	}
	if cmd.Flags().Changed("port") {
		explicit.Port = a.flags.Port
	}
	if cmd.Flags().Changed("client-id") {
		explicit.ClientID = a.flags.ClientID
	}

	return config.Resolve(file, env, explicit)
}

// Execute runs the command tree and exits non-zero on failure. SIGINT and
// SIGTERM cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCommand().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}

// canceled reports whether err only reflects the command being interrupted.
func canceled(ctx context.Context, err error) bool {
	return ctx.Err() != nil && errors.Is(err, context.Canceled)
}
