package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/astraterm/astraterm/internal/infrastructure/config"
	"github.com/astraterm/astraterm/internal/infrastructure/logging"
	"github.com/astraterm/astraterm/internal/infrastructure/server"
)

type rootOptions struct {
	keysFile string
	home     string
	archive  string
	timeout  string
	verbose  bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "astraterm",
		Short:         "Terminal server with AI, GitHub and security tooling",
		Long:          "astraterm executes shell commands in persistent sessions over REST, WebSocket or a local shell.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.keysFile, "keys", "", "provider key file (json, yaml or toml)")
	root.PersistentFlags().StringVar(&opts.home, "home", "", "initial working directory for new sessions")
	root.PersistentFlags().StringVar(&opts.archive, "archive", "", "SQLite history archive path")
	root.PersistentFlags().StringVar(&opts.timeout, "timeout", "", "per-command timeout (e.g. 30s)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr at debug level")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newShellCmd(opts))
	root.AddCommand(newExecCmd(opts))
	root.AddCommand(newReplayCmd(opts))
	root.AddCommand(newVersionCmd())
	return root
}

// loadConfig reads the environment, then applies flag overrides.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if o.keysFile != "" {
		cfg.Keys.File = o.keysFile
	}
	if o.home != "" {
		cfg.Shell.Home = o.home
	}
	if o.archive != "" {
		cfg.Archive.Path = o.archive
	}
	if o.timeout != "" {
		d, err := time.ParseDuration(o.timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid --timeout: %w", err)
		}
		cfg.Shell.Timeout = d
	}
	return cfg, nil
}

// cliLogger keeps local front-ends quiet unless --verbose is set.
func (o *rootOptions) cliLogger() *logging.Logger {
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	l, err := logging.New(logging.Config{
		Level:       level,
		Development: true,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return logging.NewNop()
	}
	return l
}

// buildLocal wires the components for the non-server subcommands.
func (o *rootOptions) buildLocal() (*server.Components, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return server.Build(cfg, o.cliLogger())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "astraterm version %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
