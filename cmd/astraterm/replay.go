package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/astraterm/astraterm/internal/domain/session"
)

func newReplayCmd(opts *rootOptions) *cobra.Command {
	var keepGoing bool

	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Run a saved transcript in a fresh session",
		Long:  "Runs every \"$ \" line of a saved transcript in order. Files ending in .zst are read as zstd.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			commands, err := session.ReadTranscriptFile(args[0])
			if err != nil {
				return err
			}

			c, err := opts.buildLocal()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			snap := c.Store.Create()
			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
			failed := 0
			for _, line := range commands {
				o, err := c.Controller.Handle(ctx, snap.ID, line)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "$ %s\n", o.Command)
				fmt.Fprint(out, o.Result.Output)
				if msg := o.Result.ErrorText(); msg != "" {
					fmt.Fprintln(errOut, msg)
				}
				if o.Exit() {
					break
				}
				if !o.Result.Success() {
					failed++
					if !keepGoing {
						return &exitError{code: o.Result.ExitCode}
					}
				}
			}
			if failed > 0 {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&keepGoing, "keep-going", "k", false, "continue after a failing command")
	return cmd
}
