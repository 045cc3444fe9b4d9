package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

func newExecCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <command>",
		Short: "Run one command and exit with its status",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.buildLocal()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			snap := c.Store.Create()
			out, err := c.Controller.Handle(ctx, snap.ID, strings.Join(args, " "))
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), out.Result.Output)
			if msg := out.Result.ErrorText(); msg != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), msg)
			}
			if out.Result.ExitCode != 0 {
				return &exitError{code: out.Result.ExitCode}
			}
			return nil
		},
	}
}
