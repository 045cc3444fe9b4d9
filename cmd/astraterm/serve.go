package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/astraterm/astraterm/internal/infrastructure/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		host string
		port string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST and WebSocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if dev {
				cfg.Logging.Development = true
			}

			srv, err := server.NewServer(cfg)
			if err != nil {
				return err
			}
			defer srv.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := srv.Run(ctx); err != nil {
				srv.Components().Logger.Error("Server stopped with error", zap.Error(err))
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "listen host")
	cmd.Flags().StringVarP(&port, "port", "p", "8000", "listen port")
	cmd.Flags().BoolVar(&dev, "dev", false, "development logging")
	return cmd
}
