package main

import (
	"os/signal"
	"syscall"

	"github.com/shopql/shopql/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configFrom(cmd)
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, p, err := buildPipeline(ctx, cfg)
		if err != nil {
			return err
		}
		return server.New(cfg, store, p).Run(ctx)
	},
}
