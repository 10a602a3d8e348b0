package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hollowware/ghostsite/internal/web"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Build the site and serve it locally, rebuilding on file changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.store.Close()

		if servePort != 0 {
			e.cfg.Serve.Port = servePort
		}

		server, err := web.NewServer(e.cfg, e.builder, e.log)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return server.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to serve on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
