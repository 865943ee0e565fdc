package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/bookshelf/internal/server"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Build, watch and preview the site with live reload",
	Long: `Build the site, serve the output directory and rebuild whenever a review,
layout or asset changes. Open pages reload after each rebuild.

Examples:
  bookshelf serve                  # http://localhost:8080
  bookshelf serve --port 3000      # Different port
  bookshelf serve --live-reload=false`,
	PreRunE: bindFlags(map[string]string{
		"port":        "server.port",
		"host":        "server.host",
		"live-reload": "server.live_reload",
	}),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().Bool("live-reload", true, "Reload open pages after each rebuild")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(cfg, server.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s at http://%s\n", cfg.Paths.Output, addr)

	if err := srv.Start(ctx); err != nil {
		return err
	}
	if ctx.Err() == context.Canceled {
		fmt.Fprintln(cmd.OutOrStdout(), "Server stopped")
	}
	return nil
}
