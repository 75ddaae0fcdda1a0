// ABOUTME: serve subcommand running the local HTTP API
// ABOUTME: Shuts down gracefully on SIGINT or SIGTERM

package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/coven-gallery/internal/api"
	"github.com/2389/coven-gallery/internal/repository"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the gallery API for a local browser UI",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = app.withRepo(openOptions{}, func(cmd *cobra.Command, args []string, repo *repository.Repository) error {
		if addr == "" {
			addr = app.cfg.Server.HTTPAddr
		}

		out := cmd.OutOrStdout()
		color.New(color.FgCyan).Fprint(out, banner)
		color.New(color.FgHiBlack).Fprintf(out, "    version: %s\n\n", version)

		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listening on %s: %w", addr, err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := api.NewServer(repo, app.logger)
		fmt.Fprintf(out, "    listening on %s\n\n", color.GreenString("http://"+ln.Addr().String()))
		return srv.Run(ctx, ln, app.cfg.Server.ShutdownTimeout)
	})

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.http_addr from config)")
	return cmd
}
