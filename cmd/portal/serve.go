package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-portal-session/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the portal shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), app)
		},
	}
}

func runServe(ctx context.Context, app *app) error {
	displayAppname(app.cfg.GetAppName())

	p, err := newPortal(app.cfg)
	if err != nil {
		return fmt.Errorf("[serve] %w", err)
	}
	defer p.Close()

	handler, err := server.New(app.cfg, p.manager, p.gate)
	if err != nil {
		return fmt.Errorf("[serve] %w", err)
	}

	// Requests arriving before boot finishes see the loading placeholder.
	go p.start(ctx)

	srv := &http.Server{Addr: app.cfg.GetPort(), Handler: handler}
	errs := make(chan error, 1)
	go func() {
		errs <- listenAndServe(srv)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	return shutdown(srv)
}

func listenAndServe(srv *http.Server) error {
	log.Info().Str("addr", srv.Addr).Msg("Server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	log.Info().Msg("Server stopped")
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
