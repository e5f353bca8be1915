package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maltedev/laptop-listing-extractor/internal/analysis"
	"github.com/maltedev/laptop-listing-extractor/internal/api"
	"github.com/spf13/cobra"
)

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the snapshot over a read-only HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			return a.serve()
		},
	}
}

func (a *app) serve() error {
	cfg := a.cfg.Server
	handlers := api.NewHandlers(a.snapshot, a.cfg.Output.MaxAge, analysis.NewLexiconScorer(), a.logger)
	router := api.NewRouter(handlers, api.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		Timeout:        cfg.WriteTimeout,
		Metrics:        a.metrics,
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		a.logger.Info("shutting down server...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("server shutdown failed", "error", err)
		}
	}()

	a.logger.Info("server starting", "addr", server.Addr, "snapshot", a.snapshot.Path())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.logger.Error("server failed", "error", err)
		return err
	}

	a.logger.Info("server stopped")
	return nil
}
