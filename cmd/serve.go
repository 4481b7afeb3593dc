package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/harding/internal/config"
	"github.com/lehigh-university-libraries/harding/internal/handlers"
	"github.com/lehigh-university-libraries/harding/internal/images"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var flags config.Config

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the editing API server",
		Long: `Starts the Harding HTTP API on the specified port.

All projects live in memory for the lifetime of the server. Exports are written
to the configured export directory and served back under /exports/.`,
		Example: `  # Start server on default port 8888
  harding serve

  # Start server on custom port with OpenAI as the AI provider
  harding serve --port 3000 --provider openai`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Merge(opts.config, &flags)
			if err := cfg.Validate(); err != nil {
				return err
			}

			st, imp, err := newWorkspace(cfg)
			if err != nil {
				return err
			}
			handler := handlers.New(cfg, st, imp, images.NewFetcher(cfg.MaxUploadBytes))

			// Set up routes
			mux := http.NewServeMux()
			handler.Routes(mux)

			addr := fmt.Sprintf(":%d", cfg.Port)
			server := &http.Server{
				Addr:              addr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Harding API available", "addr", addr, "url", "http://localhost"+addr, "provider", cfg.Provider)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().IntVarP(&flags.Port, "port", "p", 0, "Port to listen on (default from config, 8888)")
	cmd.Flags().StringVar(&flags.Provider, "provider", "", "AI provider (gemini, openai, or ollama)")
	cmd.Flags().StringVar(&flags.ExportDir, "export-dir", "", "Directory exports are written to")

	return cmd
}
