// ABOUTME: Serve command starts the HTTP API
// ABOUTME: Shuts down gracefully on SIGINT or SIGTERM
package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harper/echomind/internal/server"
)

var (
	serveHost string
	servePort int
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API.

Endpoints:
  POST /api/v1/selections                      record a selected phrase
  POST /api/v1/personalization                 personalization hint for a situation
  POST /api/v1/similar                         similar past situations
  GET  /api/v1/users/{userID}/top?category=    most frequent phrases
  GET  /api/v1/users/{userID}/stats            stored phrase counts
  GET  /health                                 liveness and personalization status

If the collection cannot be prepared the server still starts with
personalization disabled.`,
		Example: `  echomind serve
  echomind serve --host 0.0.0.0 --port 9000`,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&serveHost, "host", "", "Listen host (overrides config)")
	cmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides config)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if a.InitErr != nil {
		a.Logger.Warn("starting with personalization disabled", zap.Error(a.InitErr))
	}

	cfg := a.Config.Server
	if serveHost != "" {
		cfg.Host = serveHost
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	srv := server.NewServer(a.Engine, &cfg, a.Logger.Named("server"))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	if !quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "echomind listening on %s:%d\n", cfg.Host, cfg.Port)
	}

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		if !quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "Shutdown complete\n")
		}
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
