package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mgnrega/dashboard/config"
	"github.com/mgnrega/dashboard/logger"
	"github.com/mgnrega/dashboard/routes"
	"github.com/mgnrega/dashboard/upstream"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the data.gov.in proxy",
	Long: `Serve /api/filters, /api/data and /api/health on PORT (default 5000).

DATA_GOV_API_KEY and DATA_GOV_RESOURCE_ID must be set, in the environment
or in a .env file in the working directory.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnv(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.Init(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile})

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, cfg, nil)
}

// newServer builds the HTTP server. The write timeout leaves room for a full
// upstream round trip.
func newServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.UpstreamTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}

// serve runs the proxy until ctx is cancelled, then shuts down gracefully.
// A nil ln listens on cfg.Port.
func serve(ctx context.Context, cfg *config.Config, ln net.Listener) error {
	client := upstream.NewClient(upstream.Options{
		BaseURL:       cfg.UpstreamBaseURL,
		APIKey:        cfg.APIKey,
		ResourceID:    cfg.ResourceID,
		Timeout:       cfg.UpstreamTimeout,
		RatePerSecond: cfg.UpstreamRateLimit,
		Burst:         cfg.UpstreamRateBurst,
	})
	defer client.CloseIdleConnections()

	srv := newServer(cfg, routes.NewHandler(client, routes.Options{
		FiltersSampleLimit: cfg.FiltersSampleLimit,
	}))

	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", srv.Addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", srv.Addr, err)
		}
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Log.Infof("Server running on port %s", cfg.Port)
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
		logger.Log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Log.Info("Server shutdown completed")
	return nil
}
