package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fruitsalade/dfm/internal/api"
	"github.com/fruitsalade/dfm/internal/auth"
	"github.com/fruitsalade/dfm/internal/events"
	"github.com/fruitsalade/dfm/internal/logging"
	"github.com/fruitsalade/dfm/internal/metrics"
	"github.com/fruitsalade/dfm/internal/session"
)

const shutdownTimeout = 10 * time.Second

var (
	flagListen  string
	flagMetrics string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the explorer session API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("listen") {
			cfg.ListenAddr = flagListen
		}
		if cmd.Flags().Changed("metrics") {
			cfg.MetricsAddr = flagMetrics
		}
		return serve(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", ":8080", "API listen address (env LISTEN_ADDR)")
	serveCmd.Flags().StringVar(&flagMetrics, "metrics", ":9090", "metrics listen address, empty to disable (env METRICS_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

func serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info("dfm server starting...",
		logging.String("listen", cfg.ListenAddr),
		logging.String("metrics", cfg.MetricsAddr),
		logging.String("source", cfg.Source),
	)

	loader := newLoader(cfg)
	broadcaster := events.NewBroadcaster()
	sessions := session.NewManager(loader, broadcaster)

	var authHandler *auth.Auth
	if cfg.JWTSecret != "" {
		a, err := auth.New(cfg.JWTSecret)
		if err != nil {
			return fmt.Errorf("auth init: %w", err)
		}
		authHandler = a
		logging.Info("bearer authentication enabled")
	}

	// Warm the cache so the first session opens quickly and a bad source
	// shows up in the logs at startup.
	if cfg.Source != "" {
		if _, err := loader.Load(ctx, cfg.Source, false); err != nil {
			logging.Warn("initial document load failed", logging.String("source", cfg.Source), logging.Err(err))
		}
		if cfg.WatchSource {
			watchSource(ctx, loader, func() {
				if err := sessions.ReloadLocation(ctx, cfg.Source); err != nil {
					logging.Warn("reload after change failed", logging.Err(err))
				}
			})
		}
	}

	srv := api.NewServer(sessions, broadcaster, authHandler, cfg)

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: metrics.Handler(),
		}
		go func() {
			logging.Info("metrics server listening", logging.String("addr", cfg.MetricsAddr))
			if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				logging.Error("metrics server error", logging.Err(err))
			}
		}()
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Event streams end when ctx is cancelled, letting Shutdown drain.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		logging.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			httpServer.Close()
		}
		if metricsServer != nil {
			metricsServer.Close()
		}
	}()

	logging.Info("server listening", logging.String("addr", cfg.ListenAddr))
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	logging.Info("server stopped", logging.Int("sessions", sessions.Count()))
	return nil
}
