package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/hms-console/internal/api"
	"github.com/ashureev/hms-console/internal/config"
	"github.com/ashureev/hms-console/internal/identity"
	"github.com/ashureev/hms-console/internal/live"
	"github.com/ashureev/hms-console/internal/middleware"
	"github.com/ashureev/hms-console/internal/notify"
	"github.com/ashureev/hms-console/internal/views"
	"github.com/ashureev/hms-console/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the console API, live updates and the embedded frontend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			cfg.Port = port
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func serve(parent context.Context, cfg *config.Config) error {
	logger := slog.Default()
	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "backend", cfg.Backend.BaseURL)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			slog.Error("Failed to close audit journal", "error", closeErr)
		}
	}()
	slog.Info("Audit journal connected", "path", cfg.AuditDBPath)

	sess := a.gate.Current()
	slog.Info("Operator session", "authenticated", sess.Authenticated, "operator", sess.Operator.DisplayName())

	hub := live.NewHub(notify.NewQueue(cfg.Notify.QueueSize), logger)
	defer hub.CloseAll()

	registry := a.registry(hub, hub.PushView)
	views.StartIdleSweeper(ctx, registry, cfg.Views.SweepInterval, cfg.Views.IdleTTL, hub.Forget)

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     newRouter(cfg, a, registry, hub),
		ReadTimeout: 30 * time.Second,
		// No WriteTimeout: websocket connections are long-lived.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server stopped successfully", "fetch_failures", a.reporter.Stats())
	return nil
}

func newRouter(cfg *config.Config, a *app, registry *views.Registry, hub *live.Hub) http.Handler {
	base := api.NewHandler(a.gate, a.resolver, registry, a.journal, a.logger)
	consoleHandler := api.NewConsoleHandler(base)
	healthHandler := api.NewHealthHandler(a.journal)
	wsHandler := live.NewHandler(hub, cfg.FrontendURL, cfg.IsDevelopment())

	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(identity.Middleware)

	healthHandler.RegisterHealth(r)
	consoleHandler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/views", wsHandler.ServeHTTP)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	return r
}
