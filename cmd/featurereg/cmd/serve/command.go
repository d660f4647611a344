// Package serve provides the API server command.
package serve

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/featurereg"
	"github.com/agentstation/featurereg/cmd/application"
	"github.com/agentstation/featurereg/internal/cmd/emoji"
	"github.com/agentstation/featurereg/internal/server"
	"github.com/agentstation/featurereg/pkg/constants"
	"github.com/agentstation/featurereg/pkg/logging"
)

// NewCommand creates the serve command.
func NewCommand(app application.Application) *cobra.Command {
	defaults := server.DefaultConfig()
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		GroupID: "core",
		Short:   "Start the review API server with WebSocket and SSE updates",
		Long: `Start the REST API used by the admin console's feature review screen.

Features:
  - Analysis, orphan listing and CSV export endpoints
  - Single and bulk review actions (archive, delete, keep, undo-keep)
  - WebSocket (/api/v1/updates/ws) and SSE (/api/v1/updates/stream)
    notifications when analysis or review changes the orphan list
  - Response caching in memory or Redis
  - Per-IP rate limiting, API key authentication and CORS
  - Prometheus metrics at /metrics
  - Graceful shutdown with connection draining

Flags override the server section of the config file.`,
		Example: `  # Start on the configured address
  featurereg serve

  # Require an API key and allow the console origin
  featurereg serve --auth --api-key "$FEATUREREG_API_KEY" --cors-origins https://admin.example.com

  # Re-run analysis every 5 minutes
  FEATUREREG_REFRESH_INTERVAL=5m featurereg serve --auto-refresh`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd, app)
		},
	}

	cmd.Flags().Int("port", defaults.Port, "Server port")
	cmd.Flags().String("host", defaults.Host, "Bind address")
	cmd.Flags().String("prefix", defaults.PathPrefix, "API path prefix")

	cmd.Flags().Bool("cors", false, "Enable CORS for all origins")
	cmd.Flags().StringSlice("cors-origins", nil, "Allowed CORS origins (comma-separated)")

	cmd.Flags().Bool("auth", false, "Enable API key authentication")
	cmd.Flags().String("auth-header", defaults.AuthHeader, "Authentication header name")
	cmd.Flags().String("api-key", "", "API key required when --auth is set")
	cmd.Flags().String("reviewer-header", defaults.ReviewerHeader, "Header carrying the reviewer identity")

	cmd.Flags().Int("rate-limit", defaults.RateLimit, "Requests per minute per IP (0 to disable)")
	cmd.Flags().String("cache", defaults.Cache.Backend, "Response cache backend: memory, redis")
	cmd.Flags().String("redis-url", "", "Redis URL for --cache redis")
	cmd.Flags().Duration("cache-ttl", defaults.Cache.TTL, "Response cache TTL")

	cmd.Flags().Duration("read-timeout", defaults.ReadTimeout, "HTTP read timeout")
	cmd.Flags().Duration("write-timeout", defaults.WriteTimeout, "HTTP write timeout")
	cmd.Flags().Duration("idle-timeout", defaults.IdleTimeout, "HTTP idle timeout")

	cmd.Flags().Bool("metrics", defaults.MetricsEnabled, "Enable the /metrics endpoint")
	cmd.Flags().Bool("auto-refresh", false, "Re-run analysis periodically (default from config)")

	return cmd
}

func runServer(cmd *cobra.Command, app application.Application) error {
	cfg := parseConfig(cmd, app.ServerConfig())
	logger := app.Logger()

	client, err := app.Client()
	if err != nil {
		return err
	}

	logger.Info().
		Str("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)).
		Str("prefix", cfg.PathPrefix).
		Bool("cors", cfg.CORSEnabled).
		Bool("auth", cfg.AuthEnabled).
		Int("rate_limit", cfg.RateLimit).
		Str("cache", cfg.Cache.Backend).
		Dur("cache_ttl", cfg.Cache.TTL).
		Msg("Starting API server")

	srv, err := server.New(client, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.Start()

	// Warm the first pass so /ready reflects the inputs immediately.
	warmCtx, cancel := context.WithTimeout(cmd.Context(), constants.AnalysisTimeout)
	if _, err := client.Analyze(logging.WithLogger(warmCtx, logger)); err != nil {
		logger.Warn().Err(err).Msg("Initial analysis failed; the server will retry on request")
	}
	cancel()

	autoRefresh := app.AutoRefresh()
	if cmd.Flags().Changed("auto-refresh") {
		autoRefresh = mustGetBool(cmd, "auto-refresh")
	}
	if autoRefresh {
		if err := client.AutoRefreshOn(); err != nil {
			_ = srv.Shutdown(context.Background())
			return err
		}
		defer stopAutoRefresh(client, logger)
	}

	return startWithGracefulShutdown(cmd, srv.HTTPServer(), srv, logger)
}

func stopAutoRefresh(client featurereg.Client, logger *zerolog.Logger) {
	if err := client.AutoRefreshOff(); err != nil {
		logger.Warn().Err(err).Msg("Failed to stop auto refresh")
	}
}

// parseConfig applies the flags the user set on top of base.
func parseConfig(cmd *cobra.Command, base server.Config) server.Config {
	cfg := base
	changed := cmd.Flags().Changed

	if changed("port") {
		cfg.Port = mustGetInt(cmd, "port")
	}
	if changed("host") {
		cfg.Host = mustGetString(cmd, "host")
	}
	if changed("prefix") {
		cfg.PathPrefix = mustGetString(cmd, "prefix")
	}
	if changed("cors") {
		cfg.CORSEnabled = mustGetBool(cmd, "cors")
	}
	if changed("cors-origins") {
		cfg.CORSEnabled = true
		cfg.CORSOrigins = mustGetStringSlice(cmd, "cors-origins")
	}
	if changed("auth") {
		cfg.AuthEnabled = mustGetBool(cmd, "auth")
	}
	if changed("auth-header") {
		cfg.AuthHeader = mustGetString(cmd, "auth-header")
	}
	if changed("api-key") {
		cfg.APIKey = mustGetString(cmd, "api-key")
	}
	if changed("reviewer-header") {
		cfg.ReviewerHeader = mustGetString(cmd, "reviewer-header")
	}
	if changed("rate-limit") {
		cfg.RateLimit = mustGetInt(cmd, "rate-limit")
	}
	if changed("cache") {
		cfg.Cache.Backend = mustGetString(cmd, "cache")
	}
	if changed("redis-url") {
		cfg.Cache.RedisURL = mustGetString(cmd, "redis-url")
	}
	if changed("cache-ttl") {
		cfg.Cache.TTL = mustGetDuration(cmd, "cache-ttl")
	}
	if changed("read-timeout") {
		cfg.ReadTimeout = mustGetDuration(cmd, "read-timeout")
	}
	if changed("write-timeout") {
		cfg.WriteTimeout = mustGetDuration(cmd, "write-timeout")
	}
	if changed("idle-timeout") {
		cfg.IdleTimeout = mustGetDuration(cmd, "idle-timeout")
	}
	if changed("metrics") {
		cfg.MetricsEnabled = mustGetBool(cmd, "metrics")
	}
	return cfg
}

// startWithGracefulShutdown serves until the command context is cancelled,
// then drains connections and stops background services.
func startWithGracefulShutdown(cmd *cobra.Command, httpServer *http.Server, srv *server.Server, logger *zerolog.Logger) error {
	out := cmd.OutOrStdout()
	serverErr := make(chan error, 1)

	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
		fmt.Fprintf(out, "%s API server listening on %s\n", emoji.Success, httpServer.Addr)
		fmt.Fprintln(out, "   Press Ctrl+C to stop")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case err := <-serverErr:
		_ = srv.Shutdown(context.Background())
		return err
	case <-cmd.Context().Done():
		logger.Info().Msg("Shutdown signal received via context")
		fmt.Fprintf(out, "\n%s Shutting down API server...\n", emoji.Stop)

		// The parent context is already cancelled
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Background services shutdown had issues")
		}

		logger.Info().Msg("Server stopped gracefully")
		fmt.Fprintf(out, "%s API server stopped gracefully\n", emoji.Success)
		return nil
	}
}

func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

func mustGetStringSlice(cmd *cobra.Command, name string) []string {
	val, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

func mustGetDuration(cmd *cobra.Command, name string) time.Duration {
	val, err := cmd.Flags().GetDuration(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}
