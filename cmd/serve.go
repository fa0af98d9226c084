package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teamodea/meetfinder/internal/availability"
	"github.com/teamodea/meetfinder/internal/instrumentation"
	"github.com/teamodea/meetfinder/internal/logging"
	"github.com/teamodea/meetfinder/internal/server"
)

// MetricsConfig holds the metrics server configuration for the serve command.
type MetricsConfig struct {
	Enabled bool
	Addr    string
}

type serveConfig struct {
	httpAddr       string
	allowedOrigins string
	allowedDomains string
	timezone       string
	workStart      int
	workEnd        int
	fetchTimeout   time.Duration
	debugMode      bool
	metrics        MetricsConfig
}

func newServeCmd() *cobra.Command {
	var cfg serveConfig

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduling HTTP API server",
		Long: `Run the HTTP API server used by the scheduling frontend.

The server exposes:
  POST   /api/schedule            find availability or schedule a meeting
  POST   /api/events              list upcoming calendar events
  POST   /api/events/{id}/update  update an event
  DELETE /api/events/{id}         delete an event
  GET    /healthz, /readyz        health and readiness probes

Credentials are resolved from GOOGLE_ACCESS_TOKEN / GOOGLE_REFRESH_TOKEN or
a saved token file (see 'meetfinder auth'). With access-token-only
credentials the server runs read-only and refuses booking requests.

Environment fallbacks: METRICS_ENABLED, METRICS_ADDR, ALLOWED_EMAIL_DOMAINS,
ALLOWED_ORIGINS.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.httpAddr, "http-addr", server.DefaultAPIAddr, "Address for the HTTP API server")
	cmd.Flags().StringVar(&cfg.allowedOrigins, "allowed-origins", "", "Comma-separated CORS origins (default: teamodea.com origins plus localhost)")
	cmd.Flags().StringVar(&cfg.allowedDomains, "allowed-domains", "", "Comma-separated participant email domains, '*' allows all (default: teamodea.com)")
	cmd.Flags().StringVar(&cfg.timezone, "timezone", availability.DefaultTimeZone, "IANA timezone for working hours")
	cmd.Flags().IntVar(&cfg.workStart, "work-start", availability.DefaultWorkStart, "Working hours start (local hour, inclusive)")
	cmd.Flags().IntVar(&cfg.workEnd, "work-end", availability.DefaultWorkEnd, "Working hours end (local hour, exclusive)")
	cmd.Flags().DurationVar(&cfg.fetchTimeout, "fetch-timeout", 0, "Per-request timeout for the calendar fan-out (0 uses the scheduler default)")
	cmd.Flags().BoolVar(&cfg.debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&cfg.metrics.Enabled, "metrics-enabled", false, "Enable the Prometheus metrics server")
	cmd.Flags().StringVar(&cfg.metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Address for the metrics server")

	return cmd
}

func runServe(cfg serveConfig) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := newServeLogger(cfg.debugMode)
	slog.SetDefault(logger)

	// Load metrics config from environment if not set via flags
	if !cfg.metrics.Enabled {
		if os.Getenv("METRICS_ENABLED") == "true" {
			cfg.metrics.Enabled = true
		}
	}
	if cfg.metrics.Addr == "" || cfg.metrics.Addr == server.DefaultMetricsAddr {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			cfg.metrics.Addr = addr
		}
	}

	policy, err := availability.NewPolicy(cfg.timezone, cfg.workStart, cfg.workEnd,
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)
	if err != nil {
		return fmt.Errorf("failed to build working-hours policy: %w", err)
	}

	allowedDomains := server.ParseAllowedDomains(cfg.allowedDomains)
	if len(allowedDomains) == 0 {
		allowedDomains = server.ParseAllowedDomains(os.Getenv("ALLOWED_EMAIL_DOMAINS"))
	}

	allowedOrigins := parseCommaSeparatedList(cfg.allowedOrigins)
	if allowedOrigins == nil {
		allowedOrigins = parseCommaSeparatedList(os.Getenv("ALLOWED_ORIGINS"))
	}
	if allowedOrigins == nil {
		allowedOrigins = server.DefaultAllowedOrigins
	}

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	// Start metrics server if enabled
	var metricsServer *server.MetricsServer
	if cfg.metrics.Enabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.metrics.Addr,
			Enabled:                 true,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		// Use ready channel to confirm metrics server started successfully
		metricsReady := make(chan struct{})
		metricsErr := make(chan error, 1)
		go func() {
			if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && !errors.Is(err, http.ErrServerClosed) {
				metricsErr <- err
			}
			close(metricsErr)
		}()

		select {
		case <-metricsReady:
			logger.Info("metrics server started", slog.String("addr", metricsServer.Addr()))
		case err := <-metricsErr:
			return fmt.Errorf("metrics server failed to start: %w", err)
		case <-time.After(5 * time.Second):
			return fmt.Errorf("metrics server startup timed out")
		}
	}

	contextOpts := []server.ServerContextOption{
		server.WithContextLogger(logger),
	}
	if provider.Enabled() {
		contextOpts = append(contextOpts, server.WithContextMetrics(provider.Metrics()))
		contextOpts = append(contextOpts,
			server.WithContextAuditLogger(instrumentation.NewAuditLoggerWithConfig(nil, instrConfig.AuditLogging)))
	}

	serverContext, err := server.NewServerContext(shutdownCtx, contextOpts...)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		_ = serverContext.Shutdown()
	}()

	if !serverContext.HasCredentials() {
		logger.Warn("no Google Calendar credentials found; scheduling endpoints will return errors until 'meetfinder auth' is run")
	}

	apiServer := server.NewAPIServer(serverContext, server.APIConfig{
		Addr:           cfg.httpAddr,
		AllowedOrigins: allowedOrigins,
		AllowedDomains: allowedDomains,
		Policy:         policy,
		FetchTimeout:   cfg.fetchTimeout,
	}, server.WithAPILogger(logger))

	serveErr := make(chan error, 1)
	go func() {
		if err := apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	apiServer.Health().SetReady(true)
	logger.Info("scheduling API server ready",
		slog.String("addr", cfg.httpAddr),
		slog.String("timezone", cfg.timezone),
		slog.Int("work_start", cfg.workStart),
		slog.Int("work_end", cfg.workEnd),
		slog.String("allowed_domains", strings.Join(allowedDomains, ",")))

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("API server failed: %w", err)
		}
		return nil
	case <-shutdownCtx.Done():
	}

	logger.Info("shutdown signal received")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer stopCancel()

	if err := apiServer.Shutdown(stopCtx); err != nil {
		logger.Error("API server shutdown failed", logging.Err(err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(stopCtx); err != nil {
			logger.Error("metrics server shutdown failed", logging.Err(err))
		}
	}

	return nil
}

func newServeLogger(debugMode bool) *slog.Logger {
	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// parseCommaSeparatedList splits a comma-separated string into a slice,
// trimming whitespace and dropping empty entries. Returns nil for an
// empty input so callers can distinguish "unset" from "set but empty".
func parseCommaSeparatedList(value string) []string {
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
