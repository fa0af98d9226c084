package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teamodea/meetfinder/internal/availability"
	"github.com/teamodea/meetfinder/internal/instrumentation"
	"github.com/teamodea/meetfinder/internal/server"
	"github.com/teamodea/meetfinder/internal/tools/google_tools"
	"github.com/teamodea/meetfinder/internal/tools/schedule_tools"
)

type mcpConfig struct {
	timezone  string
	workStart int
	workEnd   int
	debugMode bool
}

func newMcpCmd() *cobra.Command {
	var cfg mcpConfig

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run as an MCP server over stdio",
		Long: `Run meetfinder as a Model Context Protocol server over stdio.

The server exposes scheduling tools (find_availability, schedule_meeting,
list_events, query_freebusy) and Google account tools (google_get_auth_url,
google_save_auth_code) to AI assistants.

All tools accept an optional 'account' parameter for multi-account setups.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMcp(cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.timezone, "timezone", availability.DefaultTimeZone, "IANA timezone for working hours")
	cmd.Flags().IntVar(&cfg.workStart, "work-start", availability.DefaultWorkStart, "Working hours start (local hour, inclusive)")
	cmd.Flags().IntVar(&cfg.workEnd, "work-end", availability.DefaultWorkEnd, "Working hours end (local hour, exclusive)")
	cmd.Flags().BoolVar(&cfg.debugMode, "debug", false, "Enable debug logging to stderr")

	return cmd
}

func runMcp(cfg mcpConfig) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Stdout carries the MCP protocol, so logs go to stderr. Without
	// --debug they are discarded entirely to keep the transport quiet.
	logger := newMcpLogger(cfg.debugMode)
	slog.SetDefault(logger)

	policy, err := availability.NewPolicy(cfg.timezone, cfg.workStart, cfg.workEnd,
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)
	if err != nil {
		return fmt.Errorf("failed to build working-hours policy: %w", err)
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		_ = provider.Shutdown(shutdownCtx)
	}()

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

	mcpSrv := mcpserver.NewMCPServer("meetfinder", version,
		mcpserver.WithToolCapabilities(true),
	)

	if err := registerAllTools(mcpSrv, serverContext, policy, logger); err != nil {
		return err
	}

	return runStdioServer(mcpSrv)
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// registerAllTools registers all MCP tool groups.
func registerAllTools(mcpSrv *mcpserver.MCPServer, ctx *server.ServerContext, policy availability.WorkingPolicy, logger *slog.Logger) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Scheduling",
			register: func() error {
				return schedule_tools.RegisterScheduleTools(mcpSrv, ctx, policy, logger)
			},
		},
		{
			name: "Google account",
			register: func() error {
				return google_tools.RegisterGoogleTools(mcpSrv, ctx)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", reg.name, err)
		}
	}

	return nil
}

func newMcpLogger(debugMode bool) *slog.Logger {
	if !debugMode {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
