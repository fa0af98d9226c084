package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/teamodea/meetfinder/internal/calendar"
	"github.com/teamodea/meetfinder/internal/instrumentation"
	"github.com/teamodea/meetfinder/internal/logging"
)

// ServerContext holds shared state for the HTTP and MCP servers.
type ServerContext struct {
	ctx             context.Context
	cancel          context.CancelFunc
	calendarClients map[string]*calendar.Client // Maps account name to Calendar client
	metrics         *instrumentation.Metrics
	auditLogger     *instrumentation.AuditLogger
	logger          *slog.Logger
	mu              sync.RWMutex
	shutdown        bool
}

// ServerContextOption configures a ServerContext.
type ServerContextOption func(*ServerContext)

// WithContextMetrics attaches a metrics recorder. Calendar clients created
// by the context inherit it.
func WithContextMetrics(m *instrumentation.Metrics) ServerContextOption {
	return func(sc *ServerContext) {
		sc.metrics = m
	}
}

// WithContextAuditLogger attaches an audit logger for tool and API invocations.
func WithContextAuditLogger(a *instrumentation.AuditLogger) ServerContextOption {
	return func(sc *ServerContext) {
		sc.auditLogger = a
	}
}

// WithContextLogger sets the logger used for client lifecycle messages.
func WithContextLogger(logger *slog.Logger) ServerContextOption {
	return func(sc *ServerContext) {
		sc.logger = logger
	}
}

// NewServerContext creates a new server context.
// Calendar clients are created lazily when an account is first used, so a
// missing token at startup is not an error.
func NewServerContext(ctx context.Context, opts ...ServerContextOption) (*ServerContext, error) {
	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:             shutdownCtx,
		cancel:          cancel,
		calendarClients: make(map[string]*calendar.Client),
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(sc)
	}

	// Try to create the default client eagerly so credential problems
	// surface in the startup log, but don't fail: the first request
	// re-attempts.
	if calendar.HasToken() {
		client, err := calendar.NewClient(shutdownCtx, sc.clientOptions()...)
		if err != nil {
			sc.logger.Warn("failed to create calendar client for default account",
				logging.Err(err))
		} else {
			sc.calendarClients["default"] = client
		}
	}

	return sc, nil
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Metrics returns the metrics recorder, which may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the audit logger, which may be nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.auditLogger
}

func (sc *ServerContext) clientOptions() []calendar.ClientOption {
	opts := []calendar.ClientOption{calendar.WithLogger(sc.logger)}
	if sc.metrics != nil {
		opts = append(opts, calendar.WithMetrics(sc.metrics))
	}
	return opts
}

// CalendarClientForAccount returns the Calendar client for a specific account.
// Creates and caches the client if it doesn't exist yet.
// Returns nil if the account has no credentials.
func (sc *ServerContext) CalendarClientForAccount(account string) *calendar.Client {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if client, ok := sc.calendarClients[account]; ok {
		return client
	}

	if !calendar.HasTokenForAccount(account) {
		return nil
	}

	client, err := calendar.NewClientForAccount(sc.ctx, account, sc.clientOptions()...)
	if err != nil {
		sc.logger.Warn("failed to create calendar client",
			slog.String("account", account), logging.Err(err))
		return nil
	}

	sc.calendarClients[account] = client
	return client
}

// CalendarClient returns the Calendar client for the default account.
func (sc *ServerContext) CalendarClient() *calendar.Client {
	return sc.CalendarClientForAccount("default")
}

// SetCalendarClientForAccount sets the Calendar client for a specific account.
func (sc *ServerContext) SetCalendarClientForAccount(account string, client *calendar.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.calendarClients[account] = client
}

// SetCalendarClient sets the Calendar client for the default account.
func (sc *ServerContext) SetCalendarClient(client *calendar.Client) {
	sc.SetCalendarClientForAccount("default", client)
}

// HasCredentials reports whether the default account has usable credentials,
// either a cached client or a resolvable token.
func (sc *ServerContext) HasCredentials() bool {
	sc.mu.RLock()
	_, ok := sc.calendarClients["default"]
	sc.mu.RUnlock()
	return ok || calendar.HasToken()
}

// IsShutdown returns whether the server has been shutdown.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
