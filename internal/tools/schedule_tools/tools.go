package schedule_tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teamodea/meetfinder/internal/availability"
	"github.com/teamodea/meetfinder/internal/calendar"
	"github.com/teamodea/meetfinder/internal/google"
	"github.com/teamodea/meetfinder/internal/scheduler"
	"github.com/teamodea/meetfinder/internal/server"
)

// Tools holds the shared dependencies of the scheduling tool handlers.
type Tools struct {
	sc     *server.ServerContext
	policy availability.WorkingPolicy
	logger *slog.Logger
}

// RegisterScheduleTools registers the scheduling and event tools with the
// MCP server.
func RegisterScheduleTools(s *mcpserver.MCPServer, sc *server.ServerContext, policy availability.WorkingPolicy, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tools{sc: sc, policy: policy, logger: logger}

	if err := t.registerAvailabilityTools(s); err != nil {
		return fmt.Errorf("failed to register availability tools: %w", err)
	}
	if err := t.registerEventTools(s); err != nil {
		return fmt.Errorf("failed to register event tools: %w", err)
	}
	return nil
}

// getCalendarClient retrieves or creates a calendar client for the specified account
func (t *Tools) getCalendarClient(ctx context.Context, account string) (*calendar.Client, error) {
	client := t.sc.CalendarClientForAccount(account)
	if client != nil {
		return client, nil
	}

	// Check if credentials exist before trying to create a client
	if !calendar.HasTokenForAccount(account) {
		authURL, err := google.GetAuthURL()
		if err != nil {
			return nil, fmt.Errorf("no Google credentials found for account %q and no OAuth client configured: %w", account, err)
		}
		return nil, fmt.Errorf(`Google OAuth token not found for account "%s". To authorize access:

1. Visit this URL in your browser:
   %s

2. Sign in with your Google account
3. Grant access to Google Calendar
4. Copy the authorization code

5. Provide the authorization code to your AI agent
   The agent will use the google_save_auth_code tool with account="%s" to complete authentication.

Note: You only need to authorize once. The tokens will be automatically refreshed.`, account, authURL, account)
	}

	client, err := calendar.NewClientForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar client for account %s: %w", account, err)
	}
	t.sc.SetCalendarClientForAccount(account, client)
	return client, nil
}

// newScheduler builds a per-call scheduler over the account's client.
func (t *Tools) newScheduler(client *calendar.Client) *scheduler.Scheduler {
	finder := scheduler.NewFinder(client, t.policy, scheduler.WithLogger(t.logger))
	return scheduler.NewScheduler(finder, client, t.logger)
}

// splitList splits a comma-separated argument into trimmed entries.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
