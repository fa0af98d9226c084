package schedule_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teamodea/meetfinder/internal/availability"
	"github.com/teamodea/meetfinder/internal/tools/common"
)

// registerEventTools registers the list_events and query_freebusy tools.
func (t *Tools) registerEventTools(s *mcpserver.MCPServer) error {
	listEventsTool := mcp.NewTool("list_events",
		mcp.WithDescription("List calendar events in a time range"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (default: 'primary')"),
		),
		mcp.WithString("timeMin",
			mcp.Required(),
			mcp.Description("Start time for the range (RFC3339 format, e.g., '2026-01-05T00:00:00Z')"),
		),
		mcp.WithString("timeMax",
			mcp.Required(),
			mcp.Description("End time for the range (RFC3339 format)"),
		),
		mcp.WithString("query",
			mcp.Description("Free text search over event fields"),
		),
	)

	s.AddTool(listEventsTool, common.InstrumentedToolHandlerWithOperation("list_events", "list", t.sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return t.handleListEvents(ctx, request)
		}))

	queryFreeBusyTool := mcp.NewTool("query_freebusy",
		mcp.WithDescription("Check busy periods for one or more calendars in a time range"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("timeMin",
			mcp.Required(),
			mcp.Description("Start time for the range (RFC3339 format)"),
		),
		mcp.WithString("timeMax",
			mcp.Required(),
			mcp.Description("End time for the range (RFC3339 format)"),
		),
		mcp.WithString("calendars",
			mcp.Required(),
			mcp.Description("Comma-separated list of calendar IDs or email addresses to check"),
		),
	)

	s.AddTool(queryFreeBusyTool, common.InstrumentedToolHandlerWithOperation("query_freebusy", "freebusy", t.sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return t.handleQueryFreeBusy(ctx, request)
		}))

	return nil
}

// parseRange extracts and parses the timeMin/timeMax arguments.
func (t *Tools) parseRange(args map[string]interface{}) (availability.Interval, string) {
	timeMinStr, ok := args["timeMin"].(string)
	if !ok || timeMinStr == "" {
		return availability.Interval{}, "timeMin is required"
	}
	timeMin, err := t.policy.ParseInstant(timeMinStr)
	if err != nil {
		return availability.Interval{}, fmt.Sprintf("Invalid timeMin format: %v", err)
	}

	timeMaxStr, ok := args["timeMax"].(string)
	if !ok || timeMaxStr == "" {
		return availability.Interval{}, "timeMax is required"
	}
	timeMax, err := t.policy.ParseInstant(timeMaxStr)
	if err != nil {
		return availability.Interval{}, fmt.Sprintf("Invalid timeMax format: %v", err)
	}

	window, err := availability.NewInterval(timeMin, timeMax)
	if err != nil {
		return availability.Interval{}, fmt.Sprintf("Invalid time range: %v", err)
	}
	return window, ""
}

func (t *Tools) handleListEvents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	window, errMsg := t.parseRange(args)
	if errMsg != "" {
		return mcp.NewToolResultError(errMsg), nil
	}

	calendarID := "primary"
	if calendarVal, ok := args["calendarId"].(string); ok && calendarVal != "" {
		calendarID = calendarVal
	}
	query, _ := args["query"].(string)

	client, err := t.getCalendarClient(ctx, account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	events, err := client.ListEvents(ctx, calendarID, window.Start, window.End, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list events: %v", err)), nil
	}

	if len(events) == 0 {
		return mcp.NewToolResultText("No events found in the specified range"), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d event(s):\n\n", len(events))
	for i, event := range events {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, event.Summary)
		fmt.Fprintf(&sb, "   ID: %s\n", event.ID)
		fmt.Fprintf(&sb, "   When: %s to %s\n",
			event.Start.Format("Mon, Jan 2 at 15:04"),
			event.End.Format("15:04 MST"))
		if len(event.Attendees) > 0 {
			attendees := make([]string, 0, len(event.Attendees))
			for _, a := range event.Attendees {
				attendees = append(attendees, a.Email)
			}
			fmt.Fprintf(&sb, "   Attendees: %s\n", strings.Join(attendees, ", "))
		}
		if event.VideoLink != "" {
			fmt.Fprintf(&sb, "   Video link: %s\n", event.VideoLink)
		}
		sb.WriteString("\n")
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func (t *Tools) handleQueryFreeBusy(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	window, errMsg := t.parseRange(args)
	if errMsg != "" {
		return mcp.NewToolResultError(errMsg), nil
	}

	calendarsStr, ok := args["calendars"].(string)
	if !ok || calendarsStr == "" {
		return mcp.NewToolResultError("calendars is required"), nil
	}
	calendars := splitList(calendarsStr)

	client, err := t.getCalendarClient(ctx, account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	infos, err := client.FreeBusy(ctx, window, calendars)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to query free/busy: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Free/Busy information for %d calendar(s):\n\n", len(infos))
	for _, info := range infos {
		fmt.Fprintf(&sb, "Calendar: %s\n", info.Calendar)

		if len(info.Errors) > 0 {
			fmt.Fprintf(&sb, "  Errors: %s\n", strings.Join(info.Errors, ", "))
		}

		if len(info.Busy) == 0 {
			sb.WriteString("  Status: FREE for entire range\n")
		} else {
			fmt.Fprintf(&sb, "  Busy periods: %d\n", len(info.Busy))
			for i, busy := range info.Busy {
				fmt.Fprintf(&sb, "  %d. %s to %s\n",
					i+1,
					busy.Start.Format("2006-01-02 15:04"),
					busy.End.Format("2006-01-02 15:04"))
			}
		}
		sb.WriteString("\n")
	}

	return mcp.NewToolResultText(sb.String()), nil
}
