package schedule_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teamodea/meetfinder/internal/availability"
	"github.com/teamodea/meetfinder/internal/scheduler"
	"github.com/teamodea/meetfinder/internal/tools/common"
)

// registerAvailabilityTools registers the find_availability and
// schedule_meeting tools.
func (t *Tools) registerAvailabilityTools(s *mcpserver.MCPServer) error {
	findAvailabilityTool := mcp.NewTool("find_availability",
		mcp.WithDescription("Find time slots in which all participants are free, within working hours"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("participants",
			mcp.Required(),
			mcp.Description("Comma-separated list of participant email addresses"),
		),
		mcp.WithNumber("durationMinutes",
			mcp.Required(),
			mcp.Description("Meeting duration in minutes"),
		),
		mcp.WithString("rangeStart",
			mcp.Required(),
			mcp.Description("Start of the search range (RFC3339 format, e.g., '2026-01-05T00:00:00Z')"),
		),
		mcp.WithString("rangeEnd",
			mcp.Required(),
			mcp.Description("End of the search range (RFC3339 format, e.g., '2026-01-10T00:00:00Z')"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of slots to return (default: 10)"),
		),
	)

	s.AddTool(findAvailabilityTool, common.InstrumentedToolHandler("find_availability", t.sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return t.handleFindAvailability(ctx, request)
		}))

	scheduleMeetingTool := mcp.NewTool("schedule_meeting",
		mcp.WithDescription("Book a meeting with all participants, either in a given slot or in the first mutually free one"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("participants",
			mcp.Required(),
			mcp.Description("Comma-separated list of participant email addresses"),
		),
		mcp.WithNumber("durationMinutes",
			mcp.Required(),
			mcp.Description("Meeting duration in minutes"),
		),
		mcp.WithString("rangeStart",
			mcp.Required(),
			mcp.Description("Start of the search range (RFC3339 format)"),
		),
		mcp.WithString("rangeEnd",
			mcp.Required(),
			mcp.Description("End of the search range (RFC3339 format)"),
		),
		mcp.WithString("summary",
			mcp.Description("Meeting title (default: 'Meeting (<duration> minutes)')"),
		),
		mcp.WithString("slotStart",
			mcp.Description("Start of a pre-chosen slot (RFC3339 format). When set, slotEnd is required and no search runs."),
		),
		mcp.WithString("slotEnd",
			mcp.Description("End of a pre-chosen slot (RFC3339 format)"),
		),
		mcp.WithBoolean("addGoogleMeet",
			mcp.Description("Attach a Google Meet link to the event (default: false)"),
		),
	)

	s.AddTool(scheduleMeetingTool, common.InstrumentedToolHandlerWithOperation("schedule_meeting", "create", t.sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return t.handleScheduleMeeting(ctx, request)
		}))

	return nil
}

// parseScheduleArgs extracts the request fields shared by both tools.
func (t *Tools) parseScheduleArgs(args map[string]interface{}) (scheduler.Request, string) {
	participantsStr, ok := args["participants"].(string)
	if !ok || participantsStr == "" {
		return scheduler.Request{}, "participants is required"
	}
	participants := splitList(participantsStr)
	if len(participants) == 0 {
		return scheduler.Request{}, "participants is required"
	}

	durationMinutes, ok := args["durationMinutes"].(float64)
	if !ok || durationMinutes <= 0 {
		return scheduler.Request{}, "durationMinutes is required and must be positive"
	}

	rangeStartStr, ok := args["rangeStart"].(string)
	if !ok || rangeStartStr == "" {
		return scheduler.Request{}, "rangeStart is required"
	}
	rangeStart, err := t.policy.ParseInstant(rangeStartStr)
	if err != nil {
		return scheduler.Request{}, fmt.Sprintf("Invalid rangeStart: %v", err)
	}

	rangeEndStr, ok := args["rangeEnd"].(string)
	if !ok || rangeEndStr == "" {
		return scheduler.Request{}, "rangeEnd is required"
	}
	rangeEnd, err := t.policy.ParseInstant(rangeEndStr)
	if err != nil {
		return scheduler.Request{}, fmt.Sprintf("Invalid rangeEnd: %v", err)
	}

	return scheduler.Request{
		Participants: participants,
		RangeStart:   rangeStart,
		RangeEnd:     rangeEnd,
		Duration:     time.Duration(durationMinutes) * time.Minute,
	}, ""
}

func (t *Tools) handleFindAvailability(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	req, errMsg := t.parseScheduleArgs(args)
	if errMsg != "" {
		return mcp.NewToolResultError(errMsg), nil
	}

	maxResults := 10
	if maxResultsVal, ok := args["maxResults"].(float64); ok && maxResultsVal > 0 {
		maxResults = int(maxResultsVal)
	}

	client, err := t.getCalendarClient(ctx, account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := t.newScheduler(client).FindSlots(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to find availability: %v", err)), nil
	}

	switch result.Outcome {
	case scheduler.OutcomeNoWorkingHours:
		return mcp.NewToolResultText("No working hours in the specified date range"), nil
	case scheduler.OutcomeNoFreeSlots:
		return mcp.NewToolResultText("No overlapping availability found within the specified range"), nil
	}

	slots := result.Slots
	if len(slots) > maxResults {
		slots = slots[:maxResults]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d available time slot(s) for a %d minute meeting:\n\n",
		len(slots), int(req.Duration.Minutes()))
	for i, slot := range slots {
		fmt.Fprintf(&sb, "%d. %s to %s (%s)\n",
			i+1,
			slot.Start.Format("Mon, Jan 2 at 15:04"),
			slot.End.Format("15:04 MST"),
			slot.Start.Weekday())
	}
	if client.ReadOnly() {
		sb.WriteString("\nNOTE: Operating in read-only mode. Re-authenticate with full permissions to schedule meetings.\n")
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func (t *Tools) handleScheduleMeeting(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	req, errMsg := t.parseScheduleArgs(args)
	if errMsg != "" {
		return mcp.NewToolResultError(errMsg), nil
	}

	if summary, ok := args["summary"].(string); ok {
		req.Summary = summary
	}
	if addMeet, ok := args["addGoogleMeet"].(bool); ok {
		req.WantsVideoLink = addMeet
	}

	slotStartStr, _ := args["slotStart"].(string)
	slotEndStr, _ := args["slotEnd"].(string)
	if slotStartStr != "" || slotEndStr != "" {
		if slotStartStr == "" || slotEndStr == "" {
			return mcp.NewToolResultError("slotStart and slotEnd must be provided together"), nil
		}
		slotStart, err := t.policy.ParseInstant(slotStartStr)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid slotStart: %v", err)), nil
		}
		slotEnd, err := t.policy.ParseInstant(slotEndStr)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid slotEnd: %v", err)), nil
		}
		slot, err := availability.NewInterval(slotStart, slotEnd)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid slot: %v", err)), nil
		}
		req.Slot = &slot
	}

	client, err := t.getCalendarClient(ctx, account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if client.ReadOnly() {
		return mcp.NewToolResultError("Cannot schedule meetings with read-only credentials. Re-authenticate with full permissions."), nil
	}

	result, err := t.newScheduler(client).Schedule(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to schedule meeting: %v", err)), nil
	}

	if result.Confirmation == nil {
		switch result.Outcome {
		case scheduler.OutcomeNoWorkingHours:
			return mcp.NewToolResultText("No working hours in the specified date range; nothing was booked"), nil
		default:
			return mcp.NewToolResultText("No suitable time slots found within the specified range; nothing was booked"), nil
		}
	}

	c := result.Confirmation
	var sb strings.Builder
	fmt.Fprintf(&sb, "Meeting booked.\n\nID: %s\nSummary: %s\nWhen: %s to %s\nAttendees: %s\n",
		c.ID,
		c.Summary,
		c.Slot.Start.Format("Mon, Jan 2 2006 at 15:04 MST"),
		c.Slot.End.Format("15:04 MST"),
		strings.Join(c.Attendees, ", "))
	if c.VideoLink != "" {
		fmt.Fprintf(&sb, "Video link: %s\n", c.VideoLink)
	}

	return mcp.NewToolResultText(sb.String()), nil
}
