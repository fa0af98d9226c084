package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teamodea/meetfinder/internal/availability"
	"github.com/teamodea/meetfinder/internal/google"
	"github.com/teamodea/meetfinder/internal/instrumentation"
	"github.com/teamodea/meetfinder/internal/logging"
	"github.com/teamodea/meetfinder/internal/scheduler"
)

// ReadOnlyError is returned when a write operation is attempted with
// credentials that cannot be refreshed (access token only).
type ReadOnlyError struct {
	Operation string
}

func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("calendar is in read-only mode: %s requires refresh-capable credentials", e.Operation)
}

// Client wraps the Google Calendar service
type Client struct {
	svc      *calendar.Service
	account  string // The account this client is associated with
	readOnly bool
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the structured logger used by the client.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder for calendar operations.
func WithMetrics(m *instrumentation.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// Account returns the account name this client is associated with
func (c *Client) Account() string {
	return c.account
}

// ReadOnly reports whether the client's credentials allow reads only.
func (c *Client) ReadOnly() bool {
	return c.readOnly
}

// HasTokenForAccount checks if credentials exist for the specified account
func HasTokenForAccount(account string) bool {
	return google.HasTokenForAccount(account)
}

// HasToken checks if credentials exist for the default account
func HasToken() bool {
	return HasTokenForAccount("default")
}

// NewClientForAccount creates a new Calendar client for a specific account.
// Credentials are resolved through the ordered credential strategies; when
// only a bare access token is available the client comes up read-only.
func NewClientForAccount(ctx context.Context, account string, opts ...ClientOption) (*Client, error) {
	creds, err := google.ResolveCredentials(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Google credentials for account %s: %w", account, err)
	}

	client := oauth2.NewClient(ctx, creds.TokenSource)

	// Force HTTP/1.1 by disabling HTTP/2
	if transport, ok := client.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{
			ForceAttemptHTTP2: false,
		}
	}

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	c := &Client{
		svc:      svc,
		account:  account,
		readOnly: creds.ReadOnly,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// NewClient creates a new Calendar client for the default account.
func NewClient(ctx context.Context, opts ...ClientOption) (*Client, error) {
	return NewClientForAccount(ctx, "default", opts...)
}

// record logs one provider operation and updates metrics.
func (c *Client) record(ctx context.Context, operation string, start time.Time, err error) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	if c.metrics != nil {
		c.metrics.RecordCalendarAPIOperation(ctx, operation, status, time.Since(start))
	}
	c.logger.Debug("calendar operation",
		logging.Operation("calendar."+operation),
		logging.Status(status),
		logging.Err(err),
	)
}

// BusyEvents fetches the participant's events overlapping the window and
// converts them to busy events. Transparent and all-day events come through
// as non-blocking; the engine filters them.
//
// BusyEvents implements scheduler.EventSource.
func (c *Client) BusyEvents(ctx context.Context, participant string, window availability.Interval) ([]availability.BusyEvent, error) {
	ctx, span := instrumentation.StartCalendarAPISpan(ctx, instrumentation.OperationList)
	defer span.End()
	start := time.Now()

	events, err := c.svc.Events.List(participant).
		TimeMin(window.Start.Format(time.RFC3339)).
		TimeMax(window.End.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	c.record(ctx, instrumentation.OperationList, start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to list events for %s: %w", logging.AnonymizeEmail(participant), err)
	}

	busy := make([]availability.BusyEvent, 0, len(events.Items))
	for _, event := range events.Items {
		busy = append(busy, toBusyEvent(event))
	}

	instrumentation.SetSpanSuccess(span)
	return busy, nil
}

// FreeBusy queries aggregated busy intervals for the given calendars. This
// is the cheaper alternative to BusyEvents when transparency detail is not
// needed.
func (c *Client) FreeBusy(ctx context.Context, window availability.Interval, calendarIDs []string) ([]FreeBusyInfo, error) {
	ctx, span := instrumentation.StartCalendarAPISpan(ctx, instrumentation.OperationFreeBusy)
	defer span.End()
	start := time.Now()

	items := make([]*calendar.FreeBusyRequestItem, len(calendarIDs))
	for i, id := range calendarIDs {
		items[i] = &calendar.FreeBusyRequestItem{Id: id}
	}

	query := &calendar.FreeBusyRequest{
		TimeMin: window.Start.Format(time.RFC3339),
		TimeMax: window.End.Format(time.RFC3339),
		Items:   items,
	}

	result, err := c.svc.Freebusy.Query(query).Context(ctx).Do()
	c.record(ctx, instrumentation.OperationFreeBusy, start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to query freebusy: %w", err)
	}

	var infos []FreeBusyInfo
	for calID, cal := range result.Calendars {
		info := FreeBusyInfo{
			Calendar: calID,
		}

		for _, busy := range cal.Busy {
			busyStart, err := time.Parse(time.RFC3339, busy.Start)
			if err != nil {
				continue
			}
			busyEnd, err := time.Parse(time.RFC3339, busy.End)
			if err != nil {
				continue
			}
			iv, err := availability.NewInterval(busyStart, busyEnd)
			if err != nil {
				continue
			}
			info.Busy = append(info.Busy, iv)
		}

		for _, calErr := range cal.Errors {
			info.Errors = append(info.Errors, calErr.Reason)
		}

		infos = append(infos, info)
	}

	instrumentation.SetSpanSuccess(span)
	return infos, nil
}

// Book creates a calendar event for the chosen slot, invites the attendees
// and optionally attaches a Google Meet conference.
//
// Book implements scheduler.BookingSink.
func (c *Client) Book(ctx context.Context, booking scheduler.Booking) (*scheduler.Confirmation, error) {
	created, err := c.CreateEvent(ctx, "primary", EventInput{
		Summary:        booking.Summary,
		Start:          booking.Slot.Start,
		End:            booking.Slot.End,
		Attendees:      booking.Attendees,
		WantsVideoLink: booking.WantsVideoLink,
	})
	if err != nil {
		return nil, err
	}

	return &scheduler.Confirmation{
		ID:        created.ID,
		Slot:      booking.Slot,
		Summary:   created.Summary,
		Attendees: booking.Attendees,
		VideoLink: created.VideoLink,
	}, nil
}

// CreateEvent creates a new calendar event. Attendees are notified and a
// Google Meet conference is attached when requested.
func (c *Client) CreateEvent(ctx context.Context, calendarID string, input EventInput) (*EventSummary, error) {
	if c.readOnly {
		return nil, &ReadOnlyError{Operation: "create event"}
	}

	ctx, span := instrumentation.StartCalendarAPISpan(ctx, instrumentation.OperationCreate)
	defer span.End()
	start := time.Now()

	if input.TimeZone == "" {
		input.TimeZone = "UTC"
	}

	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Location:    input.Location,
		Start: &calendar.EventDateTime{
			DateTime: input.Start.Format(time.RFC3339),
			TimeZone: input.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: input.End.Format(time.RFC3339),
			TimeZone: input.TimeZone,
		},
	}

	if len(input.Attendees) > 0 {
		var attendees []*calendar.EventAttendee
		for _, email := range input.Attendees {
			attendees = append(attendees, &calendar.EventAttendee{
				Email: email,
			})
		}
		event.Attendees = attendees
	}

	call := c.svc.Events.Insert(calendarID, event).
		SendUpdates("all").
		Context(ctx)

	if input.WantsVideoLink {
		event.ConferenceData = &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: uuid.NewString(),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
					Type: "hangoutsMeet",
				},
			},
		}
		call = call.ConferenceDataVersion(1)
	}

	created, err := call.Do()
	c.record(ctx, instrumentation.OperationCreate, start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	instrumentation.SetSpanSuccess(span)
	summary := toEventSummary(created)
	return &summary, nil
}

// ListEvents lists events in a calendar within a time range
func (c *Client) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, query string) ([]EventSummary, error) {
	ctx, span := instrumentation.StartCalendarAPISpan(ctx, instrumentation.OperationList)
	defer span.End()
	start := time.Now()

	call := c.svc.Events.List(calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx)

	if query != "" {
		call = call.Q(query)
	}

	events, err := call.Do()
	c.record(ctx, instrumentation.OperationList, start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	var summaries []EventSummary
	for _, event := range events.Items {
		summaries = append(summaries, toEventSummary(event))
	}

	instrumentation.SetSpanSuccess(span)
	return summaries, nil
}

// GetEvent retrieves a specific event by ID
func (c *Client) GetEvent(ctx context.Context, calendarID, eventID string) (*EventSummary, error) {
	ctx, span := instrumentation.StartCalendarAPISpan(ctx, instrumentation.OperationGet)
	defer span.End()
	start := time.Now()

	event, err := c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	c.record(ctx, instrumentation.OperationGet, start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	instrumentation.SetSpanSuccess(span)
	summary := toEventSummary(event)
	return &summary, nil
}

// UpdateEvent updates an existing calendar event. Only non-zero fields of
// the input overwrite the stored event.
func (c *Client) UpdateEvent(ctx context.Context, calendarID, eventID string, input EventInput) (*EventSummary, error) {
	if c.readOnly {
		return nil, &ReadOnlyError{Operation: "update event"}
	}

	ctx, span := instrumentation.StartCalendarAPISpan(ctx, instrumentation.OperationUpdate)
	defer span.End()
	start := time.Now()

	existing, err := c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		c.record(ctx, instrumentation.OperationUpdate, start, err)
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to get existing event: %w", err)
	}

	if input.Summary != "" {
		existing.Summary = input.Summary
	}
	if input.Description != "" {
		existing.Description = input.Description
	}
	if input.Location != "" {
		existing.Location = input.Location
	}

	tz := input.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	if !input.Start.IsZero() {
		existing.Start = &calendar.EventDateTime{
			DateTime: input.Start.Format(time.RFC3339),
			TimeZone: tz,
		}
	}
	if !input.End.IsZero() {
		existing.End = &calendar.EventDateTime{
			DateTime: input.End.Format(time.RFC3339),
			TimeZone: tz,
		}
	}

	if len(input.Attendees) > 0 {
		var attendees []*calendar.EventAttendee
		for _, email := range input.Attendees {
			attendees = append(attendees, &calendar.EventAttendee{
				Email: email,
			})
		}
		existing.Attendees = attendees
	}

	updated, err := c.svc.Events.Update(calendarID, eventID, existing).
		SendUpdates("all").
		Context(ctx).
		Do()
	c.record(ctx, instrumentation.OperationUpdate, start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	instrumentation.SetSpanSuccess(span)
	summary := toEventSummary(updated)
	return &summary, nil
}

// DeleteEvent deletes a calendar event
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if c.readOnly {
		return &ReadOnlyError{Operation: "delete event"}
	}

	ctx, span := instrumentation.StartCalendarAPISpan(ctx, instrumentation.OperationDelete)
	defer span.End()
	start := time.Now()

	err := c.svc.Events.Delete(calendarID, eventID).
		SendUpdates("all").
		Context(ctx).
		Do()
	c.record(ctx, instrumentation.OperationDelete, start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return fmt.Errorf("failed to delete event: %w", err)
	}

	instrumentation.SetSpanSuccess(span)
	return nil
}

// ConferenceDetails retrieves the video conference link from an event.
// Returns an empty string when the event has no conference.
func (c *Client) ConferenceDetails(ctx context.Context, calendarID, eventID string) (string, error) {
	ctx, span := instrumentation.StartCalendarAPISpan(ctx, instrumentation.OperationGet)
	defer span.End()
	start := time.Now()

	event, err := c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	c.record(ctx, instrumentation.OperationGet, start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return "", fmt.Errorf("failed to get event: %w", err)
	}

	instrumentation.SetSpanSuccess(span)
	return videoLink(event), nil
}

// ListCalendars lists all calendars accessible to the user
func (c *Client) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	ctx, span := instrumentation.StartCalendarAPISpan(ctx, instrumentation.OperationList)
	defer span.End()
	start := time.Now()

	list, err := c.svc.CalendarList.List().Context(ctx).Do()
	c.record(ctx, instrumentation.OperationList, start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	var calendars []CalendarInfo
	for _, entry := range list.Items {
		calendars = append(calendars, toCalendarInfo(entry))
	}

	instrumentation.SetSpanSuccess(span)
	return calendars, nil
}

// GetCalendar retrieves information about a specific calendar
func (c *Client) GetCalendar(ctx context.Context, calendarID string) (*CalendarInfo, error) {
	ctx, span := instrumentation.StartCalendarAPISpan(ctx, instrumentation.OperationGet)
	defer span.End()
	start := time.Now()

	entry, err := c.svc.CalendarList.Get(calendarID).Context(ctx).Do()
	c.record(ctx, instrumentation.OperationGet, start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to get calendar: %w", err)
	}

	instrumentation.SetSpanSuccess(span)
	info := toCalendarInfo(entry)
	return &info, nil
}

// GetPrimaryCalendar retrieves information about the primary calendar
func (c *Client) GetPrimaryCalendar(ctx context.Context) (*CalendarInfo, error) {
	return c.GetCalendar(ctx, "primary")
}

var (
	_ scheduler.EventSource = (*Client)(nil)
	_ scheduler.BookingSink = (*Client)(nil)
)
