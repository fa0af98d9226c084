package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/teamodea/meetfinder/internal/availability"
	"github.com/teamodea/meetfinder/internal/calendar"
	"github.com/teamodea/meetfinder/internal/scheduler"
)

// fakeBackend implements ScheduleBackend in memory.
type fakeBackend struct {
	busy     map[string][]availability.BusyEvent
	busyErr  error
	readOnly bool

	bookings []scheduler.Booking
	events   []calendar.EventSummary

	updatedID string
	updated   *calendar.EventInput
	deletedID string
}

func (f *fakeBackend) BusyEvents(_ context.Context, participant string, _ availability.Interval) ([]availability.BusyEvent, error) {
	if f.busyErr != nil {
		return nil, f.busyErr
	}
	return f.busy[participant], nil
}

func (f *fakeBackend) Book(_ context.Context, booking scheduler.Booking) (*scheduler.Confirmation, error) {
	f.bookings = append(f.bookings, booking)
	confirmation := &scheduler.Confirmation{
		ID:        fmt.Sprintf("evt-%d", len(f.bookings)),
		Slot:      booking.Slot,
		Summary:   booking.Summary,
		Attendees: booking.Attendees,
	}
	if booking.WantsVideoLink {
		confirmation.VideoLink = "https://meet.google.com/abc-defg-hij"
	}
	return confirmation, nil
}

func (f *fakeBackend) ReadOnly() bool {
	return f.readOnly
}

func (f *fakeBackend) ListEvents(_ context.Context, _ string, _, _ time.Time, _ string) ([]calendar.EventSummary, error) {
	return f.events, nil
}

func (f *fakeBackend) UpdateEvent(_ context.Context, _ string, eventID string, input calendar.EventInput) (*calendar.EventSummary, error) {
	f.updatedID = eventID
	f.updated = &input
	return &calendar.EventSummary{ID: eventID, Summary: input.Summary}, nil
}

func (f *fakeBackend) DeleteEvent(_ context.Context, _ string, eventID string) error {
	f.deletedID = eventID
	return nil
}

func testPolicy(t *testing.T) availability.WorkingPolicy {
	t.Helper()
	policy, err := availability.NewPolicy("UTC", 8, 17,
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)
	if err != nil {
		t.Fatalf("NewPolicy() error = %v", err)
	}
	return policy
}

func newTestAPIServer(t *testing.T, backend ScheduleBackend, domains ...string) *APIServer {
	t.Helper()

	// Isolate from any real credentials on the host.
	t.Setenv("GOOGLE_ACCESS_TOKEN", "")
	t.Setenv("GOOGLE_REFRESH_TOKEN", "")
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	sc, err := NewServerContext(context.Background())
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}
	t.Cleanup(func() { _ = sc.Shutdown() })

	if len(domains) == 0 {
		domains = []string{"teamodea.com"}
	}
	return NewAPIServer(sc, APIConfig{
		Policy:         testPolicy(t),
		AllowedDomains: domains,
	}, WithScheduleBackend(backend))
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeAvailability(t *testing.T, rec *httptest.ResponseRecorder) availabilityResponse {
	t.Helper()
	var resp availabilityResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return ts
}

func TestHandleSchedule_FindAvailability(t *testing.T) {
	// Monday 2026-01-05, alice busy 09:00-17:00 UTC leaving only the
	// first working hour free.
	backend := &fakeBackend{
		busy: map[string][]availability.BusyEvent{
			"alice@teamodea.com": {
				{
					Start: mustTime(t, "2026-01-05T09:00:00Z"),
					End:   mustTime(t, "2026-01-05T17:00:00Z"),
				},
			},
		},
	}
	handler := newTestAPIServer(t, backend).Handler()

	rec := postJSON(t, handler, "/api/schedule", scheduleRequest{
		MeetingType:  "find_availability",
		Participants: []string{"alice@teamodea.com"},
		Duration:     60,
		DateRange: dateRangePayload{
			Start: "2026-01-05T00:00:00Z",
			End:   "2026-01-06T00:00:00Z",
		},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	resp := decodeAvailability(t, rec)
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	if len(resp.Slots) != 1 {
		t.Fatalf("slots = %d, want 1", len(resp.Slots))
	}
	if resp.Slots[0].Start != "2026-01-05T08:00:00Z" || resp.Slots[0].End != "2026-01-05T09:00:00Z" {
		t.Errorf("slot = %s to %s, want 08:00 to 09:00", resp.Slots[0].Start, resp.Slots[0].End)
	}
}

func TestHandleSchedule_FindAvailabilityMessages(t *testing.T) {
	tests := []struct {
		name        string
		backend     *fakeBackend
		dateRange   dateRangePayload
		wantMessage string
	}{
		{
			name:    "weekend only range",
			backend: &fakeBackend{},
			dateRange: dateRangePayload{
				Start: "2026-01-03T00:00:00Z", // Saturday
				End:   "2026-01-05T00:00:00Z",
			},
			wantMessage: msgNoWorkingHours,
		},
		{
			name: "fully booked",
			backend: &fakeBackend{
				busy: map[string][]availability.BusyEvent{
					"alice@teamodea.com": {
						{
							Start: mustTime(t, "2026-01-05T00:00:00Z"),
							End:   mustTime(t, "2026-01-06T00:00:00Z"),
						},
					},
				},
			},
			dateRange: dateRangePayload{
				Start: "2026-01-05T00:00:00Z",
				End:   "2026-01-06T00:00:00Z",
			},
			wantMessage: msgNoFreeSlots,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestAPIServer(t, tt.backend).Handler()
			rec := postJSON(t, handler, "/api/schedule", scheduleRequest{
				MeetingType:  "find_availability",
				Participants: []string{"alice@teamodea.com"},
				Duration:     30,
				DateRange:    tt.dateRange,
			})

			resp := decodeAvailability(t, rec)
			if resp.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", resp.Message, tt.wantMessage)
			}
			if len(resp.Slots) != 0 {
				t.Errorf("slots = %d, want 0", len(resp.Slots))
			}
		})
	}
}

func TestHandleSchedule_ReadOnlyNote(t *testing.T) {
	backend := &fakeBackend{readOnly: true}
	handler := newTestAPIServer(t, backend).Handler()

	rec := postJSON(t, handler, "/api/schedule", scheduleRequest{
		MeetingType:  "find_availability",
		Participants: []string{"alice@teamodea.com"},
		Duration:     30,
		DateRange: dateRangePayload{
			Start: "2026-01-05T00:00:00Z",
			End:   "2026-01-06T00:00:00Z",
		},
	})

	resp := decodeAvailability(t, rec)
	if resp.Message != msgReadOnlyNote {
		t.Errorf("message = %q, want read-only note", resp.Message)
	}
	if len(resp.Slots) == 0 {
		t.Error("expected slots alongside the read-only note")
	}
}

func TestHandleSchedule_DomainNotAllowed(t *testing.T) {
	backend := &fakeBackend{}
	handler := newTestAPIServer(t, backend).Handler()

	rec := postJSON(t, handler, "/api/schedule", scheduleRequest{
		MeetingType:  "find_availability",
		Participants: []string{"mallory@elsewhere.com"},
		Duration:     30,
		DateRange: dateRangePayload{
			Start: "2026-01-05T00:00:00Z",
			End:   "2026-01-06T00:00:00Z",
		},
	})

	resp := decodeAvailability(t, rec)
	if !strings.Contains(resp.Error, "mallory@elsewhere.com") {
		t.Errorf("error = %q, want it to name the rejected email", resp.Error)
	}
}

func TestHandleSchedule_WildcardDomain(t *testing.T) {
	backend := &fakeBackend{}
	handler := newTestAPIServer(t, backend, "*").Handler()

	rec := postJSON(t, handler, "/api/schedule", scheduleRequest{
		MeetingType:  "find_availability",
		Participants: []string{"anyone@anywhere.org"},
		Duration:     30,
		DateRange: dateRangePayload{
			Start: "2026-01-05T00:00:00Z",
			End:   "2026-01-06T00:00:00Z",
		},
	})

	resp := decodeAvailability(t, rec)
	if resp.Error != "" {
		t.Errorf("unexpected error with wildcard domain: %s", resp.Error)
	}
}

func TestHandleSchedule_ScheduleMeeting(t *testing.T) {
	backend := &fakeBackend{}
	handler := newTestAPIServer(t, backend).Handler()

	rec := postJSON(t, handler, "/api/schedule", scheduleRequest{
		MeetingType:  "schedule_meeting",
		Participants: []string{"alice@teamodea.com", "bob@teamodea.com"},
		Duration:     30,
		MeetingName:  "Design sync",
		TimeSlot: &timeSlotPayload{
			Start: "2026-01-05T10:00:00Z",
			End:   "2026-01-05T10:30:00Z",
		},
		AddGoogleMeet: true,
		DateRange: dateRangePayload{
			Start: "2026-01-05T00:00:00Z",
			End:   "2026-01-06T00:00:00Z",
		},
	})

	resp := decodeAvailability(t, rec)
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	if resp.ScheduledMeeting == nil {
		t.Fatal("expected a scheduled meeting in the response")
	}
	if resp.ScheduledMeeting.Summary != "Design sync" {
		t.Errorf("summary = %q, want %q", resp.ScheduledMeeting.Summary, "Design sync")
	}
	if resp.ScheduledMeeting.Start != "2026-01-05T10:00:00Z" {
		t.Errorf("start = %q, want the provided slot start", resp.ScheduledMeeting.Start)
	}
	if resp.ScheduledMeeting.VideoLink == "" {
		t.Error("expected a video link on the scheduled meeting")
	}

	if len(backend.bookings) != 1 {
		t.Fatalf("bookings = %d, want 1", len(backend.bookings))
	}
	if !backend.bookings[0].WantsVideoLink {
		t.Error("booking should request a video link")
	}
}

func TestHandleSchedule_ScheduleMeetingFirstSlot(t *testing.T) {
	// No time slot in the request: the first candidate slot is booked.
	backend := &fakeBackend{
		busy: map[string][]availability.BusyEvent{
			"alice@teamodea.com": {
				{
					Start: mustTime(t, "2026-01-05T08:00:00Z"),
					End:   mustTime(t, "2026-01-05T10:00:00Z"),
				},
			},
		},
	}
	handler := newTestAPIServer(t, backend).Handler()

	rec := postJSON(t, handler, "/api/schedule", scheduleRequest{
		MeetingType:  "schedule_meeting",
		Participants: []string{"alice@teamodea.com"},
		Duration:     60,
		DateRange: dateRangePayload{
			Start: "2026-01-05T00:00:00Z",
			End:   "2026-01-06T00:00:00Z",
		},
	})

	resp := decodeAvailability(t, rec)
	if resp.ScheduledMeeting == nil {
		t.Fatalf("expected a scheduled meeting, got error=%q message=%q", resp.Error, resp.Message)
	}
	if resp.ScheduledMeeting.Start != "2026-01-05T10:00:00Z" {
		t.Errorf("start = %q, want first free slot at 10:00", resp.ScheduledMeeting.Start)
	}
	if resp.ScheduledMeeting.Summary != "Meeting (60 minutes)" {
		t.Errorf("summary = %q, want default summary", resp.ScheduledMeeting.Summary)
	}
}

func TestHandleSchedule_ScheduleMeetingReadOnly(t *testing.T) {
	backend := &fakeBackend{readOnly: true}
	handler := newTestAPIServer(t, backend).Handler()

	rec := postJSON(t, handler, "/api/schedule", scheduleRequest{
		MeetingType:  "schedule_meeting",
		Participants: []string{"alice@teamodea.com"},
		Duration:     30,
		DateRange: dateRangePayload{
			Start: "2026-01-05T00:00:00Z",
			End:   "2026-01-06T00:00:00Z",
		},
	})

	resp := decodeAvailability(t, rec)
	if resp.Error != msgReadOnlyRefusal {
		t.Errorf("error = %q, want read-only refusal", resp.Error)
	}
	if len(backend.bookings) != 0 {
		t.Errorf("bookings = %d, want 0", len(backend.bookings))
	}
}

func TestHandleSchedule_UnknownMeetingType(t *testing.T) {
	handler := newTestAPIServer(t, &fakeBackend{}).Handler()

	rec := postJSON(t, handler, "/api/schedule", scheduleRequest{
		MeetingType:  "reschedule_everything",
		Participants: []string{"alice@teamodea.com"},
		Duration:     30,
		DateRange: dateRangePayload{
			Start: "2026-01-05T00:00:00Z",
			End:   "2026-01-06T00:00:00Z",
		},
	})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleSchedule_InvalidBody(t *testing.T) {
	handler := newTestAPIServer(t, &fakeBackend{}).Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/schedule", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleListEvents(t *testing.T) {
	backend := &fakeBackend{
		events: []calendar.EventSummary{
			{ID: "evt-1", Summary: "Standup"},
			{ID: "evt-2", Summary: "Planning"},
		},
	}
	handler := newTestAPIServer(t, backend).Handler()

	rec := postJSON(t, handler, "/api/events", eventsRequest{
		DateRange: dateRangePayload{
			Start: "2026-01-05T00:00:00Z",
			End:   "2026-01-06T00:00:00Z",
		},
	})

	var resp eventsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	if len(resp.Events) != 2 {
		t.Errorf("events = %d, want 2", len(resp.Events))
	}
	if resp.DateRange.Start != "2026-01-05T00:00:00Z" {
		t.Errorf("date range not echoed back: %+v", resp.DateRange)
	}
}

func TestHandleUpdateEvent(t *testing.T) {
	backend := &fakeBackend{}
	handler := newTestAPIServer(t, backend).Handler()

	rec := postJSON(t, handler, "/api/events/evt-42/update", updateEventRequest{
		Summary:   "Moved meeting",
		StartTime: "2026-01-05T11:00:00Z",
		EndTime:   "2026-01-05T11:30:00Z",
	})

	var resp updateEventResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	if backend.updatedID != "evt-42" {
		t.Errorf("updated event ID = %q, want %q", backend.updatedID, "evt-42")
	}
	if backend.updated == nil || backend.updated.Summary != "Moved meeting" {
		t.Errorf("updated input = %+v, want summary %q", backend.updated, "Moved meeting")
	}
}

func TestHandleUpdateEvent_ReadOnly(t *testing.T) {
	backend := &fakeBackend{readOnly: true}
	handler := newTestAPIServer(t, backend).Handler()

	rec := postJSON(t, handler, "/api/events/evt-42/update", updateEventRequest{
		Summary:   "Moved meeting",
		StartTime: "2026-01-05T11:00:00Z",
		EndTime:   "2026-01-05T11:30:00Z",
	})

	var resp updateEventResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != msgReadOnlyRefusal {
		t.Errorf("error = %q, want read-only refusal", resp.Error)
	}
	if backend.updatedID != "" {
		t.Error("update should not reach the backend in read-only mode")
	}
}

func TestHandleDeleteEvent(t *testing.T) {
	backend := &fakeBackend{}
	handler := newTestAPIServer(t, backend).Handler()

	req := httptest.NewRequest(http.MethodDelete, "/api/events/evt-7", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var resp deleteEventResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Errorf("success = false, error = %q", resp.Error)
	}
	if backend.deletedID != "evt-7" {
		t.Errorf("deleted event ID = %q, want %q", backend.deletedID, "evt-7")
	}
}

func TestValidateEmailDomain(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		allowed []string
		want    bool
	}{
		{"allowed domain", "alice@teamodea.com", []string{"teamodea.com"}, true},
		{"case insensitive", "alice@TeamOdea.COM", []string{"teamodea.com"}, true},
		{"other domain", "bob@elsewhere.com", []string{"teamodea.com"}, false},
		{"wildcard", "bob@elsewhere.com", []string{"*"}, true},
		{"several domains", "bob@partner.io", []string{"teamodea.com", "partner.io"}, true},
		{"no at sign", "not-an-email", []string{"*"}, false},
		{"empty local part", "@teamodea.com", []string{"teamodea.com"}, false},
		{"trailing at", "alice@", []string{"*"}, false},
		{"empty email", "", []string{"*"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := validateEmailDomain(tt.email, tt.allowed); got != tt.want {
				t.Errorf("validateEmailDomain(%q, %v) = %v, want %v", tt.email, tt.allowed, got, tt.want)
			}
		})
	}
}

func TestParseAllowedDomains(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{"empty", "", nil},
		{"single", "teamodea.com", []string{"teamodea.com"}},
		{"several with spaces", "teamodea.com, partner.io ,other.dev", []string{"teamodea.com", "partner.io", "other.dev"}},
		{"wildcard", "*", []string{"*"}},
		{"stray commas", ",teamodea.com,,", []string{"teamodea.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAllowedDomains(tt.value)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseAllowedDomains(%q) = %v, want %v", tt.value, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseAllowedDomains(%q)[%d] = %q, want %q", tt.value, i, got[i], tt.want[i])
				}
			}
		})
	}
}
