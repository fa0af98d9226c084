package calendar

import (
	"testing"
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

func TestToBusyEvent_Timed(t *testing.T) {
	event := &calendar.Event{
		Start: &calendar.EventDateTime{DateTime: "2025-03-03T09:00:00-06:00"},
		End:   &calendar.EventDateTime{DateTime: "2025-03-03T10:00:00-06:00"},
	}

	busy := toBusyEvent(event)

	if busy.Transparent {
		t.Error("expected opaque event")
	}
	if !busy.Blocking() {
		t.Error("timed opaque event should be blocking")
	}
	if busy.End.Sub(busy.Start) != time.Hour {
		t.Errorf("expected 1h busy event, got %v", busy.End.Sub(busy.Start))
	}
}

func TestToBusyEvent_Transparent(t *testing.T) {
	event := &calendar.Event{
		Transparency: "transparent",
		Start:        &calendar.EventDateTime{DateTime: "2025-03-03T09:00:00Z"},
		End:          &calendar.EventDateTime{DateTime: "2025-03-03T10:00:00Z"},
	}

	busy := toBusyEvent(event)

	if !busy.Transparent {
		t.Error("expected transparent event")
	}
	if busy.Blocking() {
		t.Error("transparent event should not be blocking")
	}
}

func TestToBusyEvent_AllDay(t *testing.T) {
	// All-day events carry Date instead of DateTime and must not block.
	event := &calendar.Event{
		Start: &calendar.EventDateTime{Date: "2025-03-03"},
		End:   &calendar.EventDateTime{Date: "2025-03-04"},
	}

	busy := toBusyEvent(event)

	if !busy.Start.IsZero() || !busy.End.IsZero() {
		t.Error("all-day event should have zero timestamps")
	}
	if busy.Blocking() {
		t.Error("all-day event should not be blocking")
	}
}

func TestToEventSummary_Nil(t *testing.T) {
	summary := toEventSummary(nil)
	if summary.ID != "" {
		t.Errorf("expected empty ID for nil event, got %s", summary.ID)
	}
}

func TestToEventSummary(t *testing.T) {
	event := &calendar.Event{
		Id:      "evt123",
		Summary: "Team Meeting",
		Status:  "confirmed",
		Start:   &calendar.EventDateTime{DateTime: "2025-03-03T09:00:00Z"},
		End:     &calendar.EventDateTime{DateTime: "2025-03-03T09:30:00Z"},
		Organizer: &calendar.EventOrganizer{
			Email: "organizer@example.com",
		},
		Attendees: []*calendar.EventAttendee{
			{Email: "alice@example.com", ResponseStatus: "accepted"},
			{Email: "bob@example.com", ResponseStatus: "needsAction"},
		},
		ConferenceData: &calendar.ConferenceData{
			EntryPoints: []*calendar.EntryPoint{
				{EntryPointType: "phone", Uri: "tel:+1-555-0100"},
				{EntryPointType: "video", Uri: "https://meet.google.com/abc-defg-hij"},
			},
		},
	}

	summary := toEventSummary(event)

	if summary.ID != "evt123" {
		t.Errorf("ID = %q, want %q", summary.ID, "evt123")
	}
	if summary.Organizer != "organizer@example.com" {
		t.Errorf("Organizer = %q, want %q", summary.Organizer, "organizer@example.com")
	}
	if len(summary.Attendees) != 2 {
		t.Fatalf("expected 2 attendees, got %d", len(summary.Attendees))
	}
	if summary.Attendees[0].ResponseStatus != "accepted" {
		t.Errorf("first attendee status = %q, want %q", summary.Attendees[0].ResponseStatus, "accepted")
	}
	if summary.VideoLink != "https://meet.google.com/abc-defg-hij" {
		t.Errorf("VideoLink = %q, want Meet link", summary.VideoLink)
	}
	if summary.End.Sub(summary.Start) != 30*time.Minute {
		t.Errorf("duration = %v, want 30m", summary.End.Sub(summary.Start))
	}
}

func TestVideoLink_HangoutFallback(t *testing.T) {
	event := &calendar.Event{
		HangoutLink: "https://meet.google.com/xyz",
	}

	if link := videoLink(event); link != "https://meet.google.com/xyz" {
		t.Errorf("videoLink = %q, want hangout link", link)
	}

	if link := videoLink(nil); link != "" {
		t.Errorf("videoLink(nil) = %q, want empty", link)
	}
}

func TestToCalendarInfo(t *testing.T) {
	info := toCalendarInfo(nil)
	if info.ID != "" {
		t.Errorf("expected empty ID for nil entry, got %s", info.ID)
	}

	entry := &calendar.CalendarListEntry{
		Id:         "primary",
		Summary:    "Work",
		TimeZone:   "America/Chicago",
		Primary:    true,
		AccessRole: "owner",
	}
	info = toCalendarInfo(entry)
	if !info.Primary {
		t.Error("expected primary calendar")
	}
	if info.TimeZone != "America/Chicago" {
		t.Errorf("TimeZone = %q, want %q", info.TimeZone, "America/Chicago")
	}
}

func TestHasTokenForAccount(t *testing.T) {
	t.Setenv("GOOGLE_ACCESS_TOKEN", "")
	t.Setenv("GOOGLE_REFRESH_TOKEN", "")

	// Invalid account names never have tokens
	if HasTokenForAccount("") {
		t.Error("expected false for empty account name")
	}
}

func TestReadOnlyError(t *testing.T) {
	c := &Client{readOnly: true}

	if !c.ReadOnly() {
		t.Error("expected read-only client")
	}

	err := &ReadOnlyError{Operation: "create event"}
	if err.Error() == "" {
		t.Error("expected non-empty error message")
	}
}

func TestEventInput_Structure(t *testing.T) {
	tests := []struct {
		name  string
		input EventInput
	}{
		{
			name: "basic event",
			input: EventInput{
				Summary: "Test Event",
				Start:   time.Now(),
				End:     time.Now().Add(time.Hour),
			},
		},
		{
			name: "event with attendees",
			input: EventInput{
				Summary:   "Team Meeting",
				Start:     time.Now(),
				End:       time.Now().Add(time.Hour),
				Attendees: []string{"user1@example.com", "user2@example.com"},
			},
		},
		{
			name: "event with Google Meet",
			input: EventInput{
				Summary:        "Video Call",
				Start:          time.Now(),
				End:            time.Now().Add(time.Hour),
				WantsVideoLink: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.input.Summary == "" {
				t.Error("expected non-empty summary")
			}
			if tt.input.End.Before(tt.input.Start) {
				t.Error("end time should be after start time")
			}
		})
	}
}
