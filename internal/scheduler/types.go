package scheduler

import (
	"context"
	"time"

	"github.com/teamodea/meetfinder/internal/availability"
)

// EventSource fetches the calendar events of a single participant within a
// time range. Implementations own authentication, retries and rate
// limiting; the orchestrator only sees events or an error.
type EventSource interface {
	BusyEvents(ctx context.Context, participant string, window availability.Interval) ([]availability.BusyEvent, error)
}

// BookingSink books a meeting into a chosen slot. The orchestrator passes
// the slot through unchanged; provider-specific payloads are the sink's
// concern.
type BookingSink interface {
	Book(ctx context.Context, booking Booking) (*Confirmation, error)
}

// Request describes one availability computation.
type Request struct {
	// Participants are the calendar identifiers (usually email addresses)
	// whose mutual availability is computed. Must be non-empty.
	Participants []string

	// RangeStart and RangeEnd bound the search. RangeStart must be before
	// RangeEnd.
	RangeStart time.Time
	RangeEnd   time.Time

	// Duration is the meeting length. Must be positive.
	Duration time.Duration

	// Slot, when set, is a pre-chosen candidate slot: scheduling uses it
	// directly instead of searching.
	Slot *availability.Interval

	// Summary is the meeting title used when booking.
	Summary string

	// WantsVideoLink requests a video conference link on the booked event.
	WantsVideoLink bool
}

// Validate eagerly rejects malformed requests before any fetch is issued.
func (r Request) Validate() error {
	if len(r.Participants) == 0 {
		return &InvalidRequestError{Reason: "participant list is empty"}
	}
	if r.Duration <= 0 {
		return &InvalidRequestError{Reason: "meeting duration must be positive"}
	}
	if !r.RangeStart.Before(r.RangeEnd) {
		return &InvalidRequestError{Reason: "date range start must be before its end"}
	}
	return nil
}

// Outcome distinguishes the ways an availability computation can finish
// without failing. Empty results are information, not errors.
type Outcome string

const (
	// OutcomeSlotsFound means at least one candidate slot was found.
	OutcomeSlotsFound Outcome = "slots_found"

	// OutcomeNoWorkingHours means the date range contains no working time
	// at all (weekend-only range, for example).
	OutcomeNoWorkingHours Outcome = "no_working_hours"

	// OutcomeNoFreeSlots means working time exists but every participant-
	// free stretch is shorter than the requested duration.
	OutcomeNoFreeSlots Outcome = "no_free_slots"
)

// Result is the terminal output of a find-slots run. Slots is non-empty
// exactly when Outcome is OutcomeSlotsFound.
type Result struct {
	Outcome Outcome
	Slots   []availability.Interval
}

// Booking is the input handed to the BookingSink.
type Booking struct {
	Summary        string
	Slot           availability.Interval
	Attendees      []string
	WantsVideoLink bool
}

// Confirmation is the sink's acknowledgement of a booked meeting.
type Confirmation struct {
	ID        string
	Slot      availability.Interval
	Summary   string
	Attendees []string
	VideoLink string
}

// ScheduleResult is the terminal output of a schedule run: either a
// confirmation, or the informational outcome that prevented booking.
type ScheduleResult struct {
	Confirmation *Confirmation
	Outcome      Outcome
}
