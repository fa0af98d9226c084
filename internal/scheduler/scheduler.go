package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teamodea/meetfinder/internal/instrumentation"
	"github.com/teamodea/meetfinder/internal/logging"
)

// Scheduler books meetings: it finds a slot through its Finder when the
// request does not carry one, then delegates the booking to the sink.
type Scheduler struct {
	finder *Finder
	sink   BookingSink
	logger *slog.Logger
}

// NewScheduler creates a Scheduler over the given finder and booking sink.
func NewScheduler(finder *Finder, sink BookingSink, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		finder: finder,
		sink:   sink,
		logger: logger,
	}
}

// Schedule books a meeting for the request. A pre-chosen slot is used
// unchanged; otherwise the first candidate slot from a fresh availability
// search is taken. When the search comes back empty the informational
// outcome is returned instead of a confirmation.
func (s *Scheduler) Schedule(ctx context.Context, req Request) (*ScheduleResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := instrumentation.StartSpan(ctx, "availability.schedule")
	defer span.End()

	logger := logging.WithOperation(s.logger, "schedule")

	slot := req.Slot
	if slot != nil {
		if !slot.Start.Before(slot.End) {
			return nil, &InvalidRequestError{Reason: "provided time slot start must be before its end"}
		}
	} else {
		result, err := s.finder.FindSlots(ctx, req)
		if err != nil {
			instrumentation.SetSpanError(span, err)
			return nil, err
		}
		if result.Outcome != OutcomeSlotsFound {
			logger.Info("nothing to book", slog.String("outcome", string(result.Outcome)))
			instrumentation.SetSpanSuccess(span)
			return &ScheduleResult{Outcome: result.Outcome}, nil
		}
		slot = &result.Slots[0]
	}

	summary := req.Summary
	if summary == "" {
		summary = fmt.Sprintf("Meeting (%d minutes)", int(req.Duration.Minutes()))
	}

	confirmation, err := s.sink.Book(ctx, Booking{
		Summary:        summary,
		Slot:           *slot,
		Attendees:      req.Participants,
		WantsVideoLink: req.WantsVideoLink,
	})
	if err != nil {
		instrumentation.SetSpanError(span, err)
		logger.Error("booking failed", logging.Err(err))
		return nil, fmt.Errorf("failed to book meeting: %w", err)
	}

	logger.Info("meeting booked",
		slog.String("meeting_id", confirmation.ID),
		slog.Time("slot_start", confirmation.Slot.Start),
		slog.Time("slot_end", confirmation.Slot.End),
		slog.Int("attendees", len(confirmation.Attendees)))
	instrumentation.SetSpanSuccess(span)

	return &ScheduleResult{Confirmation: confirmation, Outcome: OutcomeSlotsFound}, nil
}

// FindSlots exposes the underlying finder so callers holding a Scheduler
// can answer find-availability requests without a second wiring path.
func (s *Scheduler) FindSlots(ctx context.Context, req Request) (*Result, error) {
	return s.finder.FindSlots(ctx, req)
}
