package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/teamodea/meetfinder/internal/availability"
	"github.com/teamodea/meetfinder/internal/instrumentation"
	"github.com/teamodea/meetfinder/internal/logging"
)

// DefaultFetchTimeout bounds the per-request participant fetch phase.
const DefaultFetchTimeout = 30 * time.Second

// Finder runs the availability pipeline for multi-participant requests.
// It is stateless across calls and safe for concurrent use.
type Finder struct {
	source       EventSource
	policy       availability.WorkingPolicy
	logger       *slog.Logger
	fetchTimeout time.Duration
}

// FinderOption configures a Finder.
type FinderOption func(*Finder)

// WithLogger sets the logger used by the Finder.
func WithLogger(logger *slog.Logger) FinderOption {
	return func(f *Finder) {
		f.logger = logger
	}
}

// WithFetchTimeout overrides the participant fetch timeout.
func WithFetchTimeout(timeout time.Duration) FinderOption {
	return func(f *Finder) {
		f.fetchTimeout = timeout
	}
}

// NewFinder creates a Finder over the given event source and working
// policy.
func NewFinder(source EventSource, policy availability.WorkingPolicy, opts ...FinderOption) *Finder {
	f := &Finder{
		source:       source,
		policy:       policy,
		logger:       slog.Default(),
		fetchTimeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FindSlots computes the candidate slots in which every participant is
// free. Malformed requests are rejected before any fetch is issued. An
// empty date range (no working hours) and a fully-booked range are
// reported as informational outcomes, never as errors.
func (f *Finder) FindSlots(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := instrumentation.StartSpan(ctx, "availability.find_slots")
	defer span.End()

	logger := logging.WithOperation(f.logger, "find_slots")

	windows := f.policy.Windows(req.RangeStart, req.RangeEnd)
	if len(windows) == 0 {
		logger.Info("no working hours in requested range",
			slog.Time("range_start", req.RangeStart),
			slog.Time("range_end", req.RangeEnd))
		instrumentation.SetSpanSuccess(span)
		return &Result{Outcome: OutcomeNoWorkingHours}, nil
	}

	events, err := f.fetchBusyEvents(ctx, req)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		logger.Error("participant fetch failed", logging.Err(err))
		return nil, err
	}

	busy := availability.Merge(f.policy.ExtractBusy(events))
	free := availability.Subtract(windows, busy)
	slots := f.policy.Slots(free, req.Duration)

	logger.Info("availability computed",
		slog.Int("participants", len(req.Participants)),
		slog.Int("working_windows", len(windows)),
		slog.Int("busy_intervals", len(busy)),
		slog.Int("free_intervals", len(free)),
		slog.Int("candidate_slots", len(slots)))
	instrumentation.SetSpanSuccess(span)

	if len(slots) == 0 {
		return &Result{Outcome: OutcomeNoFreeSlots}, nil
	}
	return &Result{Outcome: OutcomeSlotsFound, Slots: slots}, nil
}

// fetchBusyEvents fans out one fetch per participant, waits for all of
// them, and fails fast: the first failure cancels the remaining fetches.
// Fetches are independent reads against unrelated calendars, so they share
// nothing and their results are only combined after all complete.
func (f *Finder) fetchBusyEvents(ctx context.Context, req Request) ([]availability.BusyEvent, error) {
	window := availability.Interval{Start: req.RangeStart, End: req.RangeEnd}

	fetchCtx, cancel := context.WithTimeout(ctx, f.fetchTimeout)
	defer cancel()

	type fetchResult struct {
		participant string
		events      []availability.BusyEvent
		err         error
	}

	results := make(chan fetchResult, len(req.Participants))
	for _, participant := range req.Participants {
		go func(participant string) {
			events, err := f.source.BusyEvents(fetchCtx, participant, window)
			results <- fetchResult{participant: participant, events: events, err: err}
		}(participant)
	}

	var all []availability.BusyEvent
	var firstErr error
	for range req.Participants {
		res := <-results
		if res.err != nil {
			if firstErr == nil {
				cancel()
				cause := res.err
				if errors.Is(cause, context.DeadlineExceeded) && fetchCtx.Err() != nil {
					cause = ErrFetchTimeout
				}
				firstErr = &ParticipantFetchError{Participant: res.participant, Err: cause}
			}
			continue
		}
		all = append(all, res.events...)
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return all, nil
}
