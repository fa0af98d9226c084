package availability

import (
	"fmt"
	"time"
)

// Defaults matching the company-wide scheduling policy: 8:00-17:00
// Central Time, Monday through Friday.
const (
	DefaultTimeZone  = "America/Chicago"
	DefaultWorkStart = 8
	DefaultWorkEnd   = 17
)

// WorkingPolicy describes when meetings may be scheduled: the canonical
// timezone every instant is normalized to, the half-open working-hour range
// [WorkStartHour, WorkEndHour) in that timezone's local clock, and the set
// of working weekdays.
//
// A policy is constructed once per request and read-only afterward; it is
// safe to share between goroutines.
type WorkingPolicy struct {
	Location      *time.Location
	WorkStartHour int
	WorkEndHour   int
	Weekdays      map[time.Weekday]bool
}

// NewPolicy builds a WorkingPolicy for the given IANA timezone name,
// working-hour range and weekdays.
func NewPolicy(timezone string, workStart, workEnd int, weekdays ...time.Weekday) (WorkingPolicy, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return WorkingPolicy{}, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}
	if workStart < 0 || workEnd > 24 || workStart >= workEnd {
		return WorkingPolicy{}, fmt.Errorf("invalid working hours [%d, %d)", workStart, workEnd)
	}
	if len(weekdays) == 0 {
		return WorkingPolicy{}, fmt.Errorf("at least one working weekday is required")
	}

	days := make(map[time.Weekday]bool, len(weekdays))
	for _, d := range weekdays {
		days[d] = true
	}

	return WorkingPolicy{
		Location:      loc,
		WorkStartHour: workStart,
		WorkEndHour:   workEnd,
		Weekdays:      days,
	}, nil
}

// DefaultPolicy returns the standard policy: 8:00-17:00 Central Time,
// Monday through Friday.
func DefaultPolicy() (WorkingPolicy, error) {
	return NewPolicy(DefaultTimeZone, DefaultWorkStart, DefaultWorkEnd,
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)
}

// Normalize converts an instant to the policy's canonical timezone.
// All interval arithmetic in this package compares instants that went
// through Normalize, so mixed-timezone inputs are harmless.
func (p WorkingPolicy) Normalize(t time.Time) time.Time {
	return t.In(p.Location)
}

// Timestamp layouts accepted by ParseInstant, tried in order.
var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
}

// Layouts for timestamps that carry no UTC offset at all.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ParseInstant parses a timestamp string and normalizes it to the policy's
// canonical timezone.
//
// A timestamp without an explicit UTC offset is assumed to be UTC. This is
// a documented property of the engine, not a per-call-site heuristic:
// providers that emit naive timestamps do so in UTC, and guessing any other
// zone would silently shift busy intervals.
func (p WorkingPolicy) ParseInstant(value string) (time.Time, error) {
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return p.Normalize(t), nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return p.Normalize(t), nil
		}
	}
	return time.Time{}, &InvalidTimestampError{
		Value: value,
		Err:   fmt.Errorf("not a recognized RFC3339 timestamp"),
	}
}

// midnightOf returns local midnight of the day containing t in the policy's
// canonical timezone.
func (p WorkingPolicy) midnightOf(t time.Time) time.Time {
	lt := p.Normalize(t)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, p.Location)
}
