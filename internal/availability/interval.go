package availability

import (
	"fmt"
	"time"
)

// Interval is a half-open time range [Start, End). Intervals are value
// types: once constructed they are never mutated, and every operation in
// this package produces new intervals instead of changing its inputs.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval constructs an Interval, rejecting zero-length and negative
// ranges.
func NewInterval(start, end time.Time) (Interval, error) {
	if !start.Before(end) {
		return Interval{}, fmt.Errorf("interval start %s is not before end %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return Interval{Start: start, End: end}, nil
}

// Duration returns the length of the interval.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether the two half-open intervals share any instant.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Contains reports whether the interval fully covers other.
func (iv Interval) Contains(other Interval) bool {
	return !other.Start.Before(iv.Start) && !other.End.After(iv.End)
}

// Equal reports whether both endpoints refer to the same instants.
func (iv Interval) Equal(other Interval) bool {
	return iv.Start.Equal(other.Start) && iv.End.Equal(other.End)
}

// String formats the interval for logs and error messages.
func (iv Interval) String() string {
	return iv.Start.Format(time.RFC3339) + "/" + iv.End.Format(time.RFC3339)
}

// BusyEvent is a provider event reduced to the fields the engine cares
// about. A zero Start or End means the provider did not supply concrete
// timestamps (all-day events); such events never block time.
type BusyEvent struct {
	Start time.Time
	End   time.Time

	// Transparent mirrors the provider's transparency marker: the owner
	// is shown as available for the duration of the event.
	Transparent bool
}

// Blocking reports whether the event marks its owner unavailable. Events
// without concrete timestamps and transparent events do not block.
func (e BusyEvent) Blocking() bool {
	return !e.Transparent && !e.Start.IsZero() && !e.End.IsZero()
}
