package availability

import "time"

// DefaultGrid is the default slot-start alignment step.
const DefaultGrid = 15 * time.Minute

// Slots slices free intervals into candidate meeting slots of exactly the
// requested duration, with starts aligned to the default 15-minute grid.
func (p WorkingPolicy) Slots(free []Interval, duration time.Duration) []Interval {
	return p.SlotsOnGrid(free, duration, DefaultGrid)
}

// SlotsOnGrid slices free intervals into candidate slots aligned to the
// given grid in the policy's canonical local clock.
//
// For each free interval long enough for the duration, the start is rounded
// up to the next grid multiple (a start already on the grid is kept), and
// slots of exactly the duration are emitted every grid step for as long as
// they fit inside the interval. Longer free blocks therefore yield many
// overlapping candidates; callers pick one. Slots within an interval are
// chronological and intervals are processed in input order.
//
// Free-interval boundaries themselves are not grid-aligned: a window
// clipped at, say, 9:07 keeps that boundary, and only the slots inside it
// snap to the grid.
func (p WorkingPolicy) SlotsOnGrid(free []Interval, duration, grid time.Duration) []Interval {
	if duration <= 0 || grid <= 0 {
		return nil
	}

	var slots []Interval
	for _, iv := range free {
		if iv.Duration() < duration {
			continue
		}

		start := p.ceilToGrid(iv.Start, grid)
		for !start.Add(duration).After(iv.End) {
			slots = append(slots, Interval{Start: start, End: start.Add(duration)})
			start = start.Add(grid)
		}
	}

	return slots
}

// ceilToGrid rounds t up to the next grid multiple, measured from local
// midnight in the policy's canonical timezone. An already-aligned instant
// is returned unchanged.
func (p WorkingPolicy) ceilToGrid(t time.Time, grid time.Duration) time.Time {
	midnight := p.midnightOf(t)
	offset := p.Normalize(t).Sub(midnight)
	aligned := (offset + grid - 1) / grid * grid
	return midnight.Add(aligned)
}
