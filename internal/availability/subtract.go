package availability

// Subtract removes merged busy intervals from working windows, producing
// the free intervals in which a meeting can be placed.
//
// Each working window is handled independently: the available set starts as
// the whole window, and every overlapping busy interval (clipped to the
// window's bounds) is subtracted from every remaining piece. A busy
// interval can leave a piece untouched, trim its start or end, split it in
// two, or swallow it entirely. Because the busy set is already disjoint the
// result does not depend on subtraction order. A window whose available set
// empties out stops early.
//
// Results keep the working-window order and are never re-merged across
// windows: a free interval is always bounded by a single working window.
// The union of the output equals the union of the windows minus the union
// of the busy intervals.
func Subtract(windows, busy []Interval) []Interval {
	if len(windows) == 0 {
		return nil
	}
	if len(busy) == 0 {
		free := make([]Interval, len(windows))
		copy(free, windows)
		return free
	}

	var free []Interval
	for _, window := range windows {
		available := []Interval{window}

		for _, b := range busy {
			if !b.End.After(window.Start) || !b.Start.Before(window.End) {
				continue
			}

			// Clip the busy interval to the window's bounds.
			busyStart, busyEnd := b.Start, b.End
			if busyStart.Before(window.Start) {
				busyStart = window.Start
			}
			if busyEnd.After(window.End) {
				busyEnd = window.End
			}

			next := available[:0:0]
			for _, piece := range available {
				if !piece.End.After(busyStart) || !piece.Start.Before(busyEnd) {
					// No overlap with this piece.
					next = append(next, piece)
					continue
				}
				if piece.Start.Before(busyStart) {
					next = append(next, Interval{Start: piece.Start, End: busyStart})
				}
				if piece.End.After(busyEnd) {
					next = append(next, Interval{Start: busyEnd, End: piece.End})
				}
				// Otherwise the busy interval covers the piece entirely.
			}
			available = next

			if len(available) == 0 {
				break
			}
		}

		free = append(free, available...)
	}

	return free
}
