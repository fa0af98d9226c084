package availability

import "time"

// Windows expands a date range into per-day working-hour intervals in the
// policy's canonical timezone.
//
// Starting at local midnight on or before rangeStart, it steps one calendar
// day at a time through rangeEnd. Each working weekday contributes the
// window [workStart, workEnd), clipped so the first window does not start
// before rangeStart and the last does not end after rangeEnd. Windows that
// are empty after clipping are dropped.
//
// The result is in ascending start order, which Subtract relies on. A range
// that covers only non-working days yields an empty slice, not an error.
func (p WorkingPolicy) Windows(rangeStart, rangeEnd time.Time) []Interval {
	start := p.Normalize(rangeStart)
	end := p.Normalize(rangeEnd)
	if end.Before(start) {
		return nil
	}

	var windows []Interval
	for day := p.midnightOf(start); !day.After(end); day = day.AddDate(0, 0, 1) {
		if !p.Weekdays[day.Weekday()] {
			continue
		}

		winStart := time.Date(day.Year(), day.Month(), day.Day(), p.WorkStartHour, 0, 0, 0, p.Location)
		winEnd := time.Date(day.Year(), day.Month(), day.Day(), p.WorkEndHour, 0, 0, 0, p.Location)

		// Clip to the requested range. Only the first and last day can
		// actually be affected; intermediate days lie fully inside.
		if winStart.Before(start) {
			winStart = start
		}
		if winEnd.After(end) {
			winEnd = end
		}

		if winStart.Before(winEnd) {
			windows = append(windows, Interval{Start: winStart, End: winEnd})
		}
	}

	return windows
}

// ExtractBusy converts raw provider events into busy intervals in the
// policy's canonical timezone. Non-blocking events (transparent, or without
// concrete timestamps) are dropped here rather than ignored downstream.
// Output order matches input order; sorting is Merge's responsibility.
func (p WorkingPolicy) ExtractBusy(events []BusyEvent) []Interval {
	var busy []Interval
	for _, e := range events {
		if !e.Blocking() {
			continue
		}
		if !e.Start.Before(e.End) {
			continue
		}
		busy = append(busy, Interval{
			Start: p.Normalize(e.Start),
			End:   p.Normalize(e.End),
		})
	}
	return busy
}
