// Package availability implements the scheduling engine that turns
// per-participant busy time into bookable meeting slots.
//
// The engine is a pipeline of pure functions over immutable interval values:
//
//  1. A WorkingPolicy expands a date range into per-day working windows
//     (Windows), skipping non-working weekdays.
//  2. Raw calendar events are reduced to blocking busy intervals
//     (ExtractBusy), dropping transparent and all-day events.
//  3. Busy intervals are merged into a minimal disjoint set (Merge).
//  4. Busy time is subtracted from the working windows (Subtract),
//     yielding free intervals.
//  5. Free intervals are sliced into grid-aligned candidate slots of the
//     requested duration (Slots).
//
// All instants are normalized to the policy's canonical timezone before any
// comparison. No function in this package performs I/O or blocks; everything
// is safe to call concurrently.
//
// Example usage:
//
//	policy, err := availability.DefaultPolicy()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	windows := policy.Windows(rangeStart, rangeEnd)
//	busy := availability.Merge(policy.ExtractBusy(events))
//	free := availability.Subtract(windows, busy)
//	slots := policy.Slots(free, 30*time.Minute)
package availability
