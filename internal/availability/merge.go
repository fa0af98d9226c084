package availability

import "sort"

// Merge collapses overlapping and adjacent intervals into a minimal
// disjoint set: the classic union-of-intervals scan. The result is sorted
// by start, pairwise-disjoint, and cannot be merged further; merging an
// already-merged set is a no-op. The input slice is not modified.
func Merge(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := make([]Interval, 0, len(sorted))
	current := sorted[0]
	for _, next := range sorted[1:] {
		if !next.Start.After(current.End) {
			// Overlapping or touching: extend the current interval.
			if next.End.After(current.End) {
				current.End = next.End
			}
			continue
		}
		merged = append(merged, current)
		current = next
	}
	merged = append(merged, current)

	return merged
}
