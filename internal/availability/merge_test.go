package availability

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func utcInterval(t *testing.T, startHour, endHour int) Interval {
	t.Helper()
	day := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	return Interval{Start: day.Add(time.Duration(startHour) * time.Hour), End: day.Add(time.Duration(endHour) * time.Hour)}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name  string
		input []Interval
		want  []Interval
	}{
		{
			name:  "empty input",
			input: nil,
			want:  nil,
		},
		{
			name:  "single interval unchanged",
			input: []Interval{utcInterval(t, 9, 10)},
			want:  []Interval{utcInterval(t, 9, 10)},
		},
		{
			name:  "overlapping pair collapses",
			input: []Interval{utcInterval(t, 10, 12), utcInterval(t, 11, 13)},
			want:  []Interval{utcInterval(t, 10, 13)},
		},
		{
			name:  "touching intervals collapse",
			input: []Interval{utcInterval(t, 9, 10), utcInterval(t, 10, 11)},
			want:  []Interval{utcInterval(t, 9, 11)},
		},
		{
			name:  "disjoint intervals stay apart",
			input: []Interval{utcInterval(t, 9, 10), utcInterval(t, 12, 13)},
			want:  []Interval{utcInterval(t, 9, 10), utcInterval(t, 12, 13)},
		},
		{
			name:  "unsorted input gets sorted",
			input: []Interval{utcInterval(t, 14, 15), utcInterval(t, 9, 10)},
			want:  []Interval{utcInterval(t, 9, 10), utcInterval(t, 14, 15)},
		},
		{
			name:  "contained interval is absorbed",
			input: []Interval{utcInterval(t, 9, 15), utcInterval(t, 10, 11)},
			want:  []Interval{utcInterval(t, 9, 15)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.input)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.True(t, got[i].Equal(tt.want[i]), "interval %d: got %s, want %s", i, got[i], tt.want[i])
			}
		})
	}
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	input := []Interval{utcInterval(t, 14, 15), utcInterval(t, 9, 12), utcInterval(t, 10, 13)}
	first := input[0]

	Merge(input)

	assert.True(t, input[0].Equal(first), "Merge must not reorder or rewrite its input")
}

func TestMergeProperties(t *testing.T) {
	// Random interval sets: output must be sorted, pairwise-disjoint with
	// gaps, idempotent, and cover every input instant.
	rng := rand.New(rand.NewSource(42))
	day := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

	for trial := 0; trial < 100; trial++ {
		var input []Interval
		for i := 0; i < rng.Intn(20)+1; i++ {
			start := day.Add(time.Duration(rng.Intn(20*60)) * time.Minute)
			input = append(input, Interval{Start: start, End: start.Add(time.Duration(rng.Intn(180)+1) * time.Minute)})
		}

		merged := Merge(input)

		for i := 1; i < len(merged); i++ {
			assert.True(t, merged[i].Start.After(merged[i-1].End),
				"merged output must be sorted with strict gaps, got %s then %s", merged[i-1], merged[i])
		}

		for _, iv := range input {
			covered := false
			for _, m := range merged {
				if !iv.Start.Before(m.Start) && !iv.End.After(m.End) {
					covered = true
					break
				}
			}
			assert.True(t, covered, "input %s not covered by merged output", iv)
		}

		again := Merge(merged)
		require.Len(t, again, len(merged))
		for i := range merged {
			assert.True(t, again[i].Equal(merged[i]), "Merge must be idempotent")
		}
	}
}
