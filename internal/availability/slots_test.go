package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlots(t *testing.T) {
	policy := testPolicy(t)

	tests := []struct {
		name     string
		free     []Interval
		duration time.Duration
		want     []Interval
	}{
		{
			name: "aligned interval fans out on the grid",
			free: []Interval{
				{Start: central(t, policy, 2025, 3, 12, 9, 0), End: central(t, policy, 2025, 3, 12, 10, 0)},
			},
			duration: 30 * time.Minute,
			want: []Interval{
				{Start: central(t, policy, 2025, 3, 12, 9, 0), End: central(t, policy, 2025, 3, 12, 9, 30)},
				{Start: central(t, policy, 2025, 3, 12, 9, 15), End: central(t, policy, 2025, 3, 12, 9, 45)},
				{Start: central(t, policy, 2025, 3, 12, 9, 30), End: central(t, policy, 2025, 3, 12, 10, 0)},
			},
		},
		{
			name: "unaligned start rounds up to the next grid step",
			free: []Interval{
				{Start: central(t, policy, 2025, 3, 12, 9, 7), End: central(t, policy, 2025, 3, 12, 10, 0)},
			},
			duration: 45 * time.Minute,
			want: []Interval{
				{Start: central(t, policy, 2025, 3, 12, 9, 15), End: central(t, policy, 2025, 3, 12, 10, 0)},
			},
		},
		{
			name: "interval shorter than duration yields nothing",
			free: []Interval{
				{Start: central(t, policy, 2025, 3, 12, 9, 0), End: central(t, policy, 2025, 3, 12, 9, 20)},
			},
			duration: 30 * time.Minute,
			want:     nil,
		},
		{
			name: "rounding can push the start past the last viable slot",
			// 31 minutes long, but after rounding 9:01 up to 9:15 only
			// 17 minutes remain.
			free: []Interval{
				{Start: central(t, policy, 2025, 3, 12, 9, 1), End: central(t, policy, 2025, 3, 12, 9, 32)},
			},
			duration: 30 * time.Minute,
			want:     nil,
		},
		{
			name:     "empty free set yields nothing",
			free:     nil,
			duration: 30 * time.Minute,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := policy.Slots(tt.free, tt.duration)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.True(t, got[i].Equal(tt.want[i]), "slot %d: got %s, want %s", i, got[i], tt.want[i])
			}
		})
	}
}

func TestSlotsProperties(t *testing.T) {
	policy := testPolicy(t)
	duration := 50 * time.Minute

	free := []Interval{
		{Start: central(t, policy, 2025, 3, 12, 8, 3), End: central(t, policy, 2025, 3, 12, 12, 0)},
		{Start: central(t, policy, 2025, 3, 12, 13, 30), End: central(t, policy, 2025, 3, 12, 17, 0)},
	}

	slots := policy.Slots(free, duration)
	require.NotEmpty(t, slots)

	for _, slot := range slots {
		assert.Equal(t, duration, slot.Duration(), "every slot has exactly the requested duration")

		local := slot.Start.In(policy.Location)
		assert.Zero(t, local.Minute()%15, "slot start %s misaligned with the 15-minute grid", local)
		assert.Zero(t, local.Second())

		inside := false
		for _, iv := range free {
			if iv.Contains(slot) {
				inside = true
				break
			}
		}
		assert.True(t, inside, "slot %s lies outside every free interval", slot)
	}
}

func TestSlotsOnGridCustomStep(t *testing.T) {
	policy := testPolicy(t)

	free := []Interval{
		{Start: central(t, policy, 2025, 3, 12, 9, 10), End: central(t, policy, 2025, 3, 12, 11, 0)},
	}

	slots := policy.SlotsOnGrid(free, time.Hour, 30*time.Minute)

	require.Len(t, slots, 2)
	assert.True(t, slots[0].Start.Equal(central(t, policy, 2025, 3, 12, 9, 30)))
	assert.True(t, slots[1].Start.Equal(central(t, policy, 2025, 3, 12, 10, 0)))
}
