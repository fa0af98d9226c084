package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPolicy returns the default 8:00-17:00 Mon-Fri Central Time policy.
func testPolicy(t *testing.T) WorkingPolicy {
	t.Helper()
	policy, err := DefaultPolicy()
	require.NoError(t, err)
	return policy
}

func TestNewPolicy(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		start    int
		end      int
		weekdays []time.Weekday
		wantErr  bool
	}{
		{
			name:     "valid policy",
			timezone: "America/Chicago",
			start:    8,
			end:      17,
			weekdays: []time.Weekday{time.Monday},
		},
		{
			name:     "unknown timezone",
			timezone: "Mars/Olympus_Mons",
			start:    8,
			end:      17,
			weekdays: []time.Weekday{time.Monday},
			wantErr:  true,
		},
		{
			name:     "inverted hours",
			timezone: "America/Chicago",
			start:    17,
			end:      8,
			weekdays: []time.Weekday{time.Monday},
			wantErr:  true,
		},
		{
			name:     "no working weekdays",
			timezone: "America/Chicago",
			start:    8,
			end:      17,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy, err := NewPolicy(tt.timezone, tt.start, tt.end, tt.weekdays...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.start, policy.WorkStartHour)
			assert.Equal(t, tt.end, policy.WorkEndHour)
		})
	}
}

func TestParseInstant(t *testing.T) {
	policy := testPolicy(t)

	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "UTC instant",
			value: "2025-03-12T15:00:00Z",
			want:  time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC),
		},
		{
			name:  "instant with explicit offset",
			value: "2025-03-12T10:00:00-05:00",
			want:  time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC),
		},
		{
			name: "naive instant is assumed UTC",
			// No offset at all; the engine treats this as UTC.
			value: "2025-03-12T15:00:00",
			want:  time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC),
		},
		{
			name:    "garbage",
			value:   "next tuesday-ish",
			wantErr: true,
		},
		{
			name:    "empty",
			value:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := policy.ParseInstant(tt.value)
			if tt.wantErr {
				var invalid *InvalidTimestampError
				assert.ErrorAs(t, err, &invalid)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
			assert.Equal(t, policy.Location.String(), got.Location().String())
		})
	}
}

func TestNormalizePreservesInstant(t *testing.T) {
	policy := testPolicy(t)

	instant := time.Date(2025, 7, 1, 18, 30, 0, 0, time.UTC)
	normalized := policy.Normalize(instant)

	assert.True(t, normalized.Equal(instant))
	assert.Equal(t, policy.Location.String(), normalized.Location().String())
	// CDT in July is UTC-5.
	assert.Equal(t, 13, normalized.Hour())
}
