package script

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalNames(t *testing.T) {
	names := IntervalNames()
	require.Len(t, names, len(RunIntervals))
	assert.Equal(t, "5_minutes", names[0])
	assert.Equal(t, "hourly", names[5])
	assert.Equal(t, "4_weekly", names[len(names)-1])
}

func TestParseTime(t *testing.T) {
	want := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "unix timestamp", input: "1705312800", want: want},
		{name: "fractional unix timestamp", input: "1705312800.25", want: want.Add(250 * time.Millisecond)},
		{name: "rfc3339 utc", input: "2024-01-15T10:00:00Z", want: want},
		{name: "space separator with offset", input: "2024-01-15 11:00:00+01:00", want: want},
		{name: "lower case with fraction", input: "2024-01-15t10:00:00.5z", want: want.Add(500 * time.Millisecond)},
		{name: "garbage", input: "yesterday", wantErr: true},
		{name: "missing zone", input: "2024-01-15T10:00:00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTime(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestThresholds(t *testing.T) {
	high := time.Date(2024, 1, 15, 10, 17, 30, 0, time.UTC)
	tests := []struct {
		name     string
		interval string
		adjust   bool
		wantLow  time.Time
		wantHigh time.Time
	}{
		{
			name:     "hourly",
			interval: "hourly",
			wantLow:  time.Date(2024, 1, 15, 9, 17, 30, 0, time.UTC),
			wantHigh: high,
		},
		{
			name:     "hourly adjusted",
			interval: "hourly",
			adjust:   true,
			wantLow:  time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
			wantHigh: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		},
		{
			name:     "daily adjusted",
			interval: "daily",
			adjust:   true,
			wantLow:  time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC),
			wantHigh: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "5 minutes adjusted",
			interval: "5_minutes",
			adjust:   true,
			wantLow:  time.Date(2024, 1, 15, 10, 10, 0, 0, time.UTC),
			wantHigh: time.Date(2024, 1, 15, 10, 15, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			low, hi, err := Thresholds(high, tt.interval, tt.adjust)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLow, low)
			assert.Equal(t, tt.wantHigh, hi)

			upper, err := UpperThreshold(high, tt.interval, tt.adjust)
			require.NoError(t, err)
			assert.Equal(t, tt.wantHigh, upper)
		})
	}

	_, _, err := Thresholds(high, "fortnightly", false)
	assert.ErrorContains(t, err, "invalid time interval 'fortnightly'")
}
