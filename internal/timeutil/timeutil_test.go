package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateTime(t *testing.T) {
	rome, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    string
		expected time.Time
	}{
		{
			name:     "rfc3339 keeps its offset",
			input:    "2024-01-15T10:00:00+01:00",
			expected: time.Date(2024, 1, 15, 10, 0, 0, 0, time.FixedZone("", 3600)),
		},
		{
			name:     "local datetime with seconds",
			input:    "2024-01-15T10:00:00",
			expected: time.Date(2024, 1, 15, 10, 0, 0, 0, rome),
		},
		{
			name:     "local datetime without seconds",
			input:    "2024-01-15T10:00",
			expected: time.Date(2024, 1, 15, 10, 0, 0, 0, rome),
		},
		{
			name:     "space separated",
			input:    "2024-01-15 10:30:00",
			expected: time.Date(2024, 1, 15, 10, 30, 0, 0, rome),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := ParseDateTime(tt.input, rome)
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(parsed), "expected %v, got %v", tt.expected, parsed)
		})
	}

	t.Run("empty value", func(t *testing.T) {
		_, err := ParseDateTime("", rome)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseDateTime("next tuesday", rome)
		assert.Error(t, err)
	})
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-15", time.UTC)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("15/01/2024", time.UTC)
	assert.Error(t, err)
}

func TestDayBounds(t *testing.T) {
	instant := time.Date(2024, 1, 10, 9, 30, 15, 0, time.UTC)

	start, end := DayBounds(instant)

	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 1, 10, 23, 59, 59, 0, time.UTC), end)
}

func TestWeekBounds(t *testing.T) {
	tests := []struct {
		name          string
		instant       time.Time
		expectedStart time.Time
	}{
		{
			name:          "wednesday",
			instant:       time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
			expectedStart: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
		},
		{
			name:          "monday is its own week start",
			instant:       time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC),
			expectedStart: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
		},
		{
			name:          "sunday closes the week",
			instant:       time.Date(2024, 1, 14, 12, 0, 0, 0, time.UTC),
			expectedStart: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := WeekBounds(tt.instant)
			assert.Equal(t, tt.expectedStart, start)
			assert.Equal(t, tt.expectedStart.AddDate(0, 0, 6).Add(23*time.Hour+59*time.Minute+59*time.Second), end)
		})
	}
}

func TestMonthBounds(t *testing.T) {
	start, end := MonthBounds(time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC), end)
}

func TestStartOfDay(t *testing.T) {
	instant := time.Date(2024, 1, 10, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), StartOfDay(instant))
}
