package gcal

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
)

func TestRecurrenceRule(t *testing.T) {
	tests := []struct {
		tag      string
		expected []string
	}{
		{"daily", []string{"RRULE:FREQ=DAILY"}},
		{"weekly", []string{"RRULE:FREQ=WEEKLY"}},
		{"monthly", []string{"RRULE:FREQ=MONTHLY"}},
		{"weekly;BYDAY=MO", []string{"RRULE:FREQ=WEEKLY;BYDAY=MO"}},
		{"weekly;BYDAY=SA", []string{"RRULE:FREQ=WEEKLY;BYDAY=SA"}},
		{"", nil},
		{"yearly", nil},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.expected, recurrenceRule(tt.tag))
		})
	}
}

func TestEventFromItem(t *testing.T) {
	t.Run("timed event", func(t *testing.T) {
		item := &calendar.Event{
			Id:      "ev1",
			Summary: "riunione",
			Start:   &calendar.EventDateTime{DateTime: "2024-01-11T10:00:00+01:00"},
			End:     &calendar.EventDateTime{DateTime: "2024-01-11T11:00:00+01:00"},
		}

		event := eventFromItem(item, time.UTC)

		require.NotNil(t, event)
		assert.Equal(t, "ev1", event.ID)
		assert.Equal(t, "riunione", event.Summary)
		assert.False(t, event.AllDay)
		require.NotNil(t, event.EndTime)
		assert.Equal(t, time.Hour, event.EndTime.Sub(event.StartTime))
	})

	t.Run("all-day event", func(t *testing.T) {
		item := &calendar.Event{
			Id:    "ev2",
			Start: &calendar.EventDateTime{Date: "2024-01-11"},
			End:   &calendar.EventDateTime{Date: "2024-01-12"},
		}

		event := eventFromItem(item, time.UTC)

		require.NotNil(t, event)
		assert.True(t, event.AllDay)
		assert.Equal(t, time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC), event.StartTime)
	})

	t.Run("malformed start is skipped", func(t *testing.T) {
		item := &calendar.Event{
			Id:    "ev3",
			Start: &calendar.EventDateTime{DateTime: "garbage"},
		}
		assert.Nil(t, eventFromItem(item, time.UTC))
	})

	t.Run("missing start is skipped", func(t *testing.T) {
		assert.Nil(t, eventFromItem(&calendar.Event{Id: "ev4"}, time.UTC))
		assert.Nil(t, eventFromItem(nil, time.UTC))
	})
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&googleapi.Error{Code: 404}))
	assert.True(t, isNotFound(&googleapi.Error{Code: 410}))
	assert.True(t, isNotFound(fmt.Errorf("wrapped: %w", &googleapi.Error{Code: 404})))
	assert.False(t, isNotFound(&googleapi.Error{Code: 403}))
	assert.False(t, isNotFound(errors.New("plain error")))
}

func TestUnauthenticatedClientFailsPreconditions(t *testing.T) {
	var nilClient *Client
	assert.False(t, nilClient.IsAuthenticated())

	c := &Client{}
	assert.False(t, c.IsAuthenticated())

	_, err := c.CreateEvent(EventInput{Summary: "riunione"})
	assert.True(t, IsNotAuthenticated(err))

	_, err = c.UpdateEvent("ev1", EventInput{})
	assert.True(t, IsNotAuthenticated(err))

	assert.True(t, IsNotAuthenticated(c.DeleteEvent("ev1")))

	_, err = c.ListEvents(time.Now(), nil, "", 10)
	assert.True(t, IsNotAuthenticated(err))
}
