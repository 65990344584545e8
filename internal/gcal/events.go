package gcal

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
)

var ErrEventNotFound = errors.New("calendar event not found")

// IsEventNotFound reports whether a calendar event no longer exists.
func IsEventNotFound(err error) bool {
	return errors.Is(err, ErrEventNotFound)
}

// EventInput is the input for creating or updating a calendar event.
type EventInput struct {
	Summary     string
	Description string
	Location    string
	StartTime   time.Time
	EndTime     time.Time
	Recurrence  string
	Attendees   []string // email addresses
}

// Event is a single calendar event as returned by the store.
type Event struct {
	ID          string     `json:"id"`
	Summary     string     `json:"summary"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	AllDay      bool       `json:"all_day"`
}

// recurrenceRule maps the parser's fixed recurrence vocabulary onto RRULEs.
func recurrenceRule(tag string) []string {
	switch {
	case tag == "daily":
		return []string{"RRULE:FREQ=DAILY"}
	case tag == "weekly":
		return []string{"RRULE:FREQ=WEEKLY"}
	case tag == "monthly":
		return []string{"RRULE:FREQ=MONTHLY"}
	case len(tag) > 14 && tag[:13] == "weekly;BYDAY=":
		return []string{"RRULE:FREQ=WEEKLY;BYDAY=" + tag[13:]}
	}
	return nil
}

// CreateEvent creates a new event and returns it with its assigned ID.
func (c *Client) CreateEvent(input EventInput) (*Event, error) {
	if err := c.ensureService(); err != nil {
		return nil, err
	}

	// RFC3339 includes the offset, so the store can infer the timezone.
	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Location:    input.Location,
		Start: &calendar.EventDateTime{
			DateTime: input.StartTime.Format(time.RFC3339),
		},
		End: &calendar.EventDateTime{
			DateTime: input.EndTime.Format(time.RFC3339),
		},
		Recurrence: recurrenceRule(input.Recurrence),
	}

	if len(input.Attendees) > 0 {
		attendees := make([]*calendar.EventAttendee, len(input.Attendees))
		for i, email := range input.Attendees {
			attendees[i] = &calendar.EventAttendee{Email: email}
		}
		event.Attendees = attendees
	}

	created, err := c.service.Events.Insert(c.calendarID, event).SendUpdates("all").Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return eventFromItem(created, input.StartTime.Location()), nil
}

// UpdateEvent updates an existing event.
func (c *Client) UpdateEvent(eventID string, input EventInput) (*Event, error) {
	if err := c.ensureService(); err != nil {
		return nil, err
	}
	if eventID == "" {
		return nil, fmt.Errorf("event id is required")
	}

	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Location:    input.Location,
		Start: &calendar.EventDateTime{
			DateTime: input.StartTime.Format(time.RFC3339),
		},
		End: &calendar.EventDateTime{
			DateTime: input.EndTime.Format(time.RFC3339),
		},
		Recurrence: recurrenceRule(input.Recurrence),
	}

	updated, err := c.service.Events.Update(c.calendarID, eventID, event).SendUpdates("all").Do()
	if err != nil {
		if isNotFound(err) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	return eventFromItem(updated, input.StartTime.Location()), nil
}

// DeleteEvent deletes an event.
func (c *Client) DeleteEvent(eventID string) error {
	if err := c.ensureService(); err != nil {
		return err
	}
	if eventID == "" {
		return fmt.Errorf("event id is required")
	}

	if err := c.service.Events.Delete(c.calendarID, eventID).Do(); err != nil {
		if isNotFound(err) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// ListEvents returns events in a time window, optionally filtered by a free
// text query, capped at maxResults.
func (c *Client) ListEvents(timeMin time.Time, timeMax *time.Time, query string, maxResults int) ([]Event, error) {
	if err := c.ensureService(); err != nil {
		return nil, err
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	call := c.service.Events.List(c.calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		SingleEvents(true).
		ShowDeleted(false).
		OrderBy("startTime").
		MaxResults(int64(maxResults))
	if timeMax != nil {
		if timeMax.Before(timeMin) {
			return nil, fmt.Errorf("invalid range: time max is before time min")
		}
		call = call.TimeMax(timeMax.Format(time.RFC3339))
	}
	if query != "" {
		call = call.Q(query)
	}

	events, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	result := make([]Event, 0, len(events.Items))
	for _, item := range events.Items {
		if item == nil || item.Status == "cancelled" {
			continue
		}
		event := eventFromItem(item, timeMin.Location())
		if event == nil {
			// Skip malformed events rather than failing the whole request.
			continue
		}
		result = append(result, *event)
	}
	return result, nil
}

func eventFromItem(item *calendar.Event, loc *time.Location) *Event {
	if item == nil || item.Start == nil {
		return nil
	}

	event := &Event{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Location:    item.Location,
	}

	// All-day events use Date instead of DateTime.
	if item.Start.Date != "" {
		start, err := time.ParseInLocation("2006-01-02", item.Start.Date, loc)
		if err != nil {
			return nil
		}
		event.StartTime = start
		event.AllDay = true
		if item.End != nil && item.End.Date != "" {
			if end, err := time.ParseInLocation("2006-01-02", item.End.Date, loc); err == nil {
				event.EndTime = &end
			}
		}
		return event
	}

	start, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		return nil
	}
	event.StartTime = start
	if item.End != nil && item.End.DateTime != "" {
		if end, err := time.Parse(time.RFC3339, item.End.DateTime); err == nil {
			event.EndTime = &end
		}
	}
	return event
}

func isNotFound(err error) bool {
	var gErr *googleapi.Error
	return errors.As(err, &gErr) && (gErr.Code == http.StatusNotFound || gErr.Code == http.StatusGone)
}
