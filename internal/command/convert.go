package command

import (
	"fmt"
	"time"
)

const (
	// DefaultDuration is the assumed event length in minutes when the text
	// gives neither an explicit end nor a duration.
	DefaultDuration = 60

	// Events without a recognized time default to noon rather than midnight.
	defaultHour = 12
)

// EventRecord is the calendar-store input produced from a create/update schema.
type EventRecord struct {
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Recurrence  string
	Attendees   []string
}

// SearchParams is the calendar-store query produced from a read/query schema.
type SearchParams struct {
	TimeMin    time.Time
	TimeMax    *time.Time
	Query      string
	FilterType string
	MaxResults int
}

// ToEventRecord combines the schema's date and time fields into a concrete
// event. The date defaults to now's date when only a time was recognized, the
// time defaults to noon, and the end is derived from the explicit end fields
// or start+duration. An end before the start is treated as a correctable
// default (start+duration), not an error.
func (s *Schema) ToEventRecord(now time.Time, defaultDuration int) (*EventRecord, error) {
	if s.Intent != IntentCreate && s.Intent != IntentUpdate {
		return nil, fmt.Errorf("cannot build event record from %q command", s.Intent)
	}
	if defaultDuration <= 0 {
		defaultDuration = DefaultDuration
	}

	start := combineDateTime(s.Time.StartDate, s.Time.StartTime, now)

	duration := s.Time.Duration
	if duration <= 0 {
		duration = defaultDuration
	}

	var end time.Time
	if s.Time.EndDate != nil || s.Time.EndTime != nil {
		endDate := s.Time.EndDate
		if endDate == nil {
			d := start
			endDate = &d
		}
		end = combineDateTime(endDate, s.Time.EndTime, now)
	}
	if end.IsZero() || !end.After(start) {
		end = start.Add(time.Duration(duration) * time.Minute)
	}

	return &EventRecord{
		Title:       s.Event.Title,
		Description: s.Event.Description,
		Location:    s.Event.Location,
		Start:       start,
		End:         end,
		Recurrence:  s.Time.Recurrence,
		Attendees:   append([]string(nil), s.Event.Participants...),
	}, nil
}

// ToSearchParams maps the query data onto a time window, text query and
// result limit. TimeMin defaults to now (open-ended future search) when no
// range start was recognized.
func (s *Schema) ToSearchParams(now time.Time) (*SearchParams, error) {
	if !s.IsQueryIntent() {
		return nil, fmt.Errorf("cannot build search params from %q command", s.Intent)
	}

	params := &SearchParams{
		TimeMin:    now,
		Query:      s.Query.SearchTerm,
		FilterType: s.Query.FilterType,
		MaxResults: s.Query.Limit,
	}
	if params.MaxResults <= 0 {
		params.MaxResults = 10
	}
	if s.Query.TimeRange != nil {
		if !s.Query.TimeRange.Start.IsZero() {
			params.TimeMin = s.Query.TimeRange.Start
		}
		if !s.Query.TimeRange.End.IsZero() {
			end := s.Query.TimeRange.End
			params.TimeMax = &end
		}
	}
	return params, nil
}

func combineDateTime(date *time.Time, clock *TimeOfDay, now time.Time) time.Time {
	base := now
	if date != nil {
		base = *date
	}
	hour, minute := defaultHour, 0
	if clock != nil {
		hour, minute = clock.Hour, clock.Minute
	}
	return time.Date(base.Year(), base.Month(), base.Day(), hour, minute, 0, 0, now.Location())
}
