package command

import "time"

// Intent is the action category of a parsed command.
type Intent string

const (
	IntentNone   Intent = ""
	IntentCreate Intent = "create"
	IntentRead   Intent = "read"
	IntentUpdate Intent = "update"
	IntentDelete Intent = "delete"
	IntentQuery  Intent = "query"
)

// Method identifies which extractor produced a schema.
type Method string

const (
	MethodRegex Method = "regex"
	MethodLLM   Method = "llm"
)

// TimeOfDay is a clock time without a date component.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// EventData holds the event attributes extracted from text.
type EventData struct {
	Title        string   `json:"title,omitempty"`
	Description  string   `json:"description,omitempty"`
	Location     string   `json:"location,omitempty"`
	Participants []string `json:"participants,omitempty"`
}

// TimeData holds the temporal attributes extracted from text.
// Duration is in minutes; zero means not specified.
type TimeData struct {
	StartDate  *time.Time `json:"startDate,omitempty"`
	StartTime  *TimeOfDay `json:"startTime,omitempty"`
	EndDate    *time.Time `json:"endDate,omitempty"`
	EndTime    *TimeOfDay `json:"endTime,omitempty"`
	Duration   int        `json:"duration,omitempty"`
	Recurrence string     `json:"recurrence,omitempty"`
}

// TimeRange bounds a search window.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// QueryData holds the search attributes for read/query commands.
type QueryData struct {
	TimeRange  *TimeRange `json:"timeRange,omitempty"`
	SearchTerm string     `json:"searchTerm,omitempty"`
	FilterType string     `json:"filterType,omitempty"`
	Limit      int        `json:"limit"`
}

// Metadata records how a schema was produced.
type Metadata struct {
	Method      Method   `json:"method"`
	RawText     string   `json:"rawText"`
	Ambiguities []string `json:"ambiguities,omitempty"`
	MissingInfo []string `json:"missingInfo,omitempty"`
}

// Schema is the canonical output of a parse attempt. Event and Query always
// exist (possibly empty) so callers never nil-check the containers themselves.
type Schema struct {
	Intent     Intent    `json:"intent"`
	Confidence float64   `json:"confidence"`
	Event      EventData `json:"eventData"`
	Time       TimeData  `json:"timeData"`
	Query      QueryData `json:"queryData"`
	Metadata   Metadata  `json:"parsingMetadata"`
	IsValid    bool      `json:"isValid"`
}

// New creates an empty schema for the given raw text and extraction method.
// RawText is preserved verbatim for the lifetime of the schema.
func New(rawText string, method Method) *Schema {
	return &Schema{
		Query:    QueryData{Limit: 10},
		Metadata: Metadata{Method: method, RawText: rawText},
	}
}

// AddAmbiguity records an interpretation note.
func (s *Schema) AddAmbiguity(note string) {
	s.Metadata.Ambiguities = append(s.Metadata.Ambiguities, note)
}

// AddMissing records a field the extractor could not determine.
func (s *Schema) AddMissing(field string) {
	for _, f := range s.Metadata.MissingInfo {
		if f == field {
			return
		}
	}
	s.Metadata.MissingInfo = append(s.Metadata.MissingInfo, field)
}

// IsEventIntent reports whether the intent operates on a single event.
func (s *Schema) IsEventIntent() bool {
	switch s.Intent {
	case IntentCreate, IntentUpdate, IntentDelete:
		return true
	}
	return false
}

// IsQueryIntent reports whether the intent searches the calendar.
func (s *Schema) IsQueryIntent() bool {
	return s.Intent == IntentRead || s.Intent == IntentQuery
}

// SelfCheck is the per-intent completeness rule table. Extractors use it as a
// provisional validity check; the authoritative result comes from Validate.
func (s *Schema) SelfCheck() bool {
	switch s.Intent {
	case IntentCreate, IntentDelete:
		return s.Event.Title != "" && (s.Time.StartDate != nil || s.Time.StartTime != nil)
	case IntentUpdate:
		return s.Event.Title != "" &&
			(s.Time.StartDate != nil || s.Time.StartTime != nil ||
				s.Event.Description != "" || s.Event.Location != "")
	case IntentRead, IntentQuery:
		return s.Query.TimeRange != nil || s.Query.SearchTerm != "" || s.Query.FilterType != ""
	}
	return false
}

// Clone returns a deep copy. Post-processing corrections work on a private
// copy so a failed pass never leaves a half-corrected schema observable.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	out := *s
	out.Event.Participants = append([]string(nil), s.Event.Participants...)
	out.Metadata.Ambiguities = append([]string(nil), s.Metadata.Ambiguities...)
	out.Metadata.MissingInfo = append([]string(nil), s.Metadata.MissingInfo...)
	if s.Time.StartDate != nil {
		d := *s.Time.StartDate
		out.Time.StartDate = &d
	}
	if s.Time.EndDate != nil {
		d := *s.Time.EndDate
		out.Time.EndDate = &d
	}
	if s.Time.StartTime != nil {
		t := *s.Time.StartTime
		out.Time.StartTime = &t
	}
	if s.Time.EndTime != nil {
		t := *s.Time.EndTime
		out.Time.EndTime = &t
	}
	if s.Query.TimeRange != nil {
		r := *s.Query.TimeRange
		out.Query.TimeRange = &r
	}
	return &out
}
