package command

import (
	"time"

	"github.com/gmarchetti/dimmi/internal/timeutil"
)

// ValidationResult is the outcome of validating a schema. Errors and
// Suggestions are paired one-to-one; MissingInfo lists the field names the
// caller can prompt the user to refine.
type ValidationResult struct {
	IsValid     bool     `json:"isValid"`
	Errors      []string `json:"errors"`
	Suggestions []string `json:"suggestions"`
	MissingInfo []string `json:"missingInfo"`
}

func (v *ValidationResult) add(err, suggestion, field string) {
	v.Errors = append(v.Errors, err)
	v.Suggestions = append(v.Suggestions, suggestion)
	if field != "" {
		v.MissingInfo = append(v.MissingInfo, field)
	}
}

// Validate checks a schema against the per-intent completeness rules and
// returns field-specific feedback. It is total: nil schemas and unrecognized
// intents produce generic guidance, never a panic or an error.
func Validate(s *Schema, now time.Time) ValidationResult {
	result := ValidationResult{
		Errors:      []string{},
		Suggestions: []string{},
		MissingInfo: []string{},
	}

	if s == nil {
		result.add(
			"no command was parsed",
			"Try rephrasing, e.g. \"Crea riunione domani alle 10\"",
			"",
		)
		return result
	}

	switch s.Intent {
	case IntentCreate:
		validateCreate(s, now, &result)
	case IntentUpdate:
		validateUpdate(s, &result)
	case IntentDelete:
		validateDelete(s, &result)
	case IntentRead, IntentQuery:
		validateQuery(s, &result)
	default:
		result.add(
			"intent not recognized",
			"Start with an action word such as \"crea\", \"mostra\", \"sposta\" or \"elimina\"",
			"intent",
		)
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

func validateCreate(s *Schema, now time.Time, result *ValidationResult) {
	if s.Event.Title == "" {
		result.add(
			"event title is missing",
			"Say what the event is about, e.g. \"Crea riunione con il team\"",
			"title",
		)
	}
	if s.Time.StartDate == nil && s.Time.StartTime == nil {
		result.add(
			"event date is missing",
			"Say when the event takes place, e.g. \"domani alle 10\"",
			"date",
		)
		return
	}

	// A complete create command with a resolved start in the past is a
	// semantic error, distinct from incompleteness. Without an explicit time
	// the combined instant carries the noon default, which is a conversion
	// artifact: a date-only command is past only when its whole day is.
	start := combineDateTime(s.Time.StartDate, s.Time.StartTime, now)
	past := start.Before(now)
	if s.Time.StartTime == nil {
		past = timeutil.StartOfDay(start).Before(timeutil.StartOfDay(now))
	}
	if s.Time.StartDate != nil && past {
		result.add(
			"event date is in the past",
			"Pick a future date, e.g. \"domani\" or \"lunedì prossimo\"",
			"date",
		)
	}
}

func validateUpdate(s *Schema, result *ValidationResult) {
	if s.Event.Title == "" {
		result.add(
			"event to update is not identified",
			"Name the event to change, e.g. \"Sposta la riunione con Mario\"",
			"title",
		)
	}
	if s.Time.StartDate == nil && s.Time.StartTime == nil &&
		s.Event.Description == "" && s.Event.Location == "" {
		result.add(
			"nothing to change was specified",
			"Say what should change, e.g. \"alle 15\" or \"in sala riunioni\"",
			"changes",
		)
	}
}

func validateDelete(s *Schema, result *ValidationResult) {
	if s.Event.Title == "" {
		result.add(
			"event to delete is not identified",
			"Name the event to remove, e.g. \"Elimina la riunione con Mario\"",
			"title",
		)
	}
	if s.Time.StartDate == nil && s.Time.StartTime == nil {
		result.add(
			"event date is missing",
			"Say when the event is scheduled, e.g. \"di lunedì\" or \"del 15/03\"",
			"date",
		)
	}
}

func validateQuery(s *Schema, result *ValidationResult) {
	if s.Query.TimeRange == nil && s.Query.SearchTerm == "" && s.Query.FilterType == "" {
		result.add(
			"search criteria are missing",
			"Say what to look for, e.g. \"questa settimana\" or \"con Mario\"",
			"timeRange",
		)
	}
}
