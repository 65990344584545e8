package parser

import (
	"context"
	"fmt"
	"time"

	"github.com/gmarchetti/dimmi/internal/command"
)

// Result is the structured outcome of one parse: the schema plus its
// validation feedback.
type Result struct {
	Schema      *command.Schema `json:"schema"`
	IsValid     bool            `json:"isValid"`
	Errors      []string        `json:"errors"`
	Suggestions []string        `json:"suggestions"`
}

// LegacyResult is the flattened shape kept for simple callers.
type LegacyResult struct {
	Action      string `json:"action"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Valid       bool   `json:"valid"`
}

// Facade is the single entry point for command parsing. It owns one selector
// built with an explicit configuration value.
type Facade struct {
	selector *Selector
	now      func() time.Time
}

// NewFacade creates the parsing facade with an explicit reference clock.
func NewFacade(selector *Selector, now func() time.Time) *Facade {
	if now == nil {
		now = time.Now
	}
	return &Facade{selector: selector, now: now}
}

// ParseCommand parses text and validates the resulting schema. It always
// returns a structured result, never an error.
func (f *Facade) ParseCommand(ctx context.Context, text string) Result {
	schema := f.selector.Parse(ctx, text)
	validation := command.Validate(schema, f.now())

	schema.IsValid = validation.IsValid
	for _, field := range validation.MissingInfo {
		schema.AddMissing(field)
	}

	return Result{
		Schema:      schema,
		IsValid:     validation.IsValid,
		Errors:      validation.Errors,
		Suggestions: validation.Suggestions,
	}
}

// ParseCommandLegacy returns the flattened result shape.
func (f *Facade) ParseCommandLegacy(ctx context.Context, text string) LegacyResult {
	result := f.ParseCommand(ctx, text)
	schema := result.Schema

	legacy := LegacyResult{
		Action:      string(schema.Intent),
		Title:       schema.Event.Title,
		Description: schema.Event.Description,
		Valid:       result.IsValid,
	}
	if schema.Time.StartDate != nil {
		legacy.Date = schema.Time.StartDate.Format("2006-01-02")
	}
	if schema.Time.StartTime != nil {
		legacy.Time = fmt.Sprintf("%02d:%02d", schema.Time.StartTime.Hour, schema.Time.StartTime.Minute)
	}
	return legacy
}

// UpdateConfig forwards a partial selector configuration update.
func (f *Facade) UpdateConfig(patch ConfigPatch) {
	f.selector.UpdateConfig(patch)
}
