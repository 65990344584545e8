package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gmarchetti/dimmi/internal/command"
	"github.com/gmarchetti/dimmi/internal/config"
	"github.com/gmarchetti/dimmi/internal/timeutil"
)

// configuredConfidence is the fixed self-assessment of the generative path;
// it is a strategy-selection weight, not a correctness estimate.
const configuredConfidence = 0.9

// Parser is the generative extractor. It builds a prompt, submits it to the
// backend, repairs and corrects the returned JSON, and converts the result
// into a command schema.
type Parser struct {
	client *Client
	cfg    *config.ParserConfig
	now    func() time.Time
}

// NewParser creates a generative parser with an explicit reference clock.
func NewParser(client *Client, cfg *config.ParserConfig, now func() time.Time) *Parser {
	if cfg == nil {
		cfg = config.DefaultParserConfig()
	}
	if now == nil {
		now = time.Now
	}
	return &Parser{client: client, cfg: cfg, now: now}
}

// CanHandle reports whether the backend is configured.
func (p *Parser) CanHandle() bool {
	return p.client != nil && p.client.IsConfigured()
}

// Confidence is fixed when the backend is configured, zero otherwise.
func (p *Parser) Confidence(string) float64 {
	if p.CanHandle() {
		return configuredConfidence
	}
	return 0
}

// modelOutput mirrors the JSON contract the prompt demands from the backend.
type modelOutput struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	EventData  struct {
		Title        string   `json:"title"`
		Description  string   `json:"description"`
		Location     string   `json:"location"`
		Participants []string `json:"participants"`
	} `json:"eventData"`
	TimeData struct {
		StartDate  string `json:"startDate"`
		StartTime  string `json:"startTime"`
		EndDate    string `json:"endDate"`
		EndTime    string `json:"endTime"`
		Duration   int    `json:"duration"`
		Recurrence string `json:"recurrence"`
	} `json:"timeData"`
	QueryData struct {
		TimeRange *struct {
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"timeRange"`
		SearchTerm string `json:"searchTerm"`
		FilterType string `json:"filterType"`
		Limit      int    `json:"limit"`
	} `json:"queryData"`
	Ambiguities []string `json:"ambiguities"`
	MissingInfo []string `json:"missingInfo"`
}

// Parse runs the full generative pipeline. It never returns a non-nil error:
// backend and parse failures become a schema with an empty intent and the
// failure message in its ambiguities.
func (p *Parser) Parse(ctx context.Context, text string) (*command.Schema, error) {
	now := p.now()

	raw, err := p.client.Generate(ctx, BuildPrompt(text, now, p.cfg))
	if err != nil {
		return p.failed(text, err.Error()), nil
	}

	jsonStr := extractJSON(raw)
	var out modelOutput
	if err := json.Unmarshal([]byte(jsonStr), &out); err != nil {
		if err2 := json.Unmarshal([]byte(repairJSON(jsonStr)), &out); err2 != nil {
			return p.failed(text, fmt.Sprintf("model output not parseable: %v", err)), nil
		}
	}

	// Corrections run on the private decoded copy, so a half-applied pass is
	// never observable in the returned schema.
	p.applyCorrections(&out, text, now)

	return p.toSchema(&out, text, now), nil
}

func (p *Parser) failed(text, reason string) *command.Schema {
	schema := command.New(text, command.MethodLLM)
	schema.Query.Limit = p.cfg.DefaultLimit
	schema.AddAmbiguity(reason)
	schema.AddMissing("intent")
	return schema
}

func (p *Parser) toSchema(out *modelOutput, text string, now time.Time) *command.Schema {
	schema := command.New(text, command.MethodLLM)

	switch out.Intent {
	case "create", "read", "update", "delete", "query":
		schema.Intent = command.Intent(out.Intent)
	default:
		schema.AddMissing("intent")
	}

	schema.Confidence = out.Confidence
	if schema.Confidence < 0 {
		schema.Confidence = 0
	}
	if schema.Confidence > 1 {
		schema.Confidence = 1
	}

	schema.Event.Title = out.EventData.Title
	schema.Event.Description = out.EventData.Description
	schema.Event.Location = out.EventData.Location
	schema.Event.Participants = append([]string(nil), out.EventData.Participants...)

	if date, clock := parseModelInstant(out.TimeData.StartDate, out.TimeData.StartTime, now.Location()); date != nil {
		schema.Time.StartDate = date
		schema.Time.StartTime = clock
	} else if clock != nil {
		schema.Time.StartTime = clock
	}
	if date, clock := parseModelInstant(out.TimeData.EndDate, out.TimeData.EndTime, now.Location()); date != nil {
		schema.Time.EndDate = date
		schema.Time.EndTime = clock
	} else if clock != nil {
		schema.Time.EndTime = clock
	}
	if out.TimeData.Duration > 0 {
		schema.Time.Duration = out.TimeData.Duration
	}
	schema.Time.Recurrence = out.TimeData.Recurrence

	// Create events are never left dateless.
	if schema.Intent == command.IntentCreate && schema.Time.StartDate == nil {
		today := timeutil.StartOfDay(now)
		schema.Time.StartDate = &today
	}

	schema.Query.SearchTerm = out.QueryData.SearchTerm
	schema.Query.FilterType = out.QueryData.FilterType
	schema.Query.Limit = out.QueryData.Limit
	if schema.Query.Limit <= 0 {
		schema.Query.Limit = p.cfg.DefaultLimit
	}
	if out.QueryData.TimeRange != nil {
		start, errStart := timeutil.ParseDateTime(out.QueryData.TimeRange.Start, now.Location())
		end, errEnd := timeutil.ParseDateTime(out.QueryData.TimeRange.End, now.Location())
		if errStart == nil {
			r := &command.TimeRange{Start: start}
			if errEnd == nil {
				r.End = end
			}
			schema.Query.TimeRange = r
		}
	}

	for _, note := range out.Ambiguities {
		schema.AddAmbiguity(note)
	}
	for _, field := range out.MissingInfo {
		schema.AddMissing(field)
	}

	schema.IsValid = schema.SelfCheck()
	return schema
}

// parseModelInstant accepts the date/time split the contract asks for, but
// tolerates a full timestamp in the date field.
func parseModelInstant(dateStr, timeStr string, loc *time.Location) (*time.Time, *command.TimeOfDay) {
	var date *time.Time
	var clock *command.TimeOfDay

	if dateStr != "" {
		if d, err := timeutil.ParseDate(dateStr, loc); err == nil {
			date = &d
		} else if t, err := timeutil.ParseDateTime(dateStr, loc); err == nil {
			d := timeutil.StartOfDay(t)
			date = &d
			clock = &command.TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
		}
	}

	if c := parseModelClock(timeStr); c != nil {
		clock = c
	}
	return date, clock
}

func parseModelClock(value string) *command.TimeOfDay {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range []string{"15:04:05", "15:04", "15.04"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &command.TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
		}
	}
	return nil
}
