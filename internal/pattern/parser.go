// Package pattern implements the deterministic command extractor: a set of
// ordered lexical rules that turn an Italian sentence into a command schema
// without any network dependency.
package pattern

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gmarchetti/dimmi/internal/command"
	"github.com/gmarchetti/dimmi/internal/config"
)

// Parser is the deterministic extractor. It can always run and never fails:
// worst case it returns an empty, low-confidence schema.
type Parser struct {
	cfg *config.ParserConfig
	now func() time.Time
}

// New creates a deterministic parser. now supplies the reference clock so
// identical inputs with the same reference resolve to identical schemas.
func New(cfg *config.ParserConfig, now func() time.Time) *Parser {
	if cfg == nil {
		cfg = config.DefaultParserConfig()
	}
	if now == nil {
		now = time.Now
	}
	return &Parser{cfg: cfg, now: now}
}

// CanHandle always reports true: the deterministic path is the floor every
// other strategy falls back to.
func (p *Parser) CanHandle() bool { return true }

// Confidence scores how well the rule tables cover the text.
func (p *Parser) Confidence(text string) float64 {
	schema, _ := p.Parse(context.Background(), text)
	return schema.Confidence
}

// Parse extracts a command schema from text. The returned error is always
// nil; internal failures are converted to a schema carrying the failure note
// in its ambiguities.
func (p *Parser) Parse(_ context.Context, text string) (schema *command.Schema, err error) {
	defer func() {
		if r := recover(); r != nil {
			schema = command.New(text, command.MethodRegex)
			schema.Query.Limit = p.cfg.DefaultLimit
			schema.AddAmbiguity(fmt.Sprintf("extraction failed: %v", r))
			err = nil
		}
	}()

	now := p.now()
	schema = command.New(text, command.MethodRegex)
	schema.Query.Limit = p.cfg.DefaultLimit
	schema.Intent = ClassifyIntent(text)

	if schema.Intent == command.IntentNone {
		schema.AddMissing("intent")
		schema.Confidence = p.score(schema, text)
		return schema, nil
	}

	switch {
	case schema.IsEventIntent():
		p.extractEvent(schema, text)
		p.extractTime(schema, text, now)
	case schema.IsQueryIntent():
		p.extractQuery(schema, text, now)
	}

	schema.Confidence = p.score(schema, text)
	schema.IsValid = schema.SelfCheck()
	return schema, nil
}

// ClassifyIntent tests the text against the ordered keyword families, with
// interrogative words (or a trailing "?") as the implicit query fallback.
func ClassifyIntent(text string) command.Intent {
	for _, family := range intentFamilies {
		if family.re.MatchString(text) {
			return family.intent
		}
	}
	if interrogativeRe.MatchString(text) || strings.HasSuffix(strings.TrimSpace(text), "?") {
		return command.IntentQuery
	}
	return command.IntentNone
}

func (p *Parser) extractEvent(schema *command.Schema, text string) {
	// The participant and temporal clauses are removed before the location
	// match runs: its capture is greedy and would swallow either one.
	cleaned := text
	if m := participantsRe.FindStringSubmatch(text); m != nil {
		for _, part := range participantSplitRe.Split(m[1], -1) {
			if part = strings.TrimSpace(part); part != "" {
				schema.Event.Participants = append(schema.Event.Participants, part)
			}
		}
		cleaned = strings.Replace(cleaned, m[0], " ", 1)
	}

	cleaned = stripTemporal(cleaned)

	if loc := extractLocation(cleaned); loc != "" {
		schema.Event.Location = loc
		cleaned = strings.Replace(cleaned, locationRe.FindString(cleaned), "", 1)
	}

	schema.Event.Title = p.deriveTitle(cleaned)
	if schema.Event.Title == "" {
		schema.AddMissing("title")
	}
}

func (p *Parser) extractTime(schema *command.Schema, text string, now time.Time) {
	if date, ambiguity, ok := ResolveDate(text, now); ok {
		schema.Time.StartDate = &date
		if ambiguity != "" {
			schema.AddAmbiguity(ambiguity)
		}
	} else {
		schema.AddMissing("date")
	}

	if clock, ok := ExtractTimeOfDay(text); ok {
		schema.Time.StartTime = clock
	} else {
		schema.AddMissing("time")
	}

	if minutes, ok := extractDuration(text); ok {
		schema.Time.Duration = minutes
	}
	if tag, ok := extractRecurrence(text); ok {
		schema.Time.Recurrence = tag
	}
}

// deriveTitle applies the title rule families in priority order against text
// already stripped of temporal and location clauses.
func (p *Parser) deriveTitle(cleaned string) string {
	cleaned = collapse(cleaned)

	for _, expr := range p.cfg.TitlePatterns.NamedEvent {
		if title := matchTitleRule(expr, cleaned); title != "" {
			return p.finishTitle(title)
		}
	}
	for _, expr := range p.cfg.TitlePatterns.Reminder {
		if title := matchTitleRule(expr, cleaned); title != "" {
			return p.finishTitle(title)
		}
	}

	// Generic leftover heuristic: drop the intent keyword, keep the first
	// five remaining words.
	leftover := cleaned
	for _, family := range intentFamilies {
		leftover = family.re.ReplaceAllString(leftover, "")
	}
	leftover = collapse(leftover)
	for _, expr := range p.cfg.TitlePatterns.Generic {
		if title := matchTitleRule(expr, leftover); title != "" {
			words := strings.Fields(title)
			if len(words) > 5 {
				words = words[:5]
			}
			return p.finishTitle(strings.Join(words, " "))
		}
	}
	return ""
}

// finishTitle trims leading filler and, unless configured otherwise, a
// leading event-type noun.
func (p *Parser) finishTitle(title string) string {
	title = trimFiller(title)
	if !p.cfg.IncludeEventTypeInTitle {
		if stripped := trimFiller(eventTypeNounRe.ReplaceAllString(title, "")); stripped != "" {
			title = stripped
		}
	}
	return strings.TrimSpace(strings.Trim(title, `"',.`))
}

// DeriveTitle extracts a title from raw text using the same rule families as
// a full parse. The generative path uses it to re-derive titles the model got
// wrong.
func DeriveTitle(text string, cfg *config.ParserConfig) string {
	return New(cfg, nil).deriveTitle(stripTemporal(text))
}

// CleanTitle trims leading filler words (and the event-type noun, per
// configuration) from an externally produced title.
func CleanTitle(title string, cfg *config.ParserConfig) string {
	return New(cfg, nil).finishTitle(title)
}

// HasQueryCues reports whether the text combines a listing/interrogative verb
// with an event-domain noun, which marks it as a calendar query regardless of
// any other classification.
func HasQueryCues(text string) bool {
	return listingVerbRe.MatchString(text) && eventDomainNounRe.MatchString(text)
}

func matchTitleRule(expr, text string) string {
	re, err := compileRule(expr)
	if err != nil {
		return ""
	}
	m := re.FindStringSubmatch(text)
	if m == nil || len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func extractLocation(cleaned string) string {
	m := locationRe.FindStringSubmatch(cleaned)
	if m == nil {
		return ""
	}
	loc := collapse(m[1])
	words := strings.Fields(loc)
	if len(words) > 4 {
		words = words[:4]
	}
	return strings.Trim(strings.Join(words, " "), `,."'`)
}

// stripTemporal removes every recognized date, time, duration and recurrence
// substring so the leftover text can be treated as title material.
func stripTemporal(text string) string {
	out := text
	for _, re := range []*regexp.Regexp{
		fromToRe, offsetDateRe, recurrenceRe, durationRe, halfHourRe, oneHourRe,
		timeRe, noonRe, midnightRe, weekdayRe, relativeDayRe, explicitDateRe,
		eveningRe, morningRe, lastPeriodRe,
		thisWeekRe, nextWeekRe, thisMonthRe, nextMonthRe,
	} {
		out = re.ReplaceAllString(out, " ")
	}
	return collapse(out)
}

func trimFiller(title string) string {
	title = strings.TrimSpace(title)
	for {
		next := leadingFillerRe.ReplaceAllString(title, "")
		next = leadingElisionRe.ReplaceAllString(next, "")
		next = trailingFillerRe.ReplaceAllString(next, "")
		next = strings.TrimSpace(next)
		if next == title {
			return title
		}
		title = next
	}
}

func collapse(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

func (p *Parser) score(schema *command.Schema, text string) float64 {
	score := 0.0
	if schema.Intent != command.IntentNone {
		score = 0.5
	}

	// Up to 0.4 for the fields the intent actually needs.
	switch {
	case schema.IsEventIntent():
		present := 0
		if schema.Event.Title != "" {
			present++
		}
		if schema.Time.StartDate != nil {
			present++
		}
		if schema.Time.StartTime != nil {
			present++
		}
		if schema.Event.Location != "" {
			present++
		}
		if len(schema.Event.Participants) > 0 {
			present++
		}
		score += 0.4 * float64(present) / 5
	case schema.IsQueryIntent():
		present := 0
		if schema.Query.TimeRange != nil {
			present++
		}
		if schema.Query.SearchTerm != "" {
			present++
		}
		score += 0.4 * float64(present) / 2
	}

	if len(text) > 100 {
		score -= 0.1
	}
	if len(strings.Fields(text)) > 15 {
		score -= 0.05
	}
	score -= 0.1 * float64(len(schema.Metadata.Ambiguities))

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
