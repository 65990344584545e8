package gemini

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gmarchetti/dimmi/internal/pattern"
	"github.com/gmarchetti/dimmi/internal/timeutil"
)

var (
	structuralLeakRe = regexp.MustCompile(`(?i)\b(chiamat[oa]|intitolat[oa]|denominat[oa]|ricordami)\b`)
	ricordamiRe      = regexp.MustCompile(`(?i)\bricordami\b`)
	bulkQualifierRe  = regexp.MustCompile(`(?i)\btutt[ie]\b|\bgli\s+appuntamenti\b`)
	periodMentionRe  = regexp.MustCompile(`(?i)\b(oggi|domani|settimana|mese)\b`)
)

// applyCorrections repairs the decoded model output in place using the
// original text as the source of truth. The model's structural understanding
// is trusted; its lexical details (titles, AM/PM hours) are not.
func (p *Parser) applyCorrections(out *modelOutput, text string, now time.Time) {
	p.correctTitle(out, text)
	p.correctHour(out, text)
	p.reclassifyQuery(out, text, now)
	p.guardBulkDelete(out, text)
	p.recoverReminder(out, text)
}

// correctTitle re-derives the title from the original text when the model's
// version plausibly leaked structural words, and trims filler otherwise.
func (p *Parser) correctTitle(out *modelOutput, text string) {
	if out.EventData.Title == "" {
		return
	}
	if structuralLeakRe.MatchString(out.EventData.Title) {
		if derived := pattern.DeriveTitle(text, p.cfg); derived != "" {
			out.EventData.Title = derived
			return
		}
	}
	out.EventData.Title = pattern.CleanTitle(out.EventData.Title, p.cfg)
}

// correctHour overwrites the model's hour with the one lexically present in
// the text when they disagree: a direct match on "alle N di sera" beats the
// model's AM/PM inference.
func (p *Parser) correctHour(out *modelOutput, text string) {
	clock, ok := pattern.ExtractTimeOfDay(text)
	if !ok {
		return
	}

	current := parseModelClock(out.TimeData.StartTime)
	if current == nil {
		// The date field may carry a full timestamp with the hour embedded.
		if _, embedded := parseModelInstant(out.TimeData.StartDate, "", time.UTC); embedded != nil {
			current = embedded
		}
	}
	if current == nil || current.Hour != clock.Hour || current.Minute != clock.Minute {
		out.TimeData.StartTime = fmt.Sprintf("%02d:%02d", clock.Hour, clock.Minute)
	}
}

// reclassifyQuery forces listing requests onto the query intent regardless of
// what the model answered, moving any produced title into the search term.
func (p *Parser) reclassifyQuery(out *modelOutput, text string, now time.Time) {
	if !pattern.HasQueryCues(text) {
		return
	}

	out.Intent = "query"
	if title := strings.TrimSpace(out.EventData.Title); len(title) > 3 && out.QueryData.SearchTerm == "" {
		out.QueryData.SearchTerm = pattern.CleanTitle(title, p.cfg)
	}
	out.EventData.Title = ""

	if out.QueryData.TimeRange != nil {
		return
	}
	lower := strings.ToLower(text)
	var start, end time.Time
	switch {
	case strings.Contains(lower, "domani"):
		start, end = timeutil.DayBounds(now.AddDate(0, 0, 1))
	case strings.Contains(lower, "oggi"):
		start, end = timeutil.DayBounds(now)
	case strings.Contains(lower, "settimana"):
		start, end = timeutil.WeekBounds(now)
	default:
		return
	}
	out.QueryData.TimeRange = &struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}{
		Start: start.Format("2006-01-02T15:04:05"),
		End:   end.Format("2006-01-02T15:04:05"),
	}
}

// guardBulkDelete downgrades a bulk delete over a period to a query: the
// caller must list and confirm, an unqualified "delete everything" is never
// executed directly.
func (p *Parser) guardBulkDelete(out *modelOutput, text string) {
	if out.Intent != "delete" {
		return
	}
	if bulkQualifierRe.MatchString(text) && periodMentionRe.MatchString(text) {
		out.Intent = "query"
		out.Ambiguities = append(out.Ambiguities,
			"bulk delete request downgraded to a search; select the events to remove")
	}
}

// recoverReminder handles "ricordami" texts the model failed to classify.
func (p *Parser) recoverReminder(out *modelOutput, text string) {
	if out.Intent != "" && out.Intent != "none" {
		return
	}
	if !ricordamiRe.MatchString(text) {
		return
	}
	out.Intent = "create"
	if out.EventData.Title == "" {
		out.EventData.Title = pattern.DeriveTitle(text, p.cfg)
	}
}
