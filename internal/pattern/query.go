package pattern

import (
	"strconv"
	"strings"
	"time"

	"github.com/gmarchetti/dimmi/internal/command"
	"github.com/gmarchetti/dimmi/internal/timeutil"
)

// extractQuery resolves the search window and term for read/query commands.
// With neither found, the range defaults to an open-ended future search
// starting now.
func (p *Parser) extractQuery(schema *command.Schema, text string, now time.Time) {
	if r, ok := resolveQueryRange(text, now); ok {
		schema.Query.TimeRange = r
	}

	if term := extractSearchTerm(text); term != "" {
		schema.Query.SearchTerm = term
	} else if schema.Query.TimeRange == nil {
		if term := leftoverSearchTerm(text); term != "" {
			schema.Query.SearchTerm = term
		}
	}

	if schema.Query.TimeRange == nil && schema.Query.SearchTerm == "" {
		schema.Query.TimeRange = &command.TimeRange{Start: now}
		schema.AddMissing("timeRange")
	}
}

// resolveQueryRange tries special-cased period phrases first, then past
// ranges, explicit from/to clauses, and finally single-day tokens.
func resolveQueryRange(text string, now time.Time) (*command.TimeRange, bool) {
	switch {
	case thisWeekRe.MatchString(text):
		start, end := timeutil.WeekBounds(now)
		return &command.TimeRange{Start: start, End: end}, true
	case nextWeekRe.MatchString(text):
		start, end := timeutil.WeekBounds(now.AddDate(0, 0, 7))
		return &command.TimeRange{Start: start, End: end}, true
	case thisMonthRe.MatchString(text):
		start, end := timeutil.MonthBounds(now)
		return &command.TimeRange{Start: start, End: end}, true
	case nextMonthRe.MatchString(text):
		start, end := timeutil.MonthBounds(now.AddDate(0, 1, 0))
		return &command.TimeRange{Start: start, End: end}, true
	}

	if m := lastPeriodRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		start := timeutil.StartOfDay(now)
		switch {
		case strings.HasPrefix(strings.ToLower(m[2]), "giorn"):
			start = start.AddDate(0, 0, -n)
		case strings.HasPrefix(strings.ToLower(m[2]), "settiman"):
			start = start.AddDate(0, 0, -7*n)
		default:
			start = start.AddDate(0, -n, 0)
		}
		return &command.TimeRange{Start: start, End: now}, true
	}

	if m := fromToRe.FindStringSubmatch(text); m != nil {
		from, _, okFrom := ResolveDate(m[1], now)
		to, _, okTo := ResolveDate(m[2], now)
		if okFrom && okTo {
			_, end := timeutil.DayBounds(to)
			return &command.TimeRange{Start: from, End: end}, true
		}
	}

	if date, _, ok := ResolveDate(text, now); ok {
		start, end := timeutil.DayBounds(date)
		return &command.TimeRange{Start: start, End: end}, true
	}

	return nil, false
}

// extractSearchTerm pulls the clause after a search cue, with temporal
// substrings removed so "di lunedì" never becomes a term.
func extractSearchTerm(text string) string {
	m := searchTermRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	term := collapse(stripTemporal(m[1]))
	term = trimFiller(eventDomainNounRe.ReplaceAllString(term, ""))
	term = strings.Trim(term, `?,."'`)
	if len(term) < 2 {
		return ""
	}
	words := strings.Fields(term)
	if len(words) > 5 {
		words = words[:5]
	}
	return strings.Join(words, " ")
}

// leftoverSearchTerm is the generic fallback when no query cue matched:
// whatever remains after removing keywords, temporal text and domain nouns.
func leftoverSearchTerm(text string) string {
	leftover := stripTemporal(text)
	for _, family := range intentFamilies {
		leftover = family.re.ReplaceAllString(leftover, "")
	}
	leftover = interrogativeRe.ReplaceAllString(leftover, "")
	leftover = eventDomainNounRe.ReplaceAllString(leftover, "")
	leftover = trimFiller(collapse(leftover))
	leftover = strings.Trim(leftover, `?,."'`)
	// trimFiller only strips fillers followed by another word; a lone
	// article surviving here is not a term.
	if len(leftover) < 3 || leadingFillerRe.MatchString(leftover+" ") {
		return ""
	}
	words := strings.Fields(leftover)
	if len(words) > 5 {
		words = words[:5]
	}
	return strings.Join(words, " ")
}
