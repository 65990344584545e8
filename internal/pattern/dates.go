package pattern

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gmarchetti/dimmi/internal/command"
	"github.com/gmarchetti/dimmi/internal/timeutil"
)

var (
	ruleMu    sync.Mutex
	ruleCache = map[string]*regexp.Regexp{}
)

func compileRule(expr string) (*regexp.Regexp, error) {
	ruleMu.Lock()
	defer ruleMu.Unlock()
	if re, ok := ruleCache[expr]; ok {
		return re, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	ruleCache[expr] = re
	return re, nil
}

// ResolveDate resolves the first matching date strategy in order: relative
// day token, weekday name, explicit dd/mm[/yyyy], "tra N" offset. The second
// return value carries an ambiguity note when a malformed explicit date fell
// back to the reference day.
func ResolveDate(text string, now time.Time) (time.Time, string, bool) {
	if m := relativeDayRe.FindStringSubmatch(text); m != nil {
		offset := relativeDays[strings.ToLower(m[1])]
		return timeutil.StartOfDay(now).AddDate(0, 0, offset), "", true
	}

	if m := weekdayRe.FindStringSubmatch(text); m != nil {
		return resolveWeekday(m[1], m[2], now), "", true
	}

	if m := explicitDateRe.FindStringSubmatch(text); m != nil {
		date, err := parseExplicitDate(m, now)
		if err != nil {
			return timeutil.StartOfDay(now), err.Error(), true
		}
		return date, "", true
	}

	if m := offsetDateRe.FindStringSubmatch(text); m != nil {
		n := 1
		if v, err := strconv.Atoi(m[1]); err == nil {
			n = v
		}
		base := timeutil.StartOfDay(now)
		switch {
		case strings.HasPrefix(strings.ToLower(m[2]), "giorn"):
			return base.AddDate(0, 0, n), "", true
		case strings.HasPrefix(strings.ToLower(m[2]), "settiman"):
			return base.AddDate(0, 0, 7*n), "", true
		default:
			return base.AddDate(0, n, 0), "", true
		}
	}

	return time.Time{}, "", false
}

// resolveWeekday advances to the named weekday. A bare weekday always means a
// future occurrence: a zero offset without a qualifier advances a full week.
func resolveWeekday(name, qualifier string, now time.Time) time.Time {
	target := weekdays[strings.ToLower(name)]
	delta := (int(target) - int(now.Weekday()) + 7) % 7

	switch {
	case strings.HasPrefix(strings.ToLower(qualifier), "scors"):
		delta -= 7
	default:
		if delta == 0 {
			delta = 7
		}
	}
	return timeutil.StartOfDay(now).AddDate(0, 0, delta)
}

// parseExplicitDate handles dd/mm[/yyyy] with a 50-year pivot for two-digit
// years.
func parseExplicitDate(m []string, now time.Time) (time.Time, error) {
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("date %s/%s not understood, assuming today", m[1], m[2])
	}

	year := now.Year()
	if m[3] != "" {
		year, _ = strconv.Atoi(m[3])
		if year < 50 {
			year += 2000
		} else if year < 100 {
			year += 1900
		}
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location()), nil
}

// ExtractTimeOfDay matches "alle|ore N[:MM]" with 12h to 24h normalization.
// Unparseable hours fall back to noon rather than failing.
func ExtractTimeOfDay(text string) (*command.TimeOfDay, bool) {
	if m := timeRe.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}

		switch strings.ToLower(m[3]) {
		case "pm":
			if hour < 12 {
				hour += 12
			}
		case "am":
			if hour == 12 {
				hour = 0
			}
		default:
			if hour < 12 && eveningRe.MatchString(text) {
				hour += 12
			}
		}

		if hour > 23 || minute > 59 {
			return &command.TimeOfDay{Hour: 12}, true
		}
		return &command.TimeOfDay{Hour: hour, Minute: minute}, true
	}

	if noonRe.MatchString(text) {
		return &command.TimeOfDay{Hour: 12}, true
	}
	if midnightRe.MatchString(text) {
		return &command.TimeOfDay{Hour: 0}, true
	}
	return nil, false
}

// extractDuration converts "per N minuti|ore|giorni" to minutes.
func extractDuration(text string) (int, bool) {
	if halfHourRe.MatchString(text) {
		return 30, true
	}
	if oneHourRe.MatchString(text) {
		return 60, true
	}
	m := durationRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, _ := strconv.Atoi(m[1])
	unit := strings.ToLower(m[2])
	switch {
	case strings.HasPrefix(unit, "minut"):
		return n, true
	case strings.HasPrefix(unit, "or"):
		return n * 60, true
	default:
		return n * 24 * 60, true
	}
}

// extractRecurrence maps "ogni <unit>" onto the fixed recurrence vocabulary.
func extractRecurrence(text string) (string, bool) {
	m := recurrenceRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	switch unit := strings.ToLower(m[1]); unit {
	case "giorno":
		return "daily", true
	case "settimana":
		return "weekly", true
	case "mese":
		return "monthly", true
	default:
		if day, ok := weekdays[unit]; ok {
			return "weekly;BYDAY=" + weekdayByday[day], true
		}
	}
	return "", false
}
