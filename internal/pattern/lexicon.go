package pattern

import (
	"regexp"
	"time"

	"github.com/gmarchetti/dimmi/internal/command"
)

// Intent keyword families, tested in order. The first family that matches
// wins; interrogative cues act as the implicit query fallback.
var intentFamilies = []struct {
	intent command.Intent
	re     *regexp.Regexp
}{
	{command.IntentCreate, regexp.MustCompile(`(?i)\b(crea|aggiungi|inserisci|fissa|prenota|organizza|programma|pianifica|ricordami|segna|metti)\b`)},
	{command.IntentRead, regexp.MustCompile(`(?i)\b(mostra|mostrami|visualizza|vedi|elenca|elencami|dammi|leggi|trova|cerca|controlla)\b`)},
	{command.IntentUpdate, regexp.MustCompile(`(?i)\b(modifica|cambia|sposta|aggiorna|rinvia|posticipa|anticipa|rimanda)\b`)},
	{command.IntentDelete, regexp.MustCompile(`(?i)\b(elimina|cancella|rimuovi|annulla|disdici|togli)\b`)},
}

var interrogativeRe = regexp.MustCompile(`(?i)\b(quali|quando|come|dove|cosa|chi)\b`)

// Relative-day tokens and their day offsets from the reference date.
var relativeDays = map[string]int{
	"oggi":       0,
	"stasera":    0,
	"stamattina": 0,
	"stanotte":   0,
	"domani":     1,
	"dopodomani": 2,
	"ieri":       -1,
}

var relativeDayRe = regexp.MustCompile(`(?i)\b(oggi|stasera|stamattina|stanotte|dopodomani|domani|ieri)\b`)

// Weekday names, accented and plain spellings both accepted.
var weekdays = map[string]time.Weekday{
	"lunedì":    time.Monday,
	"lunedi":    time.Monday,
	"martedì":   time.Tuesday,
	"martedi":   time.Tuesday,
	"mercoledì": time.Wednesday,
	"mercoledi": time.Wednesday,
	"giovedì":   time.Thursday,
	"giovedi":   time.Thursday,
	"venerdì":   time.Friday,
	"venerdi":   time.Friday,
	"sabato":    time.Saturday,
	"domenica":  time.Sunday,
}

// Trailing \b misfires after accented finals ("lunedì"), so the word end is
// matched as boundary-or-space-or-EOL instead.
var weekdayRe = regexp.MustCompile(`(?i)\b(lunedì|lunedi|martedì|martedi|mercoledì|mercoledi|giovedì|giovedi|venerdì|venerdi|sabato|domenica)(?:\s+(prossim[oa]|scors[oa]))?(?:\b|\s|$)`)

var explicitDateRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?\b`)

var offsetDateRe = regexp.MustCompile(`(?i)\btra\s+(\d+|un[oa']?)\s+(giorn\w*|settiman\w*|mes\w*)\b`)

var timeRe = regexp.MustCompile(`(?i)\b(?:alle|all'|ore)\s*(\d{1,2})(?:[:.](\d{2}))?\s*(am|pm)?\b`)

// Meridiem-like qualifiers attached to an hour mention: "alle 6 di sera".
var eveningRe = regexp.MustCompile(`(?i)\b(?:di|del|della)\s+(pomeriggio|sera)\b|\b(stasera|pomeriggio|sera)\b`)
var morningRe = regexp.MustCompile(`(?i)\b(?:di|del|della)\s+(mattina|mattino)\b|\b(stamattina)\b`)

var noonRe = regexp.MustCompile(`(?i)\ba\s+mezzogiorno\b`)
var midnightRe = regexp.MustCompile(`(?i)\ba\s+mezzanotte\b`)

var durationRe = regexp.MustCompile(`(?i)\bper\s+(\d+)\s+(minut\w*|or[ae]|giorn\w*)\b`)
var halfHourRe = regexp.MustCompile(`(?i)\bper\s+mezz'?\s?ora\b`)
var oneHourRe = regexp.MustCompile(`(?i)\bper\s+un'?\s?ora\b`)

var recurrenceRe = regexp.MustCompile(`(?i)\bogni\s+(giorno|settimana|mese|lunedì|lunedi|martedì|martedi|mercoledì|mercoledi|giovedì|giovedi|venerdì|venerdi|sabato|domenica)(?:\b|\s|$)`)

// Recurrence tags use a fixed vocabulary shared with the generative path.
var weekdayByday = map[time.Weekday]string{
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
	time.Sunday:    "SU",
}

var participantsRe = regexp.MustCompile(`(?i)\bcon\s+([A-Za-zÀ-ÿ][\w.@-]*(?:(?:\s*,\s*|\s+e\s+)[A-Za-zÀ-ÿ][\w.@-]*)*)`)
var participantSplitRe = regexp.MustCompile(`(?i)\s*,\s*|\s+e\s+`)

var locationRe = regexp.MustCompile(`(?i)\b(?:in|presso)\s+(.+)`)

// Query-range phrases.
var thisWeekRe = regexp.MustCompile(`(?i)\bquesta\s+settimana\b`)
var nextWeekRe = regexp.MustCompile(`(?i)\b(?:la\s+)?prossima\s+settimana\b`)
var thisMonthRe = regexp.MustCompile(`(?i)\bquesto\s+mese\b`)
var nextMonthRe = regexp.MustCompile(`(?i)\b(?:il\s+)?prossimo\s+mese\b`)
var lastPeriodRe = regexp.MustCompile(`(?i)\bultim[ie]\s+(\d+)\s+(giorn\w*|settiman\w*|mes\w*)\b`)
var fromToRe = regexp.MustCompile(`(?i)\bdal?\s+(\d{1,2}/\d{1,2}(?:/\d{2,4})?)\s+al?\s+(\d{1,2}/\d{1,2}(?:/\d{2,4})?)\b`)
var searchTermRe = regexp.MustCompile(`(?i)\b(?:riguardo\s+a|con|su|di)\s+(.+)`)

// Words trimmed from the edges of a derived title. Temporal stripping can
// leave a dangling preposition at the tail ("Mario di"), hence the trailing
// variant.
var leadingFillerRe = regexp.MustCompile(`(?i)^(?:il|lo|la|i|gli|le|un|uno|una|l'|di|del|della|dei|degli|delle|dal|dalla|per|a|al|alla|che|e)\s+`)
var leadingElisionRe = regexp.MustCompile(`(?i)^(?:l'|un'|dell')`)
var trailingFillerRe = regexp.MustCompile(`(?i)\s+(?:il|lo|la|i|gli|le|un|uno|una|di|del|della|dei|degli|delle|dal|dalla|per|a|al|alla|che|e|con|su)$`)

// Generic event-type nouns, stripped from titles unless the configuration
// keeps them.
var eventTypeNounRe = regexp.MustCompile(`(?i)^(?:appuntament[oi]|event[oi]|riunion[ei]|incontr[oi]|promemoria|impegn[oi])\b\s*`)

var eventDomainNounRe = regexp.MustCompile(`(?i)\b(appuntament\w*|event\w*|riunion\w*|incontr\w*|impegn\w*|calendari\w*)\b`)

var listingVerbRe = regexp.MustCompile(`(?i)\b(quali|mostra|mostrami|visualizza|vedi|trova|cerca|dammi|elenca|elencami)\b`)

var spaceRe = regexp.MustCompile(`\s+`)
