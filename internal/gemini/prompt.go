package gemini

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gmarchetti/dimmi/internal/config"
)

// BuildPrompt produces the full instruction payload for one command. It is a
// pure function of the text, the reference date and the parser configuration;
// a nil configuration falls back to the built-in default.
func BuildPrompt(text string, ref time.Time, cfg *config.ParserConfig) string {
	if cfg == nil {
		cfg = config.DefaultParserConfig()
	}

	var b bytes.Buffer

	b.WriteString("You are a parser for Italian calendar commands. ")
	b.WriteString("Classify the command as one of the intents: create, read, update, delete, query. ")
	b.WriteString(fmt.Sprintf("Today is %s.\n\n", ref.Format("2006-01-02 (Monday)")))

	b.WriteString("## Command\n\n")
	b.WriteString(text)
	b.WriteString("\n\n")

	b.WriteString("## Title rules (highest priority)\n\n")
	b.WriteString("- NEVER copy structural words like \"chiamato\", \"intitolato\" or \"denominato\" into the title; they introduce the title, they are not part of it.\n")
	b.WriteString("- For \"ricordami di X\", the title is X alone.\n")
	b.WriteString("- Do not include dates, times, durations or locations in the title.\n")
	if cfg.IncludeEventTypeInTitle {
		b.WriteString("- Keep generic event nouns (appuntamento, evento, riunione) in the title.\n")
	} else {
		b.WriteString("- Strip generic event nouns (appuntamento, evento, riunione) from the title; keep only the distinguishing part.\n")
	}
	b.WriteString("\n")

	b.WriteString("## Read vs query\n\n")
	b.WriteString("Use \"read\" when the user asks to show events in a time window, ")
	b.WriteString("\"query\" when the user searches by subject, participant or free text. ")
	b.WriteString("Both fill queryData, never eventData.\n\n")

	b.WriteString("## Relative dates (resolve against today)\n\n")
	b.WriteString("| expression | resolution |\n|---|---|\n")
	b.WriteString("| oggi, stasera, stamattina | today |\n")
	b.WriteString("| domani | today + 1 day |\n")
	b.WriteString("| dopodomani | today + 2 days |\n")
	b.WriteString("| <weekday name> | next future occurrence, never today |\n")
	b.WriteString("| <weekday> prossimo | next future occurrence |\n")
	b.WriteString("| <weekday> scorso | most recent past occurrence |\n")
	b.WriteString("| tra N giorni/settimane/mesi | today + N units |\n")
	b.WriteString("| questa settimana | Monday 00:00 to Sunday 23:59 of this week |\n")
	b.WriteString("| N di sera / del pomeriggio | hour N + 12 when N < 12 |\n\n")

	if len(cfg.ExampleCommands) > 0 {
		b.WriteString("## Examples\n\n")
		for _, example := range cfg.ExampleCommands {
			b.WriteString("- ")
			b.WriteString(example)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## Output format\n\n")
	b.WriteString("Respond with exactly this JSON object and nothing else:\n\n")
	b.WriteString(`{
  "intent": "create|read|update|delete|query",
  "confidence": 0.0,
  "eventData": {
    "title": "",
    "description": "",
    "location": "",
    "participants": []
  },
  "timeData": {
    "startDate": "YYYY-MM-DD",
    "startTime": "HH:MM",
    "endDate": "",
    "endTime": "",
    "duration": 0,
    "recurrence": ""
  },
  "queryData": {
    "timeRange": {"start": "YYYY-MM-DDTHH:MM:SS", "end": "YYYY-MM-DDTHH:MM:SS"},
    "searchTerm": "",
    "filterType": "",
    "limit": ` + fmt.Sprintf("%d", cfg.DefaultLimit) + `
  },
  "ambiguities": [],
  "missingInfo": []
}
`)

	return b.String()
}
