package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// TitlePatterns holds the ordered extraction rules per title family. Each
// entry is a regular expression whose first capture group is the title.
type TitlePatterns struct {
	NamedEvent []string `json:"namedEvent"`
	Reminder   []string `json:"reminder"`
	Generic    []string `json:"generic"`
}

// ParserConfig is the parser configuration document. It tunes title
// extraction, defaults, and the worked examples embedded in the generative
// prompt.
type ParserConfig struct {
	IncludeEventTypeInTitle bool          `json:"includeEventTypeInTitle"`
	DefaultDuration         int           `json:"defaultDuration"`
	DefaultLimit            int           `json:"defaultLimit"`
	ExampleCommands         []string      `json:"exampleCommands"`
	TitlePatterns           TitlePatterns `json:"titlePatterns"`
}

// DefaultParserConfig returns the built-in configuration used when the
// configuration file is missing or malformed.
func DefaultParserConfig() *ParserConfig {
	return &ParserConfig{
		IncludeEventTypeInTitle: false,
		DefaultDuration:         60,
		DefaultLimit:            10,
		ExampleCommands: []string{
			`"Crea riunione con Mario domani alle 10" -> {"intent":"create","eventData":{"title":"riunione con Mario"},"timeData":{"startDate":"<domani>","startTime":"10:00"}}`,
			`"Ricordami di comprare il pane stasera alle 18" -> {"intent":"create","eventData":{"title":"comprare il pane"},"timeData":{"startDate":"<oggi>","startTime":"18:00"}}`,
			`"Mostra gli appuntamenti di questa settimana" -> {"intent":"query","queryData":{"timeRange":{"start":"<lunedì 00:00>","end":"<domenica 23:59>"}}}`,
			`"Sposta la riunione con il dentista a venerdì alle 15" -> {"intent":"update","eventData":{"title":"riunione con il dentista"},"timeData":{"startDate":"<venerdì>","startTime":"15:00"}}`,
			`"Elimina l'appuntamento dal parrucchiere di martedì" -> {"intent":"delete","eventData":{"title":"appuntamento dal parrucchiere"},"timeData":{"startDate":"<martedì>"}}`,
		},
		TitlePatterns: TitlePatterns{
			NamedEvent: []string{
				`(?i)(?:chiamat[oa]|intitolat[oa]|denominat[oa])\s+"?([^",.]+)"?`,
			},
			Reminder: []string{
				`(?i)ricordami\s+(?:di\s+|che\s+)?(.+)`,
			},
			Generic: []string{
				`(?i)^(?:di\s+|il\s+|lo\s+|la\s+|l'\s*|un[oa]?\s+|per\s+)?(.+)$`,
			},
		},
	}
}

// LoadParserConfig reads the parser configuration file. A missing file or
// malformed JSON falls back to the built-in default rather than failing.
func LoadParserConfig(path string) (*ParserConfig, error) {
	cfg := DefaultParserConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("parser config not readable, using defaults: %w", err)
	}

	loaded := DefaultParserConfig()
	if err := json.Unmarshal(data, loaded); err != nil {
		return cfg, fmt.Errorf("parser config malformed, using defaults: %w", err)
	}

	if loaded.DefaultDuration <= 0 {
		loaded.DefaultDuration = 60
	}
	if loaded.DefaultLimit <= 0 {
		loaded.DefaultLimit = 10
	}
	return loaded, nil
}
