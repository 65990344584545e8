package database

import (
	"encoding/json"
	"fmt"
	"time"
)

// ParseTrace records one parse attempt for quality measurement.
type ParseTrace struct {
	ID         int64
	RawText    string
	Method     string
	Intent     string
	Confidence float64
	IsValid    bool
	Errors     []string
	Details    map[string]any
	CreatedAt  time.Time
}

func (d *DB) CreateParseTrace(trace ParseTrace) error {
	errorsJSON := "[]"
	if len(trace.Errors) > 0 {
		if b, err := json.Marshal(trace.Errors); err == nil {
			errorsJSON = string(b)
		}
	}
	detailsJSON := "{}"
	if len(trace.Details) > 0 {
		if b, err := json.Marshal(trace.Details); err == nil {
			detailsJSON = string(b)
		}
	}

	_, err := d.Exec(`
		INSERT INTO parse_traces (
			raw_text, method, intent, confidence, is_valid, errors_json, details_json
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		trace.RawText,
		trace.Method,
		trace.Intent,
		trace.Confidence,
		trace.IsValid,
		errorsJSON,
		detailsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to create parse trace: %w", err)
	}
	return nil
}

// RecentParseTraces returns the latest traces, newest first.
func (d *DB) RecentParseTraces(limit int) ([]ParseTrace, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := d.Query(`
		SELECT id, raw_text, method, intent, confidence, is_valid, errors_json, created_at
		FROM parse_traces
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query parse traces: %w", err)
	}
	defer rows.Close()

	var traces []ParseTrace
	for rows.Next() {
		var trace ParseTrace
		var errorsJSON string
		if err := rows.Scan(
			&trace.ID,
			&trace.RawText,
			&trace.Method,
			&trace.Intent,
			&trace.Confidence,
			&trace.IsValid,
			&errorsJSON,
			&trace.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan parse trace: %w", err)
		}
		if errorsJSON != "" {
			_ = json.Unmarshal([]byte(errorsJSON), &trace.Errors)
		}
		traces = append(traces, trace)
	}
	return traces, rows.Err()
}
