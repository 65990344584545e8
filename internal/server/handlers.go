package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gmarchetti/dimmi/internal/command"
	"github.com/gmarchetti/dimmi/internal/database"
	"github.com/gmarchetti/dimmi/internal/gcal"
	"github.com/gmarchetti/dimmi/internal/parser"
	"github.com/gmarchetti/dimmi/internal/timeutil"
)

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":     "healthy",
		"database":   s.db != nil,
		"calendar":   s.cal.IsAuthenticated(),
		"generative": s.generative,
	}
	respondJSON(w, http.StatusOK, status)
}

type parseRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		respondError(w, http.StatusBadRequest, "text is required")
		return
	}

	result := s.facade.ParseCommand(r.Context(), req.Text)
	s.recordTrace(result)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleParseLegacy(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		respondError(w, http.StatusBadRequest, "text is required")
		return
	}

	respondJSON(w, http.StatusOK, s.facade.ParseCommandLegacy(r.Context(), req.Text))
}

type executeRequest struct {
	Text string `json:"text"`
	// EventID skips event resolution for update/delete when the caller
	// already picked a candidate.
	EventID string `json:"eventId,omitempty"`
}

type executeResponse struct {
	Result     parser.Result `json:"result"`
	Event      *gcal.Event   `json:"event,omitempty"`
	Events     []gcal.Event  `json:"events,omitempty"`
	Candidates []gcal.Event  `json:"candidates,omitempty"`
	Status     string        `json:"status"`
}

// handleExecute parses the text and maps a valid schema onto the calendar
// store. Invalid schemas are returned with their validation feedback and
// nothing reaches the store.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		respondError(w, http.StatusBadRequest, "text is required")
		return
	}

	if !s.cal.IsAuthenticated() {
		respondError(w, http.StatusUnauthorized, "calendar credential missing or expired, re-authentication required")
		return
	}

	result := s.facade.ParseCommand(r.Context(), req.Text)
	s.recordTrace(result)

	if !result.IsValid {
		respondJSON(w, http.StatusUnprocessableEntity, executeResponse{
			Result: result,
			Status: "invalid",
		})
		return
	}

	resp, err := s.execute(result, req.EventID)
	if err != nil {
		if gcal.IsNotAuthenticated(err) {
			respondError(w, http.StatusUnauthorized, "calendar credential missing or expired, re-authentication required")
			return
		}
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) execute(result parser.Result, eventID string) (*executeResponse, error) {
	schema := result.Schema
	now := s.now()

	switch schema.Intent {
	case command.IntentCreate:
		record, err := schema.ToEventRecord(now, 0)
		if err != nil {
			return nil, err
		}
		event, err := s.cal.CreateEvent(eventInput(record))
		if err != nil {
			return nil, err
		}
		return &executeResponse{Result: result, Event: event, Status: "created"}, nil

	case command.IntentUpdate:
		record, err := schema.ToEventRecord(now, 0)
		if err != nil {
			return nil, err
		}
		if eventID == "" {
			candidates, err := s.resolveCandidates(schema, now)
			if err != nil {
				return nil, err
			}
			if len(candidates) != 1 {
				return &executeResponse{Result: result, Candidates: candidates, Status: "needs_selection"}, nil
			}
			eventID = candidates[0].ID
		}
		event, err := s.cal.UpdateEvent(eventID, eventInput(record))
		if err != nil {
			return nil, err
		}
		return &executeResponse{Result: result, Event: event, Status: "updated"}, nil

	case command.IntentDelete:
		if eventID == "" {
			candidates, err := s.resolveCandidates(schema, now)
			if err != nil {
				return nil, err
			}
			// Deletion only proceeds on an exact single match.
			if len(candidates) != 1 {
				return &executeResponse{Result: result, Candidates: candidates, Status: "needs_selection"}, nil
			}
			eventID = candidates[0].ID
		}
		if err := s.cal.DeleteEvent(eventID); err != nil {
			return nil, err
		}
		return &executeResponse{Result: result, Status: "deleted"}, nil

	case command.IntentRead, command.IntentQuery:
		params, err := schema.ToSearchParams(now)
		if err != nil {
			return nil, err
		}
		events, err := s.cal.ListEvents(params.TimeMin, params.TimeMax, params.Query, params.MaxResults)
		if err != nil {
			return nil, err
		}
		return &executeResponse{Result: result, Events: events, Status: "listed"}, nil
	}

	return nil, fmt.Errorf("intent %q cannot be executed", schema.Intent)
}

// resolveCandidates finds the store events an update/delete schema refers
// to: a title search over the parsed day, or over the next 30 days when no
// date was recognized.
func (s *Server) resolveCandidates(schema *command.Schema, now time.Time) ([]gcal.Event, error) {
	timeMin := now
	var timeMax *time.Time
	if schema.Time.StartDate != nil {
		start, end := timeutil.DayBounds(*schema.Time.StartDate)
		timeMin = start
		timeMax = &end
	} else {
		end := now.AddDate(0, 0, 30)
		timeMax = &end
	}

	return s.cal.ListEvents(timeMin, timeMax, schema.Event.Title, schema.Query.Limit)
}

func eventInput(record *command.EventRecord) gcal.EventInput {
	return gcal.EventInput{
		Summary:     record.Title,
		Description: record.Description,
		Location:    record.Location,
		StartTime:   record.Start,
		EndTime:     record.End,
		Recurrence:  record.Recurrence,
		Attendees:   record.Attendees,
	}
}

func (s *Server) handleUpdateParserConfig(w http.ResponseWriter, r *http.Request) {
	var patch parser.ConfigPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid config patch")
		return
	}
	s.facade.UpdateConfig(patch)
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleListTraces(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	traces, err := s.db.RecentParseTraces(limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, traces)
}

func (s *Server) recordTrace(result parser.Result) {
	if s.db == nil {
		return
	}
	trace := database.ParseTrace{
		RawText:    result.Schema.Metadata.RawText,
		Method:     string(result.Schema.Metadata.Method),
		Intent:     string(result.Schema.Intent),
		Confidence: result.Schema.Confidence,
		IsValid:    result.IsValid,
		Errors:     result.Errors,
	}
	if err := s.db.CreateParseTrace(trace); err != nil {
		fmt.Printf("Warning: could not record parse trace: %v\n", err)
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		fmt.Printf("Error encoding JSON response: %v\n", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
