package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-blink/internal/audit"
	"github.com/nerrad567/gray-logic-blink/internal/pattern"
)

// savePatternRequest is the body of POST /patterns and PUT /patterns/{id}.
//
// Steps can be given either as the compact string form in Pattern or as a
// Steps list. With neither, a three-times blink of Color is created. A
// Steps list plays once unless Repeats says otherwise; 0 loops.
type savePatternRequest struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Pattern string         `json:"pattern"`
	Steps   []pattern.Step `json:"steps"`
	Repeats *int           `json:"repeats"`
	Color   string         `json:"color"`
}

func (r savePatternRequest) repeats() int {
	if r.Repeats == nil {
		return 1
	}
	return *r.Repeats
}

// playRequest is the body of POST /patterns/play.
type playRequest struct {
	Pattern  string `json:"pattern"`
	DeviceID string `json:"device_id"`
}

// handleListPatterns returns every pattern in {id, name, pattern} form.
func (s *Server) handleListPatterns(w http.ResponseWriter, _ *http.Request) {
	patterns := s.patterns.PatternsForOutput()
	writeJSON(w, http.StatusOK, map[string]any{
		"patterns": patterns,
		"count":    len(patterns),
	})
}

// handleGetPattern returns one pattern with its playback state.
func (s *Server) handleGetPattern(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := s.patterns.PatternByID(id)
	if !ok {
		writeNotFound(w, "pattern not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleSavePattern creates (POST) or replaces (PUT) a user pattern.
func (s *Server) handleSavePattern(w http.ResponseWriter, r *http.Request) {
	var req savePatternRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON: "+err.Error())
		return
	}

	status := http.StatusCreated
	if id := chi.URLParam(r, "id"); id != "" {
		req.ID = id
		status = http.StatusOK
	}

	var p pattern.Pattern
	switch {
	case req.Pattern != "":
		p = *pattern.NewPatternFromString(req.Name, req.Pattern)
	case len(req.Steps) > 0:
		p = pattern.Pattern{Name: req.Name, Steps: req.Steps, Repeats: req.repeats()}
	default:
		p = s.patterns.NewPattern(req.Name, req.Color)
	}
	if req.ID != "" {
		p.ID = req.ID
	}

	saved, err := s.patterns.SavePattern(r.Context(), p)
	if err != nil && saved.ID == "" {
		writePatternError(w, err)
		return
	}
	s.audit.Record(audit.ActionSave, saved.ID, requestSource(r))
	if err != nil {
		s.logger.Error("pattern saved but not persisted", "id", saved.ID, "error", err)
		writeInternalError(w, "pattern saved but not persisted")
		return
	}

	writeJSON(w, status, saved)
}

// handleDeletePattern removes a user pattern. Built-in ids are accepted
// and left untouched.
func (s *Server) handleDeletePattern(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.patterns.DeletePattern(r.Context(), id); err != nil {
		writePatternError(w, err)
		return
	}
	s.audit.Record(audit.ActionDelete, id, requestSource(r))
	w.WriteHeader(http.StatusNoContent)
}

// handlePlay plays a pattern name, id, or directive token.
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.Pattern == "" {
		writeBadRequest(w, "pattern is required")
		return
	}

	source := requestSource(r)
	id, err := s.patterns.Play(source, req.Pattern, req.DeviceID)
	if err != nil {
		writePatternError(w, err)
		return
	}
	s.audit.Record(audit.ActionPlay, id, source)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"id":     id,
		"status": s.patterns.Status(),
	})
}

// handleStop stops one pattern.
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	id, err := s.patterns.Stop(chi.URLParam(r, "id"))
	if err != nil {
		writePatternError(w, err)
		return
	}
	s.audit.Record(audit.ActionStop, id, requestSource(r))

	writeJSON(w, http.StatusOK, map[string]any{
		"id":     id,
		"status": s.patterns.Status(),
	})
}

// handleStopAll stops everything and clears the interrupt stack.
func (s *Server) handleStopAll(w http.ResponseWriter, r *http.Request) {
	s.patterns.StopAll()
	s.audit.Record(audit.ActionStopAll, "", requestSource(r))
	writeJSON(w, http.StatusOK, s.patterns.Status())
}

// handleStatus returns what is playing and what is queued.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.patterns.Status())
}

func (s *Server) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.patterns.Config())
}

// handleSetConfig replaces the runtime playback config.
func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	var cfg pattern.ServiceConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeBadRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if err := s.patterns.SetConfig(r.Context(), cfg); err != nil {
		s.logger.Error("failed to save playback config", "error", err)
		writeInternalError(w, "failed to save playback config")
		return
	}
	writeJSON(w, http.StatusOK, s.patterns.Config())
}
