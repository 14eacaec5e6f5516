package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/pitch-scorer/internal/apperr"
	"github.com/fpang/pitch-scorer/internal/scoring"
	"github.com/fpang/pitch-scorer/internal/sheets"
)

type applicationSummary struct {
	ID  int `json:"id"`
	Row int `json:"row"`
}

type resultsResponse struct {
	ID       int            `json:"id"`
	Behavior scoring.Result `json:"behavior,omitempty"`
	Skill    scoring.Result `json:"skill,omitempty"`
}

type batchStatus struct {
	Available   bool       `json:"available"`
	Armed       bool       `json:"armed"`
	Running     bool       `json:"running"`
	LastRunDate string     `json:"lastRunDate,omitempty"`
	NextRun     *time.Time `json:"nextRun,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.opts.Version})
}

func (s *Server) handleApplications(w http.ResponseWriter, r *http.Request) {
	records, err := s.opts.Source.Read(r.Context())
	if err != nil {
		errorFor(w, err)
		return
	}
	apps := make([]applicationSummary, len(records))
	for i, rec := range records {
		apps[i] = applicationSummary{ID: rec.ID, Row: rec.Row}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"applications": apps,
		"ids":          sheets.IDs(records),
	})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	resp := resultsResponse{ID: id}
	resp.Behavior, _ = s.opts.Results.Get(r.Context(), id, scoring.Behavior)
	resp.Skill, _ = s.opts.Results.Get(r.Context(), id, scoring.Skill)
	if resp.Behavior == nil && resp.Skill == nil {
		httpError(w, http.StatusNotFound, "no results for application "+strconv.Itoa(id))
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	behavior, skill, err := s.opts.Pipeline.Run(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Int("applicationId", id).Str("errorKind", apperr.Kind(err)).Msg("Single application run failed")
		errorFor(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resultsResponse{ID: id, Behavior: behavior, Skill: skill})
}

func (s *Server) handleCheckpoint(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.opts.Checkpoint.Get(r.Context())
	if !ok {
		httpError(w, http.StatusNotFound, "no checkpoint recorded")
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	sched := s.opts.Scheduler
	if sched == nil {
		respondJSON(w, http.StatusOK, batchStatus{})
		return
	}
	next := sched.NextRun()
	respondJSON(w, http.StatusOK, batchStatus{
		Available:   true,
		Armed:       sched.Armed(),
		Running:     sched.Running(),
		LastRunDate: sched.LastRunDate(),
		NextRun:     &next,
	})
}

func (s *Server) handleBatchRun(w http.ResponseWriter, r *http.Request) {
	if s.opts.Scheduler == nil {
		httpError(w, http.StatusServiceUnavailable, "batch runs are not available on this deployment")
		return
	}
	if !s.opts.Scheduler.TriggerNow() {
		httpError(w, http.StatusConflict, "a batch run is already in progress")
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.PathValue("id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid application id: "+raw)
		return 0, false
	}
	return id, true
}
