package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/IshanjotDhahan7868/BeatBank/internal/domain"
	"github.com/IshanjotDhahan7868/BeatBank/internal/pipeline"
)

type runStatusResponse struct {
	RunID  string                   `json:"run_id"`
	Status string                   `json:"status"`
	Record *domain.GenerationRecord `json:"record,omitempty"`
	Error  string                   `json:"error,omitempty"`
}

// Generate runs the whole pipeline inside the request and answers with
// the finished record. The response stays open for the whole run;
// clients that cannot hold the connection use the async variant.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	rec, err := a.Pipeline.Run(r.Context(), req)
	if err != nil {
		a.runError(w, err)
		return
	}
	a.json(w, http.StatusOK, rec)
}

// GenerateAsync starts a detached run and answers immediately with its
// handle id.
func (a *App) GenerateAsync(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	run, err := a.Pipeline.Start(r.Context(), req)
	if err != nil {
		a.runError(w, err)
		return
	}
	a.json(w, http.StatusAccepted, runStatusResponse{RunID: run.ID, Status: "running"})
}

// RunStatus reports where an async run stands. Finished runs stay
// addressable until the registry retention lapses.
func (a *App) RunStatus(w http.ResponseWriter, r *http.Request) {
	run, ok := a.lookupRun(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, statusOf(run))
}

// RunCancel stops an async run. The in-flight stage observes the cancel
// at its next suspension point, so the response reports "canceling"
// rather than a terminal state.
func (a *App) RunCancel(w http.ResponseWriter, r *http.Request) {
	run, ok := a.lookupRun(w, r)
	if !ok {
		return
	}
	if !run.Running() {
		a.json(w, http.StatusOK, statusOf(run))
		return
	}
	run.Cancel()
	a.json(w, http.StatusAccepted, runStatusResponse{RunID: run.ID, Status: "canceling"})
}

func (a *App) lookupRun(w http.ResponseWriter, r *http.Request) (*pipeline.Run, bool) {
	id := chi.URLParam(r, "run_id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "run_id required")
		return nil, false
	}
	run, ok := a.Pipeline.Lookup(id)
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "unknown run")
		return nil, false
	}
	return run, true
}

func statusOf(run *pipeline.Run) runStatusResponse {
	if run.Running() {
		return runStatusResponse{RunID: run.ID, Status: "running"}
	}
	rec, err := run.Result()
	if err != nil {
		return runStatusResponse{RunID: run.ID, Status: "failed", Error: err.Error()}
	}
	return runStatusResponse{RunID: run.ID, Status: "finished", Record: rec}
}

// runError maps a pipeline failure onto the wire. Only two kinds ever
// reach here: a rejected request and a record that could not be saved.
func (a *App) runError(w http.ResponseWriter, err error) {
	var se *domain.StageError
	if errors.As(err, &se) && se.Kind == domain.KindValidation {
		a.error(w, http.StatusBadRequest, "bad_request", se.Err.Error())
		return
	}
	a.Logger.Error().Err(err).Msg("generation run failed")
	a.error(w, http.StatusInternalServerError, "internal", "generation failed")
}
