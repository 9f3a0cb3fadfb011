package rest

import (
	"errors"
	"log"
	"net/http"

	"collector-engine/internal/service"
	"collector-engine/internal/transport/auth"

	"github.com/go-chi/chi/v5"
)

// triggerRun starts an engine pass in the background. The external scheduler
// (cron) calls this once per cadence; a second call while a run is in flight
// gets a conflict.
func (h *Handler) triggerRun(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	runID, err := h.engine.StartRun(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrRunInProgress) {
			ErrorConflict(w, "engine run already in progress")
			return
		}
		log.Printf("[HTTP] startRun error: %v", err)
		ErrorInternal(w, "failed to start engine run")
		return
	}

	SuccessAccepted(w, "Engine run queued", map[string]interface{}{
		"run_id": runID,
	})
}

func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.engine.GetRuns(r.Context())
	if err != nil {
		log.Printf("[HTTP] listRuns error: %v", err)
		ErrorInternal(w, "failed to load runs")
		return
	}

	Success(w, "OK", map[string]interface{}{
		"runs": runs,
	})
}

func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")

	run, err := h.engine.GetRun(r.Context(), runID)
	if err != nil {
		if errors.Is(err, service.ErrRunNotFound) {
			ErrorNotFound(w, "run not found")
			return
		}
		log.Printf("[HTTP] getRun error: %v", err)
		ErrorInternal(w, "failed to load run")
		return
	}

	Success(w, "OK", run)
}
