// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// startResponse mirrors the wire shape of GET /start.
type startResponse struct {
	Status string `json:"status"`
}

// StartHandler handles training start requests.
type StartHandler struct {
	deps Dependencies
}

// NewStartHandler creates a new start handler.
func NewStartHandler(deps Dependencies) *StartHandler {
	return &StartHandler{deps: deps}
}

// HandleStart handles GET /start requests. The start is idempotent: a
// second call while a run is in progress reports already_running.
func (h *StartHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	const op = "api.start_training"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	started, err := h.deps.StartTraining(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, Wrap(op, err))
		return
	}
	if !started {
		writeJSON(w, http.StatusOK, startResponse{Status: "already_running"})
		return
	}
	writeJSON(w, http.StatusOK, startResponse{Status: "started"})
}
