// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// MetricsHandler handles training snapshot requests.
type MetricsHandler struct {
	deps Dependencies
}

// NewMetricsHandler creates a new metrics handler.
func NewMetricsHandler(deps Dependencies) *MetricsHandler {
	return &MetricsHandler{deps: deps}
}

// HandleMetrics handles GET /metrics and GET /metrics.json requests.
// Returns the latest training snapshot as JSON.
func (h *MetricsHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	snap := h.deps.Metrics(r.Context())
	writeJSON(w, http.StatusOK, snap)
}
