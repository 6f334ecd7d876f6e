// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

type sampleRulesResponse struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
}

// SampleRulesHandler handles sample-rules import requests.
type SampleRulesHandler struct {
	deps Dependencies
}

// NewSampleRulesHandler creates a new sample-rules handler.
func NewSampleRulesHandler(deps Dependencies) *SampleRulesHandler {
	return &SampleRulesHandler{deps: deps}
}

// HandleLoadSampleRules handles POST /load-sample-rules requests.
// A missing rules file is reported as a failure, not a crash.
func (h *SampleRulesHandler) HandleLoadSampleRules(w http.ResponseWriter, r *http.Request) {
	const op = "api.load_sample_rules"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	count, err := h.deps.LoadSampleRules(r.Context())
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, sampleRulesResponse{Success: true, Count: count})
}
