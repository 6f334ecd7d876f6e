// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/okian/reviewforge/pkg/logger"
)

// testModelRequest mirrors the wire shape of POST /test-model.
type testModelRequest struct {
	Review string `json:"review"`
}

type testModelResponse struct {
	Success     bool   `json:"success"`
	Result      string `json:"result"`
	BeforeScore int    `json:"before_score"`
	AfterScore  int    `json:"after_score"`
}

// TestModelHandler handles model scoring requests.
type TestModelHandler struct {
	deps Dependencies
}

// NewTestModelHandler creates a new test-model handler.
func NewTestModelHandler(deps Dependencies) *TestModelHandler {
	return &TestModelHandler{deps: deps}
}

// HandleTestModel handles POST /test-model requests.
func (h *TestModelHandler) HandleTestModel(w http.ResponseWriter, r *http.Request) {
	const op = "api.test_model"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req testModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusInternalServerError, WrapKind(op, ErrBadRequest, err))
		return
	}
	result, before, after, err := h.deps.TestModel(r.Context(), req.Review)
	if err != nil {
		logger.Get().Error(r.Context(), "test-model failed", logger.Error(err))
		writeFailure(w, http.StatusInternalServerError, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, testModelResponse{
		Success:     true,
		Result:      result,
		BeforeScore: before,
		AfterScore:  after,
	})
}
