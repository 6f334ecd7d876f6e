// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"io"
	"net/http"
)

type uploadResponse struct {
	Success bool `json:"success"`
}

// UploadHandler handles training data upload requests.
type UploadHandler struct {
	deps Dependencies
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(deps Dependencies) *UploadHandler {
	return &UploadHandler{deps: deps}
}

// HandleUpload handles POST /upload-training requests. The body is one
// JSON training example appended verbatim to the feedback log.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "api.upload_training"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, WrapKind(op, ErrMissingBody, err))
		return
	}
	if len(body) == 0 {
		writeError(w, http.StatusInternalServerError, NewKind(op, ErrMissingBody))
		return
	}
	if err := h.deps.UploadTraining(r.Context(), json.RawMessage(body)); err != nil {
		writeError(w, http.StatusInternalServerError, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{Success: true})
}
