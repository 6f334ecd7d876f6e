// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/okian/reviewforge/internal/domain/model"
	"github.com/okian/reviewforge/pkg/logger"
)

// feedbackRequest mirrors the wire shape of POST /feedback. The dashboard
// sends the review text as reviewText; older clients send comment.
type feedbackRequest struct {
	ReviewID   string `json:"reviewId"`
	Feedback   string `json:"feedback"`
	ReviewText string `json:"reviewText"`
	Comment    string `json:"comment"`
	Score      *int   `json:"score"`
}

type feedbackResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	ReviewID string `json:"review_id"`
}

// FeedbackHandler handles feedback submission requests.
type FeedbackHandler struct {
	deps Dependencies
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(deps Dependencies) *FeedbackHandler {
	return &FeedbackHandler{deps: deps}
}

// HandleFeedback handles POST /feedback requests.
func (h *FeedbackHandler) HandleFeedback(w http.ResponseWriter, r *http.Request) {
	const op = "api.record_feedback"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusInternalServerError, WrapKind(op, ErrBadRequest, err))
		return
	}
	sub := model.FeedbackSubmission{
		ReviewID:   req.ReviewID,
		Feedback:   model.FeedbackType(strings.ToLower(strings.TrimSpace(req.Feedback))),
		ReviewText: req.ReviewText,
		Score:      req.Score,
	}
	if sub.ReviewText == "" {
		sub.ReviewText = req.Comment
	}
	id, err := h.deps.RecordFeedback(r.Context(), sub)
	if err != nil {
		logger.Get().Error(r.Context(), "feedback append failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, feedbackResponse{
		Success:  true,
		Message:  "Feedback recorded",
		ReviewID: id,
	})
}
