// Package model contains domain models passed between layers.
package model

// FeedbackType is the binary polarity attached to a submitted review.
type FeedbackType string

// Feedback polarities.
const (
	FeedbackPositive FeedbackType = "positive"
	FeedbackNegative FeedbackType = "negative"
)

// FeedbackRecord is one labeled training example. Records are immutable
// once appended to the feedback log.
type FeedbackRecord struct {
	Prompt       string       `json:"prompt"`
	Chosen       string       `json:"chosen"`
	Rejected     string       `json:"rejected"`
	FeedbackType FeedbackType `json:"feedback_type,omitempty"`
	ReviewID     string       `json:"review_id,omitempty"`
	Timestamp    string       `json:"timestamp,omitempty"` // ISO-8601 UTC
	Source       string       `json:"source,omitempty"`
}

// DimensionScores breaks a review score into the four quality dimensions.
// Each dimension is bounded to [0,25].
type DimensionScores struct {
	Clarity          int `json:"clarity"`
	Completeness     int `json:"completeness"`
	Actionability    int `json:"actionability"`
	Constructiveness int `json:"constructiveness"`
}
