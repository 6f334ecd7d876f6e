// Package model contains domain models passed between layers.
package model

// FeedbackSubmission is the normalized form of a reviewer's feedback on a
// generated review score, before it is turned into a FeedbackRecord.
type FeedbackSubmission struct {
	// ReviewID identifies the review; generated when absent.
	ReviewID string

	// Feedback is the submitted polarity, stored verbatim.
	Feedback FeedbackType

	// ReviewText is the review the feedback refers to.
	ReviewText string

	// Score overrides the polarity-derived default when non-nil.
	Score *int
}
