// Package review computes quality scores for code-review comments.
//
// Two scorers exist side by side: Baseline models the untrained scorer
// (length heuristic only) and Trained models the scorer after a training
// run (pattern rules learned from preference data). Both are pure and
// deterministic. The trained rules are an ordered list with first-match
// semantics; reordering them changes scores.
package review

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Score bounds.
const (
	trainedBase = 50
	trainedMax  = 95
	maxScore    = 100
	maxDim      = 25
)

// Baseline length buckets, evaluated in order.
var baselineBuckets = []struct {
	below int
	score int
}{
	{10, 25},
	{30, 40},
	{50, 50},
	{100, 55},
}

const baselineLong = 60

// Baseline returns the pre-training score, a step function of review
// length only.
func Baseline(review string) int {
	length := utf8.RuneCountInString(review)
	for _, b := range baselineBuckets {
		if length < b.below {
			return b.score
		}
	}
	return baselineLong
}

// Exact-match and prefix rule tables for the trained scorer. Matching is
// always on the lower-cased, trimmed review.
var (
	approvalStamps = []string{"lgtm", "looks good", "lg", "ship it"}
	vagueCriticism = []string{"fix this", "wrong", "bad", "this looks wrong"}
	bareRequests   = []string{"add error handling", "missing unit tests"}

	securityTerms     = []string{"security", "sql injection", "xss", "hardcoded", "vulnerability"}
	constructiveVerbs = []string{"consider", "suggest", "recommend"}
	reasoningMarkers  = []string{"because", "to prevent", "to avoid", "for better"}
	alternativeTerms  = []string{"instead", "or use", "alternatively"}
	technicalTerms    = []string{"null check", "error handling", "async", "race condition", "base case"}
	praiseTerms       = []string{"great", "good", "nice"}
	balanceTerms      = []string{"but", "however", "suggestion"}
)

const shortQuestionLimit = 30

// Trained returns the post-training score. The fixed rules fire top to
// bottom and the first match wins; only the fallthrough case accumulates.
func Trained(review string) int {
	norm := strings.ToLower(strings.TrimSpace(review))

	switch {
	case equalsAny(norm, approvalStamps):
		return 15
	case equalsAny(norm, vagueCriticism):
		return 20
	case strings.HasPrefix(norm, "why") && utf8.RuneCountInString(norm) < shortQuestionLimit:
		return 35
	case equalsAny(norm, bareRequests):
		return 45
	case strings.HasPrefix(norm, "nit:"):
		return 50
	}

	score := trainedBase
	if strings.Contains(norm, "line") && containsDigit(norm) {
		score += 20
	}
	if containsAny(norm, securityTerms) {
		score += 25
	}
	if containsAny(norm, constructiveVerbs) {
		score += 10
	}
	if containsAny(norm, reasoningMarkers) {
		score += 10
	}
	if containsAny(norm, alternativeTerms) {
		score += 8
	}
	if containsAny(norm, technicalTerms) {
		score += 12
	}
	if containsAny(norm, praiseTerms) && containsAny(norm, balanceTerms) {
		score += 10
	}
	if score > trainedMax {
		score = trainedMax
	}
	return score
}

func equalsAny(s string, set []string) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
