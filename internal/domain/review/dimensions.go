package review

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/okian/reviewforge/internal/domain/model"
)

// Dimension adjustment thresholds. Dimensions start at score/4 and get
// small upward nudges from review characteristics; they are not required
// to sum back to the overall score.
const (
	dimLabelThreshold   = 15
	longReviewThreshold = 50
)

// Dimensions derives the four quality-dimension scores for a review that
// scored overall. Each dimension is clamped to [0,25].
func Dimensions(review string, overall int) model.DimensionScores {
	base := overall / 4
	d := model.DimensionScores{
		Clarity:          base,
		Completeness:     base,
		Actionability:    base,
		Constructiveness: base,
	}

	lower := strings.ToLower(review)
	if strings.Contains(lower, "line") || containsDigit(review) {
		d.Actionability += 3
	}
	if strings.Contains(lower, "consider") || strings.Contains(lower, "suggest") {
		d.Constructiveness += 3
	}
	if utf8.RuneCountInString(review) > longReviewThreshold {
		d.Completeness += 2
	}

	d.Clarity = clampDim(d.Clarity)
	d.Completeness = clampDim(d.Completeness)
	d.Actionability = clampDim(d.Actionability)
	d.Constructiveness = clampDim(d.Constructiveness)
	return d
}

func clampDim(v int) int {
	if v < 0 {
		return 0
	}
	if v > maxDim {
		return maxDim
	}
	return v
}

// Report renders the scored review as the multi-line explanation shown to
// reviewers, with a qualitative label per dimension.
func Report(review string, overall int) string {
	d := Dimensions(review, overall)
	return fmt.Sprintf(`Score: %d/100
Clarity: %d/25 - %s
Completeness: %d/25 - %s
Actionability: %d/25 - %s
Constructiveness: %d/25 - %s`,
		overall,
		d.Clarity, label(d.Clarity, "Clear and specific", "Could be more specific"),
		d.Completeness, label(d.Completeness, "Good coverage", "Missing details"),
		d.Actionability, label(d.Actionability, "Actionable suggestions", "Needs specific guidance"),
		d.Constructiveness, label(d.Constructiveness, "Helpful tone", "Could be more constructive"),
	)
}

func label(v int, high, low string) string {
	if v > dimLabelThreshold {
		return high
	}
	return low
}
