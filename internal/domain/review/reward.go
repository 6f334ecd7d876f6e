package review

import "strings"

// Reward weights for the completion-quality detector used during
// simulated training.
const (
	rewardScoreMarker = 0.3
	rewardScaleMarker = 0.2
	rewardPerDim      = 0.1
	rewardCap         = 1.0
)

var dimensionNames = []string{"clarity", "completeness", "actionability", "constructiveness"}

// Reward rates a model completion by how much it looks like a structured
// review score. It is the per-sample reward signal for the training
// simulation, not a quality score.
func Reward(completion string) float64 {
	lower := strings.ToLower(completion)

	var reward float64
	if strings.Contains(lower, "score:") {
		reward += rewardScoreMarker
	}
	if strings.Contains(completion, "/25") || strings.Contains(completion, "/100") {
		reward += rewardScaleMarker
	}
	for _, dim := range dimensionNames {
		if strings.Contains(lower, dim) {
			reward += rewardPerDim
		}
	}

	if reward > rewardCap {
		reward = rewardCap
	}
	return reward
}
