package pipeline

import "github.com/verdictproj/vouch/pkg/models"

// VerificationThreshold is the aggregate score at or above which a candidate
// is considered verified.
const VerificationThreshold = 0.85

// stageWeights assigns each stage its share of the aggregate score. The
// weights sum to 1.0 so a perfect run scores exactly 1.0.
var stageWeights = map[string]float64{
	models.StageStatic:    0.20,
	models.StageSpec:      0.30,
	models.StageRuntime:   0.30,
	models.StagePeer:      0.15,
	models.StageConsensus: 0.05,
}

// contribution extracts a stage's 0..1 signal from its result. Precedence:
// graded score, then confidence, then full-weight-on-pass. Skipped stages and
// unknown shapes contribute nothing.
func contribution(result models.CheckResult) float64 {
	if result == nil || result.IsSkipped() {
		return 0
	}
	switch r := result.(type) {
	case models.Scorer:
		return r.StageScore()
	case models.Confider:
		return r.StageConfidence()
	case models.PassFlag:
		if r.StagePassed() {
			return 1
		}
	}
	return 0
}

// aggregate computes the weighted verification score across all stages. Stage
// results missing from the map contribute zero.
func aggregate(results map[string]models.CheckResult) float64 {
	score := 0.0
	for stage, weight := range stageWeights {
		score += weight * contribution(results[stage])
	}
	return score
}
