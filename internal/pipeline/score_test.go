package pipeline

import (
	"math"
	"testing"

	"github.com/verdictproj/vouch/pkg/models"
)

func TestStageWeightsSumToOne(t *testing.T) {
	sum := 0.0
	for _, w := range stageWeights {
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("stage weights sum to %v, want 1.0", sum)
	}
}

func TestContribution(t *testing.T) {
	score := 0.9
	tests := []struct {
		name   string
		result models.CheckResult
		want   float64
	}{
		{"nil result", nil, 0},
		{"skipped", models.SkippedResult{Reason: "sandbox unavailable"}, 0},
		{"static valid", models.StaticResult{Valid: true}, 1},
		{"static invalid", models.StaticResult{Valid: false, SyntaxOK: true}, 0},
		{"spec score", models.SpecResult{Score: 0.72}, 0.72},
		{"spec score beats passed flag", models.SpecResult{Score: 0.4, Passed: false}, 0.4},
		{"runtime passed", models.RuntimeResult{Passed: true, SuccessRate: 1}, 1},
		{"runtime partial gives no credit", models.RuntimeResult{Passed: false, SuccessRate: 0.75}, 0},
		{"review confidence", models.ReviewResult{Verified: true, Confidence: score}, score},
		{"review unverified still contributes confidence", models.ReviewResult{Confidence: 0.3}, 0.3},
		{"consensus confidence", models.ConsensusResult{Confidence: 2.0 / 3.0}, 2.0 / 3.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := contribution(tc.result)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("contribution() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAggregateWorkedExample(t *testing.T) {
	results := map[string]models.CheckResult{
		models.StageStatic:    models.StaticResult{Valid: true},
		models.StageSpec:      models.SpecResult{Score: 0.95, Passed: true},
		models.StageRuntime:   models.RuntimeResult{Passed: true, SuccessRate: 1},
		models.StagePeer:      models.ReviewResult{Verified: true, Confidence: 0.9},
		models.StageConsensus: models.ConsensusResult{Verified: true, Confidence: 0.7},
	}

	got := aggregate(results)
	want := 0.955
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("aggregate() = %v, want %v", got, want)
	}
	if got < VerificationThreshold {
		t.Error("worked example should clear the threshold")
	}
}

func TestAggregateMissingStagesContributeZero(t *testing.T) {
	results := map[string]models.CheckResult{
		models.StageStatic: models.StaticResult{Valid: true},
	}

	got := aggregate(results)
	if math.Abs(got-0.20) > 1e-9 {
		t.Errorf("aggregate() = %v, want 0.20", got)
	}
}

func TestAggregateThresholdBoundary(t *testing.T) {
	// Exactly 0.85: static 0.20 + spec 0.30 + runtime 0.30 + consensus 0.05,
	// peer confidence zero.
	results := map[string]models.CheckResult{
		models.StageStatic:    models.StaticResult{Valid: true},
		models.StageSpec:      models.SpecResult{Score: 1, Passed: true},
		models.StageRuntime:   models.RuntimeResult{Passed: true, SuccessRate: 1},
		models.StagePeer:      models.ReviewResult{Confidence: 0},
		models.StageConsensus: models.ConsensusResult{Verified: true, Confidence: 1},
	}

	got := aggregate(results)
	if math.Abs(got-0.85) > 1e-9 {
		t.Fatalf("aggregate() = %v, want 0.85", got)
	}
	if !(got >= VerificationThreshold) {
		t.Error("a score exactly at the threshold should verify")
	}
}
