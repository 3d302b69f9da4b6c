package dashboard

import (
	"strings"
	"testing"
	"time"

	"github.com/verdictproj/vouch/internal/feedback"
	"github.com/verdictproj/vouch/pkg/models"
)

func sampleReport(verified bool) *models.VerificationReport {
	score := 0.95
	if !verified {
		score = 0.55
	}
	return &models.VerificationReport{
		ID:        "0194fdc2-fa2f-4cc0-81d3-ff12045b73c8",
		Timestamp: time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC),
		Requirements: models.Requirements{
			Language:    "vue",
			Description: "a button",
		},
		Results: map[string]models.CheckResult{
			models.StageStatic:  models.StaticResult{Valid: true, SyntaxOK: true},
			models.StageSpec:    models.SpecResult{Score: 0.9, Passed: true},
			models.StageRuntime: models.SkippedResult{Reason: "sandbox unavailable"},
			models.StagePeer:    models.ReviewResult{Verified: verified, Confidence: 0.9},
			models.StageConsensus: models.ConsensusResult{
				Verified: true, Confidence: 1, Votes: []bool{true, true, true},
			},
		},
		Score:    score,
		Verified: verified,
	}
}

func TestRenderVerdict(t *testing.T) {
	passed := Render(sampleReport(true))
	if !strings.Contains(passed, "VERIFIED") {
		t.Error("a passing report should render VERIFIED")
	}
	if !strings.Contains(passed, "0.950") {
		t.Error("the aggregate score should be shown")
	}

	failed := Render(sampleReport(false))
	if !strings.Contains(failed, "REJECTED") {
		t.Error("a failing report should render REJECTED")
	}
}

func TestRenderStageLines(t *testing.T) {
	out := Render(sampleReport(true))

	for _, want := range []string{"static", "spec", "runtime", "peer", "consensus"} {
		if !strings.Contains(out, want) {
			t.Errorf("stage %q missing from render:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "skipped") {
		t.Error("the skipped runtime stage should be labeled")
	}
	if !strings.Contains(out, "sandbox unavailable") {
		t.Error("a skip should show its reason")
	}
	if !strings.Contains(out, "3/3 votes") {
		t.Error("consensus should show the vote tally")
	}
}

func TestRenderCorrection(t *testing.T) {
	first := sampleReport(false)
	final := sampleReport(true)
	outcome := &models.CorrectionOutcome{
		Code:     "fixed",
		Verified: true,
		Attempts: 2,
		Report:   final,
		History: []models.CorrectionAttempt{
			{Attempt: 1, Report: first, GeneratedCode: "fixed"},
		},
	}

	out := RenderCorrection(outcome)

	if !strings.Contains(out, "after 2 attempt(s)") {
		t.Error("the attempt count should be shown")
	}
	if !strings.Contains(out, "attempt 1") {
		t.Error("the attempt trail should be shown")
	}
}

func TestRenderHistory(t *testing.T) {
	if out := RenderHistory(nil); !strings.Contains(out, "no verification runs") {
		t.Errorf("empty history should say so, got %q", out)
	}

	at := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	entries := []feedback.Entry{
		{ID: "0194fdc2-fa2f-4cc0-81d3-ff12045b73c8", Language: "vue", Score: 0.95, Verified: true, CreatedAt: at},
		{ID: "5fb90bad-b37c-4821-b6d9-5526a41a9504", Language: "vue", Score: 0.55, Verified: false,
			Problems: []string{"missing pattern: v-model", "failed test: submits"}, CreatedAt: at},
	}

	out := RenderHistory(entries)
	if !strings.Contains(out, "pass") || !strings.Contains(out, "fail") {
		t.Errorf("history should show both verdicts:\n%s", out)
	}
	if !strings.Contains(out, "0194fdc2") {
		t.Error("history rows should show the short report ID")
	}
	if !strings.Contains(out, "missing pattern: v-model") {
		t.Error("failed entries should carry their problem digest")
	}
}

func TestStageSummaryStaticDetail(t *testing.T) {
	out := stageSummary(models.StaticResult{
		Valid:           false,
		SyntaxOK:        true,
		MissingPatterns: []string{"v-model"},
	})
	if !strings.Contains(out, "invalid") {
		t.Errorf("expected invalid label, got %q", out)
	}
	if !strings.Contains(out, "v-model") {
		t.Errorf("expected failure detail, got %q", out)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 60); got != "short" {
		t.Errorf("truncate should leave short strings alone, got %q", got)
	}
	long := strings.Repeat("x", 80)
	got := truncate(long, 60)
	if len(got) != 60 || !strings.HasSuffix(got, "...") {
		t.Errorf("truncate(80 chars, 60) = %q", got)
	}
}
