package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/verdictproj/vouch/internal/llm"
	"github.com/verdictproj/vouch/pkg/models"
)

// scriptedStatic verifies specific code strings and rejects everything else.
type scriptedStatic struct {
	valid map[string]bool
}

func (s *scriptedStatic) Check(ctx context.Context, code string, req models.Requirements, rctx models.Context) models.StaticResult {
	if s.valid[code] {
		return models.StaticResult{Valid: true, SyntaxOK: true}
	}
	return models.StaticResult{Valid: false, SyntaxOK: false, SyntaxError: "unexpected token"}
}

// scriptedCompleter returns canned completions in order.
type scriptedCompleter struct {
	responses []string
	calls     int
}

func (s *scriptedCompleter) Complete(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	resp := s.responses[len(s.responses)-1]
	if s.calls < len(s.responses) {
		resp = s.responses[s.calls]
	}
	s.calls++
	return resp, nil
}

func correctionPipeline(static StaticChecker) *Pipeline {
	return New(static,
		&stubSpec{result: models.SpecResult{Score: 1, Passed: true}},
		&stubRuntime{result: models.RuntimeResult{Passed: true, SuccessRate: 1}},
		&stubPeer{result: models.ReviewResult{Verified: true, Confidence: 1}},
		&stubConsensus{result: models.ConsensusResult{Verified: true, Confidence: 1}},
		nil, StageTimeouts{}, zerolog.Nop())
}

func TestCorrectorPassesFirstTry(t *testing.T) {
	p := correctionPipeline(&scriptedStatic{valid: map[string]bool{"good code": true}})
	completer := &scriptedCompleter{responses: []string{"unused"}}
	c := NewCorrector(p, completer, 3, zerolog.Nop())

	outcome, err := c.Run(context.Background(), "good code", testRequirements(), models.Context{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !outcome.Verified {
		t.Error("expected a verified outcome")
	}
	if outcome.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", outcome.Attempts)
	}
	if completer.calls != 0 {
		t.Error("no correction should be generated for passing code")
	}
	if len(outcome.History) != 0 {
		t.Errorf("expected empty history, got %d entries", len(outcome.History))
	}
}

func TestCorrectorFixesOnSecondAttempt(t *testing.T) {
	p := correctionPipeline(&scriptedStatic{valid: map[string]bool{"fixed code": true}})
	completer := &scriptedCompleter{responses: []string{"fixed code"}}
	c := NewCorrector(p, completer, 3, zerolog.Nop())

	outcome, err := c.Run(context.Background(), "broken code", testRequirements(), models.Context{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !outcome.Verified {
		t.Error("expected a verified outcome after correction")
	}
	if outcome.Attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", outcome.Attempts)
	}
	if outcome.Code != "fixed code" {
		t.Errorf("expected the corrected candidate, got %q", outcome.Code)
	}
	if len(outcome.History) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(outcome.History))
	}
	if outcome.History[0].GeneratedCode != "fixed code" {
		t.Errorf("history should record the generated candidate")
	}
}

func TestCorrectorStopsAtMaxAttempts(t *testing.T) {
	p := correctionPipeline(&scriptedStatic{valid: map[string]bool{}})
	completer := &scriptedCompleter{responses: []string{"still broken"}}
	c := NewCorrector(p, completer, 3, zerolog.Nop())

	outcome, err := c.Run(context.Background(), "broken code", testRequirements(), models.Context{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if outcome.Verified {
		t.Error("expected an unverified outcome")
	}
	if outcome.Attempts != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", outcome.Attempts)
	}
	// Two corrections: after attempts 1 and 2, never after the last.
	if completer.calls != 2 {
		t.Errorf("expected 2 correction generations, got %d", completer.calls)
	}
}

func TestCorrectorStripsCodeFences(t *testing.T) {
	p := correctionPipeline(&scriptedStatic{valid: map[string]bool{"fenced code": true}})
	completer := &scriptedCompleter{responses: []string{"```javascript\nfenced code\n```"}}
	c := NewCorrector(p, completer, 3, zerolog.Nop())

	outcome, err := c.Run(context.Background(), "broken code", testRequirements(), models.Context{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !outcome.Verified {
		t.Errorf("fence-wrapped correction should verify, got code %q", outcome.Code)
	}
}

func TestUnwrapCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", "plain code", "plain code"},
		{"fence with language", "```go\nfunc main() {}\n```", "func main() {}"},
		{"fence without language", "```\nx = 1\n```", "x = 1"},
		{"unterminated fence", "```go\nfunc main() {}", "func main() {}"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := unwrapCodeFence(tc.in); got != tc.want {
				t.Errorf("unwrapCodeFence(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFailureDigest(t *testing.T) {
	report := &models.VerificationReport{
		Score: 0.4,
		Results: map[string]models.CheckResult{
			models.StageStatic: models.StaticResult{
				Valid:           false,
				SyntaxError:     "unexpected token at line 3",
				MissingPatterns: []string{"export default"},
			},
			models.StageSpec: models.SpecResult{
				Score:   0.5,
				Missing: []string{"input validation"},
			},
			models.StageRuntime: models.RuntimeResult{
				Passed: false,
				Cases: []models.TestCaseResult{
					{Name: "adds numbers", Passed: true},
					{Name: "rejects strings", Passed: false, Error: "exit 1"},
				},
			},
			models.StagePeer: models.ReviewResult{
				Issues: []string{"uses a nonexistent API"},
			},
		},
	}

	digest := failureDigest(report)
	for _, want := range []string{
		"unexpected token at line 3",
		"export default",
		"input validation",
		"rejects strings",
		"nonexistent API",
	} {
		if !strings.Contains(digest, want) {
			t.Errorf("digest missing %q:\n%s", want, digest)
		}
	}
	if strings.Contains(digest, "adds numbers") {
		t.Error("digest should not mention passing cases")
	}
}

func TestFailureDigestFallsBackToScore(t *testing.T) {
	report := &models.VerificationReport{
		Score:   0.8,
		Results: map[string]models.CheckResult{},
	}

	digest := failureDigest(report)
	if !strings.Contains(digest, "0.80") {
		t.Errorf("expected the aggregate score in the digest, got %q", digest)
	}
}
