package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/verdictproj/vouch/internal/llm"
	"github.com/verdictproj/vouch/pkg/models"
)

// DefaultMaxAttempts bounds the iterative correction loop.
const DefaultMaxAttempts = 3

var correctionAttempts = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "vouch",
	Subsystem: "pipeline",
	Name:      "correction_attempts_total",
	Help:      "Correction rounds generated after a failed verification",
})

const correctionPrompt = `This code failed verification. Fix it.

Requirements:
%s

Current code:
%s

Verification problems:
%s

Return ONLY the complete corrected code. No explanations, no markdown fences.`

// Corrector regenerates a failed candidate from its verification report and
// re-verifies it, up to a bounded number of attempts.
type Corrector struct {
	pipeline    *Pipeline
	completer   llm.Completer
	maxAttempts int
	logger      zerolog.Logger
}

// NewCorrector creates a correction loop around a pipeline. A non-positive
// maxAttempts defaults to 3.
func NewCorrector(pipeline *Pipeline, completer llm.Completer, maxAttempts int, logger zerolog.Logger) *Corrector {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Corrector{
		pipeline:    pipeline,
		completer:   completer,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Run verifies the candidate and, while it fails, regenerates it from the
// failure digest. It stops at the first verified candidate or after
// maxAttempts verifications, returning the last candidate either way.
func (c *Corrector) Run(ctx context.Context, code string, req models.Requirements, rctx models.Context) (*models.CorrectionOutcome, error) {
	outcome := &models.CorrectionOutcome{Code: code}

	current := code
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		report, err := c.pipeline.Verify(ctx, current, req, rctx)
		if err != nil {
			return nil, fmt.Errorf("correction attempt %d: %w", attempt, err)
		}

		outcome.Attempts = attempt
		outcome.Report = report
		outcome.Code = current

		if report.Verified {
			outcome.Verified = true
			return outcome, nil
		}
		if attempt == c.maxAttempts {
			break
		}

		c.logger.Info().
			Int("attempt", attempt).
			Float64("score", report.Score).
			Msg("verification failed, generating correction")

		corrected, err := c.correct(ctx, current, req, report)
		if err != nil {
			return nil, fmt.Errorf("correction attempt %d: %w", attempt, err)
		}
		correctionAttempts.Inc()

		outcome.History = append(outcome.History, models.CorrectionAttempt{
			Attempt:       attempt,
			Report:        report,
			GeneratedCode: corrected,
		})
		current = corrected
	}

	return outcome, nil
}

// correct asks the completion collaborator for a replacement candidate.
func (c *Corrector) correct(ctx context.Context, code string, req models.Requirements, report *models.VerificationReport) (string, error) {
	digest := failureDigest(report)
	prompt := fmt.Sprintf(correctionPrompt, req.Describe(), code, digest)

	raw, err := c.completer.Complete(ctx, prompt, llm.Options{
		MaxTokens:   4096,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("generate correction: %w", err)
	}

	corrected := unwrapCodeFence(raw)
	if strings.TrimSpace(corrected) == "" {
		return "", fmt.Errorf("generate correction: empty response")
	}
	return corrected, nil
}

// failureDigest flattens a failed report into the problem list handed to the
// correction prompt.
func failureDigest(report *models.VerificationReport) string {
	var problems []string

	static := report.Static()
	if !static.Valid {
		if msg := static.Error(); msg != "" {
			problems = append(problems, "Static analysis: "+msg)
		}
		for _, p := range static.MissingPatterns {
			problems = append(problems, "Missing required pattern: "+p)
		}
		for _, issue := range static.SecurityIssues {
			problems = append(problems, "Security issue: "+issue)
		}
		if static.LintOutput != "" {
			problems = append(problems, "Lint: "+static.LintOutput)
		}
	}

	spec := report.Spec()
	for _, m := range spec.Missing {
		problems = append(problems, "Unimplemented requirement: "+m)
	}
	for _, d := range spec.Discrepancies {
		problems = append(problems, "Design mismatch: "+d)
	}

	if runtime, ok := report.Runtime(); ok {
		for _, tc := range runtime.FailedCases() {
			desc := tc.Name
			if tc.Error != "" {
				desc += ": " + tc.Error
			} else if tc.Result != "" {
				desc += ": got " + tc.Result
			}
			problems = append(problems, "Failed test: "+desc)
		}
	}

	for _, issue := range report.Peer().Issues {
		problems = append(problems, "Review issue: "+issue)
	}

	if len(problems) == 0 {
		problems = append(problems,
			fmt.Sprintf("Aggregate score %.2f is below the %.2f threshold", report.Score, VerificationThreshold))
	}
	return "- " + strings.Join(problems, "\n- ")
}

// unwrapCodeFence strips a single surrounding markdown code fence, with or
// without a language tag.
func unwrapCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return trimmed
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
