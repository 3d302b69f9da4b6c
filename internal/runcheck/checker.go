package runcheck

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/verdictproj/vouch/pkg/models"
)

// Checker runs the runtime validation stage.
type Checker struct {
	completer TestGenerator
	sandbox   Sandbox
	logger    zerolog.Logger
}

// NewChecker creates a runtime checker from a test case generator and a
// sandbox.
func NewChecker(generator TestGenerator, sandbox Sandbox, logger zerolog.Logger) *Checker {
	return &Checker{
		completer: generator,
		sandbox:   sandbox,
		logger:    logger,
	}
}

// Check generates test cases from the requirements and executes them in the
// sandbox. Individual case errors are captured as failed cases; total
// sandbox or generation unavailability degrades the stage to Skipped.
func (c *Checker) Check(ctx context.Context, code string, req models.Requirements, _ models.Context) models.CheckResult {
	cases, err := c.completer.GenerateTestCases(ctx, req)
	if err != nil {
		c.logger.Warn().Err(err).Msg("test case generation unavailable")
		return models.SkippedResult{Reason: "test generation failed: " + err.Error()}
	}
	if len(cases) == 0 {
		return models.SkippedResult{Reason: "no test cases generated"}
	}

	outcomes, err := c.sandbox.Run(ctx, code, req.Language, cases)
	if err != nil {
		c.logger.Warn().Err(err).Msg("sandbox unavailable")
		return models.SkippedResult{Reason: "sandbox unavailable: " + err.Error()}
	}

	result := models.RuntimeResult{}
	passed := 0
	for i, outcome := range outcomes {
		var expected string
		if i < len(cases) {
			expected = cases[i].Expected
		}
		caseResult := judge(outcome, expected)
		if caseResult.Passed {
			passed++
		}
		result.Cases = append(result.Cases, caseResult)
	}

	result.SuccessRate = float64(passed) / float64(len(result.Cases))
	result.Passed = passed == len(result.Cases)

	c.logger.Debug().
		Int("cases", len(result.Cases)).
		Int("passed", passed).
		Bool("all_passed", result.Passed).
		Msg("runtime check finished")

	return result
}

// judge compares a probe outcome against its expectation. An execution error
// fails the case; an empty expectation only requires clean execution.
func judge(outcome ProbeOutcome, expected string) models.TestCaseResult {
	result := models.TestCaseResult{
		Name:   outcome.Name,
		Result: strings.TrimSpace(outcome.Output),
		Error:  outcome.Err,
	}
	if outcome.Err != "" {
		return result
	}
	if expected == "" {
		result.Passed = true
		return result
	}
	result.Passed = result.Result == strings.TrimSpace(expected)
	return result
}
