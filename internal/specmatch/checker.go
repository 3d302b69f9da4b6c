// Package specmatch implements the specification compliance stage:
// requirement-coverage scoring and optional design-reference comparison,
// both delegated to a code-understanding completion collaborator.
package specmatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/verdictproj/vouch/internal/llm"
	"github.com/verdictproj/vouch/pkg/models"
)

// passThreshold is the coverage score at which the spec stage passes.
const passThreshold = 0.85

// coverageSchema validates the structured verdict returned by the coverage
// prompt before it is accepted.
const coverageSchema = `{
	"type": "object",
	"required": ["covered", "missing", "score"],
	"properties": {
		"covered": {"type": "array", "items": {"type": "string"}},
		"missing": {"type": "array", "items": {"type": "string"}},
		"score": {"type": "number", "minimum": 0, "maximum": 1}
	}
}`

// designSchema validates the design comparison verdict.
const designSchema = `{
	"type": "object",
	"required": ["matches", "similarity_score"],
	"properties": {
		"matches": {"type": "boolean"},
		"discrepancies": {"type": "array", "items": {"type": "string"}},
		"similarity_score": {"type": "number", "minimum": 0, "maximum": 1}
	}
}`

var (
	compiledCoverageSchema = llm.MustSchema("coverage.json", coverageSchema)
	compiledDesignSchema   = llm.MustSchema("design.json", designSchema)
)

const coveragePrompt = `Verify if this code meets all requirements.

Requirements:
%s

Code:
%s

Classify each requirement item as covered or missing and score overall
coverage. Return JSON:
{
  "covered": ["requirement that is implemented"],
  "missing": ["requirement that is not implemented"],
  "score": 0.85
}`

const designPrompt = `Compare this component code with its design specification.

Design Specs:
%s

Generated Code:
%s

Identify discrepancies and return JSON:
{
  "matches": true,
  "discrepancies": ["Element X missing", "Color mismatch"],
  "similarity_score": 0.92
}`

// Resolver is the design-reference lookup collaborator. It is only invoked
// when the requirements carry a design reference.
type Resolver interface {
	Resolve(ctx context.Context, designReference string) (string, error)
}

// Checker runs the specification compliance stage.
type Checker struct {
	completer llm.Completer
	resolver  Resolver
	logger    zerolog.Logger
}

// NewChecker creates a spec checker. The resolver may be nil when design
// comparison is not available.
func NewChecker(completer llm.Completer, resolver Resolver, logger zerolog.Logger) *Checker {
	return &Checker{
		completer: completer,
		resolver:  resolver,
		logger:    logger,
	}
}

// coverageVerdict mirrors the coverage JSON contract.
type coverageVerdict struct {
	Covered []string `json:"covered"`
	Missing []string `json:"missing"`
	Score   float64  `json:"score"`
}

// designVerdict mirrors the design comparison JSON contract.
type designVerdict struct {
	Matches         bool     `json:"matches"`
	Discrepancies   []string `json:"discrepancies"`
	SimilarityScore float64  `json:"similarity_score"`
}

// Check scores requirement coverage and, when a design reference is present,
// averages in the design similarity score. Collaborator and parse failures
// are captured into the result with a zero contribution.
func (c *Checker) Check(ctx context.Context, code string, req models.Requirements, rctx models.Context) models.SpecResult {
	result := models.SpecResult{}

	coverage, err := c.requirementCoverage(ctx, code, req, rctx)
	if err != nil {
		result.Err = err.Error()
		c.logger.Warn().Err(err).Msg("requirement coverage failed")
		return result
	}
	result.Covered = coverage.Covered
	result.Missing = coverage.Missing
	reqScore := llm.Clamp01(coverage.Score)

	overall := reqScore
	if req.DesignReference != "" && c.resolver != nil {
		design, err := c.designMatch(ctx, code, req.DesignReference)
		if err != nil {
			// Coverage stands on its own; the design failure is recorded.
			result.Err = err.Error()
			c.logger.Warn().Err(err).Str("design_reference", req.DesignReference).
				Msg("design comparison failed")
		} else {
			score := llm.Clamp01(design.SimilarityScore)
			result.DesignScore = &score
			result.Discrepancies = design.Discrepancies
			overall = (reqScore + score) / 2
		}
	}

	result.Score = overall
	result.Passed = overall >= passThreshold
	return result
}

func (c *Checker) requirementCoverage(ctx context.Context, code string, req models.Requirements, rctx models.Context) (*coverageVerdict, error) {
	prompt := fmt.Sprintf(coveragePrompt, req.Describe(), code)
	if !rctx.Empty() {
		prompt += "\n\nReference examples from similar prior work:\n" + strings.Join(rctx.Snippets, "\n---\n")
	}

	raw, err := c.completer.Complete(ctx, prompt, llm.Options{
		JSON:        true,
		MaxTokens:   1024,
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("requirement coverage: %w", err)
	}

	var verdict coverageVerdict
	if err := llm.DecodeVerdict(raw, compiledCoverageSchema, &verdict); err != nil {
		return nil, fmt.Errorf("requirement coverage: %w", err)
	}
	return &verdict, nil
}

func (c *Checker) designMatch(ctx context.Context, code, designReference string) (*designVerdict, error) {
	artifact, err := c.resolver.Resolve(ctx, designReference)
	if err != nil {
		return nil, fmt.Errorf("resolve design %q: %w", designReference, err)
	}

	prompt := fmt.Sprintf(designPrompt, artifact, code)
	raw, err := c.completer.Complete(ctx, prompt, llm.Options{
		JSON:        true,
		MaxTokens:   1024,
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("design comparison: %w", err)
	}

	var verdict designVerdict
	if err := llm.DecodeVerdict(raw, compiledDesignSchema, &verdict); err != nil {
		return nil, fmt.Errorf("design comparison: %w", err)
	}
	return &verdict, nil
}
