// Package review implements the model-judgment stages: a single conservative
// peer review and a multi-model consensus vote. Both stages never fail the
// pipeline; collaborator errors degrade into zero-confidence results.
package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/verdictproj/vouch/internal/llm"
	"github.com/verdictproj/vouch/pkg/models"
)

// reviewSystem sets the reviewer persona. The review is deliberately
// conservative: uncertainty lowers confidence instead of passing the code.
const reviewSystem = `You are a conservative code reviewer. Flag hallucinated
or non-existent APIs, outdated idioms, requirement mismatches and latent
bugs. When uncertain, report lower confidence rather than approving.`

const reviewSchema = `{
	"type": "object",
	"required": ["verified", "confidence"],
	"properties": {
		"verified": {"type": "boolean"},
		"issues": {"type": "array", "items": {"type": "string"}},
		"corrections": {"type": "string"},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1}
	}
}`

var compiledReviewSchema = llm.MustSchema("review.json", reviewSchema)

const reviewPrompt = `Review this AI-generated code for correctness issues.

Requirements:
%s

Code:
%s

Check for hallucinated APIs, incorrect logic, requirement violations and
security problems. Return JSON:
{
  "verified": true,
  "issues": ["description of each problem found"],
  "corrections": "corrected code if changes are needed, else empty",
  "confidence": 0.9
}`

// reviewVerdict mirrors the review JSON contract.
type reviewVerdict struct {
	Verified    bool     `json:"verified"`
	Issues      []string `json:"issues"`
	Corrections string   `json:"corrections"`
	Confidence  float64  `json:"confidence"`
}

// PeerReviewer runs the single-model review stage.
type PeerReviewer struct {
	completer llm.Completer
	logger    zerolog.Logger
}

// NewPeerReviewer creates a peer reviewer backed by a completer.
func NewPeerReviewer(completer llm.Completer, logger zerolog.Logger) *PeerReviewer {
	return &PeerReviewer{completer: completer, logger: logger}
}

// Review asks the reviewer model for a structured verdict. A completion or
// parse failure is captured as an unverified, zero-confidence result.
func (p *PeerReviewer) Review(ctx context.Context, code string, req models.Requirements, rctx models.Context) models.ReviewResult {
	prompt := fmt.Sprintf(reviewPrompt, req.Describe(), code)
	if !rctx.Empty() {
		prompt += "\n\nSimilar prior examples for reference:\n" + strings.Join(rctx.Snippets, "\n---\n")
	}

	raw, err := p.completer.Complete(ctx, prompt, llm.Options{
		System:      reviewSystem,
		JSON:        true,
		MaxTokens:   2048,
		Temperature: 0,
	})
	if err != nil {
		p.logger.Warn().Err(err).Msg("peer review unavailable")
		return models.ReviewResult{Err: err.Error()}
	}

	var verdict reviewVerdict
	if err := llm.DecodeVerdict(raw, compiledReviewSchema, &verdict); err != nil {
		p.logger.Warn().Err(err).Msg("peer review returned an invalid verdict")
		return models.ReviewResult{Err: err.Error()}
	}

	return models.ReviewResult{
		Verified:    verdict.Verified,
		Confidence:  llm.Clamp01(verdict.Confidence),
		Issues:      verdict.Issues,
		Corrections: verdict.Corrections,
	}
}
