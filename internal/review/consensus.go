package review

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/verdictproj/vouch/internal/llm"
	"github.com/verdictproj/vouch/pkg/models"
)

// consensusThreshold is the yes-vote fraction required for a verified
// consensus.
const consensusThreshold = 0.7

// minEvaluators is the smallest panel that makes a majority meaningful.
const minEvaluators = 3

const votePrompt = `Answer yes or no: does this code correctly implement the
requirements?

Requirements:
%s

Code:
%s

Respond with a single word: yes or no.`

// Evaluator is one voting model on the consensus panel.
type Evaluator struct {
	// Name identifies the evaluator in logs.
	Name string
	// Completer produces this evaluator's vote.
	Completer llm.Completer
}

// Consensus runs the multi-model vote stage. Votes are collected
// concurrently; an evaluator error counts as a "no" vote rather than failing
// the stage.
type Consensus struct {
	evaluators []Evaluator
	logger     zerolog.Logger
}

// NewConsensus creates a consensus panel. At least three evaluators are
// required.
func NewConsensus(evaluators []Evaluator, logger zerolog.Logger) (*Consensus, error) {
	if len(evaluators) < minEvaluators {
		return nil, fmt.Errorf("consensus requires at least %d evaluators, got %d", minEvaluators, len(evaluators))
	}
	return &Consensus{evaluators: evaluators, logger: logger}, nil
}

// Vote collects one yes/no vote per evaluator and reports the yes fraction
// as confidence. The result is verified when confidence reaches 0.7.
func (c *Consensus) Vote(ctx context.Context, code string, req models.Requirements, _ models.Context) models.ConsensusResult {
	prompt := fmt.Sprintf(votePrompt, req.Describe(), code)

	votes := make([]bool, len(c.evaluators))
	var firstErr error
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i, ev := range c.evaluators {
		wg.Add(1)
		go func(i int, ev Evaluator) {
			defer wg.Done()
			vote, err := c.collectVote(ctx, ev, prompt)
			if err != nil {
				c.logger.Warn().Err(err).Str("evaluator", ev.Name).Msg("consensus vote failed")
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			votes[i] = vote
		}(i, ev)
	}
	wg.Wait()

	yes := 0
	for _, v := range votes {
		if v {
			yes++
		}
	}
	confidence := float64(yes) / float64(len(votes))

	result := models.ConsensusResult{
		Verified:   confidence >= consensusThreshold,
		Confidence: confidence,
		Votes:      votes,
	}
	if firstErr != nil {
		result.Err = firstErr.Error()
	}

	c.logger.Debug().
		Int("yes", yes).
		Int("total", len(votes)).
		Bool("verified", result.Verified).
		Msg("consensus vote finished")
	return result
}

func (c *Consensus) collectVote(ctx context.Context, ev Evaluator, prompt string) (bool, error) {
	raw, err := ev.Completer.Complete(ctx, prompt, llm.Options{
		MaxTokens:   8,
		Temperature: 0,
	})
	if err != nil {
		return false, err
	}
	return parseVote(raw), nil
}

// parseVote normalizes a free-text answer to a boolean. Anything that does
// not start with "yes" is a no.
func parseVote(answer string) bool {
	normalized := strings.ToLower(strings.TrimSpace(answer))
	normalized = strings.Trim(normalized, `."'!`)
	return normalized == "yes" || strings.HasPrefix(normalized, "yes")
}
