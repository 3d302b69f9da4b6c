package review

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/verdictproj/vouch/pkg/models"
)

func TestReviewVerdictParsed(t *testing.T) {
	completer := &fixedCompleter{answer: `{
		"verified": true,
		"issues": [],
		"corrections": "",
		"confidence": 0.9
	}`}
	p := NewPeerReviewer(completer, zerolog.Nop())

	result := p.Review(context.Background(), "code", reviewRequirements(), models.Context{})

	if !result.Verified {
		t.Error("expected a verified review")
	}
	if result.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", result.Confidence)
	}
	if result.StageConfidence() != 0.9 {
		t.Error("StageConfidence should expose the confidence")
	}
}

func TestReviewIssuesAndCorrections(t *testing.T) {
	completer := &fixedCompleter{answer: `{
		"verified": false,
		"issues": ["calls fs.readJSON which does not exist"],
		"corrections": "const data = JSON.parse(fs.readFileSync(path))",
		"confidence": 0.85
	}`}
	p := NewPeerReviewer(completer, zerolog.Nop())

	result := p.Review(context.Background(), "code", reviewRequirements(), models.Context{})

	if result.Verified {
		t.Error("expected an unverified review")
	}
	if len(result.Issues) != 1 {
		t.Errorf("unexpected issues: %v", result.Issues)
	}
	if result.Corrections == "" {
		t.Error("expected the suggested correction to be carried")
	}
}

func TestReviewCompleterFailure(t *testing.T) {
	completer := &fixedCompleter{err: errors.New("timeout")}
	p := NewPeerReviewer(completer, zerolog.Nop())

	result := p.Review(context.Background(), "code", reviewRequirements(), models.Context{})

	if result.Verified {
		t.Error("a failed review cannot verify")
	}
	if result.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", result.Confidence)
	}
	if result.Err == "" {
		t.Error("expected the failure recorded")
	}
}

func TestReviewMalformedVerdict(t *testing.T) {
	completer := &fixedCompleter{answer: `{"confidence": "high"}`}
	p := NewPeerReviewer(completer, zerolog.Nop())

	result := p.Review(context.Background(), "code", reviewRequirements(), models.Context{})

	if result.Err == "" {
		t.Error("a non-conforming verdict should be recorded as an error")
	}
	if result.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", result.Confidence)
	}
}

func TestReviewClampsConfidence(t *testing.T) {
	// Schema rejects >1, so clamping is exercised at the boundary.
	completer := &fixedCompleter{answer: `{"verified": true, "confidence": 1}`}
	p := NewPeerReviewer(completer, zerolog.Nop())

	result := p.Review(context.Background(), "code", reviewRequirements(), models.Context{})
	if result.Confidence != 1 {
		t.Errorf("confidence = %v, want 1", result.Confidence)
	}
}
