package models

import "time"

// VerificationReport is the unit of record for one verification pass. It is
// constructed once per Verify call and never mutated afterwards; each
// correction attempt produces a new report.
type VerificationReport struct {
	// ID uniquely identifies this verification run.
	ID string `json:"id"`
	// Requirements is the requirements description the code was checked
	// against.
	Requirements Requirements `json:"requirements"`
	// Code is the exact candidate that was evaluated.
	Code string `json:"code"`
	// Timestamp is when the verification started.
	Timestamp time.Time `json:"timestamp"`
	// Results maps stage name to that stage's outcome.
	Results map[string]CheckResult `json:"results"`
	// Score is the weighted aggregate in [0,1].
	Score float64 `json:"verification_score"`
	// Verified is true when Score meets the pass threshold.
	Verified bool `json:"verified"`
}

// Static returns the static stage result, or a zero value if absent.
func (r *VerificationReport) Static() StaticResult {
	if res, ok := r.Results[StageStatic].(StaticResult); ok {
		return res
	}
	return StaticResult{}
}

// Spec returns the spec stage result, or a zero value if absent.
func (r *VerificationReport) Spec() SpecResult {
	if res, ok := r.Results[StageSpec].(SpecResult); ok {
		return res
	}
	return SpecResult{}
}

// Runtime returns the runtime stage result and whether the stage actually ran.
func (r *VerificationReport) Runtime() (RuntimeResult, bool) {
	res, ok := r.Results[StageRuntime].(RuntimeResult)
	return res, ok
}

// Peer returns the peer review result, or a zero value if absent.
func (r *VerificationReport) Peer() ReviewResult {
	if res, ok := r.Results[StagePeer].(ReviewResult); ok {
		return res
	}
	return ReviewResult{}
}

// Consensus returns the consensus result, or a zero value if absent.
func (r *VerificationReport) Consensus() ConsensusResult {
	if res, ok := r.Results[StageConsensus].(ConsensusResult); ok {
		return res
	}
	return ConsensusResult{}
}

// CorrectionAttempt records one round of the iterative correction loop. The
// loop accumulates these, but only the final report is authoritative.
type CorrectionAttempt struct {
	// Attempt is the 1-based attempt number.
	Attempt int `json:"attempt"`
	// Report is the failed report that triggered the correction.
	Report *VerificationReport `json:"report"`
	// GeneratedCode is the replacement candidate produced for this attempt.
	GeneratedCode string `json:"generated_code"`
}

// CorrectionOutcome is the result of an iterative correction run.
type CorrectionOutcome struct {
	// Code is the most recent candidate, verified or not.
	Code string `json:"code"`
	// Verified is true when the final report passed.
	Verified bool `json:"verified"`
	// Attempts is the number of verify calls performed.
	Attempts int `json:"attempts"`
	// Report is the last verification report produced.
	Report *VerificationReport `json:"report"`
	// History holds the correction attempts in order.
	History []CorrectionAttempt `json:"history,omitempty"`
}
