package models

// Stage names used as keys in VerificationReport.Results. The order here is
// the execution order of the pipeline.
const (
	StageStatic    = "static"
	StageSpec      = "spec"
	StageRuntime   = "runtime"
	StagePeer      = "peer"
	StageConsensus = "consensus"
)

// CheckResult is the outcome of one verification stage. Concrete variants
// expose their numeric signals through the capability interfaces below; the
// score aggregator type-switches on those rather than on the variants
// themselves.
type CheckResult interface {
	// IsSkipped reports whether the stage did not run. Skipped stages
	// contribute zero to the aggregate score but do not error the pipeline.
	IsSkipped() bool
}

// Scorer is implemented by results carrying a 0..1 stage score.
type Scorer interface {
	StageScore() float64
}

// Confider is implemented by results carrying a 0..1 confidence.
type Confider interface {
	StageConfidence() float64
}

// PassFlag is implemented by results carrying only a boolean outcome.
type PassFlag interface {
	StagePassed() bool
}

// StaticResult is the static analysis outcome. Valid is a hard gate: it
// feeds the runtime stage short-circuit and is the four-way AND of the
// individual checks, not a graded signal.
type StaticResult struct {
	// Valid is true iff syntax is ok, no patterns are missing, the
	// security scan found zero issues and the linter produced no output.
	Valid bool `json:"valid"`
	// SyntaxOK is true when the code parsed for the declared language.
	SyntaxOK bool `json:"syntax_ok"`
	// SyntaxError holds the parse error when SyntaxOK is false.
	SyntaxError string `json:"syntax_error,omitempty"`
	// SyntaxLine is the 1-based line of the parse error, 0 if unknown.
	SyntaxLine int `json:"syntax_line,omitempty"`
	// MissingPatterns lists required patterns not found in the code.
	MissingPatterns []string `json:"missing_patterns,omitempty"`
	// SecurityIssues lists anti-patterns reported by the security scan.
	SecurityIssues []string `json:"security_issues,omitempty"`
	// LintOutput is the linter diagnostic text; empty means clean.
	LintOutput string `json:"lint_output,omitempty"`
	// Err records a collaborator failure captured during the check.
	Err string `json:"error,omitempty"`
}

// IsSkipped implements CheckResult.
func (r StaticResult) IsSkipped() bool { return false }

// StagePassed implements PassFlag. The static stage contributes its full
// weight iff the code is valid.
func (r StaticResult) StagePassed() bool { return r.Valid }

// Error returns the primary failure description for the correction digest.
func (r StaticResult) Error() string {
	if r.SyntaxError != "" {
		return r.SyntaxError
	}
	return r.Err
}

// SpecResult is the specification coverage outcome.
type SpecResult struct {
	// Score is the overall coverage score in [0,1]; the average of the
	// requirement score and the design score when a design reference is
	// present, else the requirement score alone.
	Score float64 `json:"score"`
	// Covered lists requirement items the code satisfies.
	Covered []string `json:"covered,omitempty"`
	// Missing lists requirement items the code does not satisfy.
	Missing []string `json:"missing,omitempty"`
	// DesignScore is the design similarity score when a design reference
	// was compared, nil otherwise.
	DesignScore *float64 `json:"design_score,omitempty"`
	// Discrepancies lists itemized mismatches against the design artifact.
	Discrepancies []string `json:"discrepancies,omitempty"`
	// Passed is true when Score >= 0.85.
	Passed bool `json:"passed"`
	// Err records a collaborator failure captured during the check.
	Err string `json:"error,omitempty"`
}

// IsSkipped implements CheckResult.
func (r SpecResult) IsSkipped() bool { return false }

// StageScore implements Scorer.
func (r SpecResult) StageScore() float64 { return r.Score }

// TestCaseResult is one runtime probe's outcome.
type TestCaseResult struct {
	// Name describes the test case.
	Name string `json:"name"`
	// Passed is true when the probe produced the expected result.
	Passed bool `json:"passed"`
	// Result is the observed output, if the probe ran.
	Result string `json:"result,omitempty"`
	// Error is the execution error for this case, if any.
	Error string `json:"error,omitempty"`
}

// RuntimeResult is the sandboxed execution outcome.
type RuntimeResult struct {
	// Passed is true iff every case passed. Partial credit never flips
	// this flag; it is exposed only through SuccessRate.
	Passed bool `json:"passed"`
	// Cases holds the per-case outcomes in execution order.
	Cases []TestCaseResult `json:"test_cases"`
	// SuccessRate is the fraction of passing cases in [0,1].
	SuccessRate float64 `json:"success_rate"`
}

// IsSkipped implements CheckResult.
func (r RuntimeResult) IsSkipped() bool { return false }

// StagePassed implements PassFlag.
func (r RuntimeResult) StagePassed() bool { return r.Passed }

// FailedCases returns the subset of cases that did not pass.
func (r RuntimeResult) FailedCases() []TestCaseResult {
	var failed []TestCaseResult
	for _, c := range r.Cases {
		if !c.Passed {
			failed = append(failed, c)
		}
	}
	return failed
}

// ReviewResult is the single-model peer review verdict.
type ReviewResult struct {
	// Verified is the reviewer's overall yes/no verdict.
	Verified bool `json:"verified"`
	// Confidence is the reviewer's confidence in [0,1].
	Confidence float64 `json:"confidence"`
	// Issues lists problems the reviewer identified.
	Issues []string `json:"issues,omitempty"`
	// Corrections is the reviewer's suggested replacement code, if any.
	Corrections string `json:"corrections,omitempty"`
	// Err records a collaborator failure captured during the review.
	Err string `json:"error,omitempty"`
}

// IsSkipped implements CheckResult.
func (r ReviewResult) IsSkipped() bool { return false }

// StageConfidence implements Confider.
func (r ReviewResult) StageConfidence() float64 { return r.Confidence }

// ConsensusResult is the multi-model majority vote outcome.
type ConsensusResult struct {
	// Verified is true when Confidence >= 0.7.
	Verified bool `json:"verified"`
	// Confidence is the fraction of "yes" votes in [0,1].
	Confidence float64 `json:"confidence"`
	// Votes holds the normalized boolean votes in evaluator order.
	Votes []bool `json:"votes"`
	// Err records a collaborator failure captured during voting.
	Err string `json:"error,omitempty"`
}

// IsSkipped implements CheckResult.
func (r ConsensusResult) IsSkipped() bool { return false }

// StageConfidence implements Confider.
func (r ConsensusResult) StageConfidence() float64 { return r.Confidence }

// SkippedResult records a stage that did not run, typically because a
// prerequisite stage failed or its collaborator was unavailable.
type SkippedResult struct {
	// Reason explains why the stage was skipped.
	Reason string `json:"skipped"`
}

// IsSkipped implements CheckResult.
func (r SkippedResult) IsSkipped() bool { return true }
