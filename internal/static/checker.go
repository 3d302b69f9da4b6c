// Package static implements the static verification stage: syntax validity,
// required-pattern presence, security anti-pattern scanning and lint. Its
// Valid flag is a hard gate feeding the runtime stage short-circuit.
package static

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/verdictproj/vouch/pkg/models"
)

// Checker runs the static verification stage.
type Checker struct {
	scanner Scanner
	linter  Linter
	logger  zerolog.Logger
}

// NewChecker creates a static checker with the given collaborators. A nil
// scanner or linter disables that check (it is treated as clean).
func NewChecker(scanner Scanner, linter Linter, logger zerolog.Logger) *Checker {
	return &Checker{
		scanner: scanner,
		linter:  linter,
		logger:  logger,
	}
}

// Check performs the full static verification of code against requirements.
// Collaborator failures are captured into the result, never raised; a failed
// scan or lint makes the result invalid since a clean outcome cannot be
// confirmed.
func (c *Checker) Check(ctx context.Context, code string, req models.Requirements, _ models.Context) models.StaticResult {
	result := models.StaticResult{}

	syntax := verifySyntax(code, req.Language)
	result.SyntaxOK = syntax.ok
	result.SyntaxError = syntax.err
	result.SyntaxLine = syntax.line

	result.MissingPatterns = missingPatterns(code, req.Patterns)

	scanClean := true
	if c.scanner != nil {
		report, err := c.scanner.Scan(ctx, code)
		if err != nil {
			result.Err = "security scan: " + err.Error()
			scanClean = false
		} else {
			result.SecurityIssues = report.Detail
			scanClean = report.Issues == 0
		}
	}

	lintClean := true
	if c.linter != nil {
		output, err := c.linter.Lint(ctx, code, req.Language)
		if err != nil {
			if result.Err != "" {
				result.Err += "; "
			}
			result.Err += "lint: " + err.Error()
			lintClean = false
		} else {
			result.LintOutput = output
			lintClean = output == ""
		}
	}

	result.Valid = result.SyntaxOK &&
		len(result.MissingPatterns) == 0 &&
		scanClean &&
		lintClean

	c.logger.Debug().
		Bool("valid", result.Valid).
		Bool("syntax_ok", result.SyntaxOK).
		Int("missing_patterns", len(result.MissingPatterns)).
		Int("security_issues", len(result.SecurityIssues)).
		Msg("static check finished")

	return result
}

// missingPatterns returns the required patterns not found verbatim in the
// code. The comparison is an order-insensitive set difference.
func missingPatterns(code string, patterns []string) []string {
	var missing []string
	for _, pattern := range patterns {
		if !strings.Contains(code, pattern) {
			missing = append(missing, pattern)
		}
	}
	return missing
}
