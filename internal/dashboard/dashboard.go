// Package dashboard renders verification reports and correction histories
// for terminal display.
package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verdictproj/vouch/internal/feedback"
	"github.com/verdictproj/vouch/pkg/models"
)

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#96E6A1")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	skipStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	headStyle = lipgloss.NewStyle().Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45B7D1")).
			Padding(0, 2)
)

// stageOrder fixes the display order of the result table.
var stageOrder = []string{
	models.StageStatic,
	models.StageSpec,
	models.StageRuntime,
	models.StagePeer,
	models.StageConsensus,
}

// Render formats a verification report as a terminal panel.
func Render(report *models.VerificationReport) string {
	var b strings.Builder

	verdict := failStyle.Render("REJECTED")
	if report.Verified {
		verdict = passStyle.Render("VERIFIED")
	}
	b.WriteString(headStyle.Render("Verification Report"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(report.ID))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Score: %.3f  %s\n\n", report.Score, verdict)

	b.WriteString(renderStages(report))

	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// RenderCorrection formats an iterative correction outcome, including the
// per-attempt trail.
func RenderCorrection(outcome *models.CorrectionOutcome) string {
	var b strings.Builder

	verdict := failStyle.Render("NOT VERIFIED")
	if outcome.Verified {
		verdict = passStyle.Render("VERIFIED")
	}
	fmt.Fprintf(&b, "%s after %d attempt(s)\n", verdict, outcome.Attempts)

	for _, attempt := range outcome.History {
		fmt.Fprintf(&b, "\n%s\n", dimStyle.Render(fmt.Sprintf("attempt %d  score %.3f", attempt.Attempt, attempt.Report.Score)))
	}

	if outcome.Report != nil {
		b.WriteString("\n")
		b.WriteString(Render(outcome.Report))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderHistory formats recorded verification outcomes, newest first. Failed
// entries carry a short problem digest line.
func RenderHistory(entries []feedback.Entry) string {
	if len(entries) == 0 {
		return dimStyle.Render("no verification runs recorded")
	}

	var b strings.Builder
	b.WriteString(headStyle.Render("Recent verifications"))
	b.WriteString("\n")
	for _, e := range entries {
		verdict := failStyle.Render("fail")
		if e.Verified {
			verdict = passStyle.Render("pass")
		}
		fmt.Fprintf(&b, "%s  %s  %.3f  %s  %s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			shortID(e.ID),
			e.Score,
			verdict,
			dimStyle.Render(e.Language))
		if !e.Verified && len(e.Problems) > 0 {
			fmt.Fprintf(&b, "    %s\n", dimStyle.Render(strings.Join(firstN(e.Problems, 3), "; ")))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

func renderStages(report *models.VerificationReport) string {
	var rows []string
	for _, stage := range stageOrder {
		result, ok := report.Results[stage]
		if !ok {
			continue
		}
		rows = append(rows, fmt.Sprintf("%-10s %s", stage, stageSummary(result)))
	}
	return strings.Join(rows, "\n")
}

// stageSummary produces the one-line status cell for a stage.
func stageSummary(result models.CheckResult) string {
	if result == nil {
		return skipStyle.Render("missing")
	}
	if result.IsSkipped() {
		reason := ""
		if s, ok := result.(models.SkippedResult); ok {
			reason = "  " + dimStyle.Render(s.Reason)
		}
		return skipStyle.Render("skipped") + reason
	}

	switch r := result.(type) {
	case models.StaticResult:
		if r.Valid {
			return passStyle.Render("valid")
		}
		detail := firstNonEmpty(r.SyntaxError, strings.Join(r.MissingPatterns, ", "), strings.Join(r.SecurityIssues, ", "), r.LintOutput, r.Err)
		return failStyle.Render("invalid") + "  " + dimStyle.Render(truncate(detail, 60))
	case models.SpecResult:
		status := failStyle.Render(fmt.Sprintf("%.2f", r.Score))
		if r.Passed {
			status = passStyle.Render(fmt.Sprintf("%.2f", r.Score))
		}
		if len(r.Missing) > 0 {
			status += "  " + dimStyle.Render(fmt.Sprintf("%d missing", len(r.Missing)))
		}
		return status
	case models.RuntimeResult:
		passed := len(r.Cases) - len(r.FailedCases())
		cell := fmt.Sprintf("%d/%d passed", passed, len(r.Cases))
		if r.Passed {
			return passStyle.Render(cell)
		}
		return failStyle.Render(cell)
	case models.ReviewResult:
		cell := fmt.Sprintf("confidence %.2f", r.Confidence)
		if r.Verified {
			return passStyle.Render(cell)
		}
		return failStyle.Render(cell)
	case models.ConsensusResult:
		yes := 0
		for _, v := range r.Votes {
			if v {
				yes++
			}
		}
		cell := fmt.Sprintf("%d/%d votes", yes, len(r.Votes))
		if r.Verified {
			return passStyle.Render(cell)
		}
		return failStyle.Render(cell)
	}
	return dimStyle.Render("unknown")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
