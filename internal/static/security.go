package static

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// ScanReport is the outcome of a security anti-pattern scan.
type ScanReport struct {
	// Issues is the number of findings. Zero means clean.
	Issues int `json:"issues"`
	// Detail describes each finding.
	Detail []string `json:"detail,omitempty"`
}

// Scanner is the security-scanning collaborator.
type Scanner interface {
	Scan(ctx context.Context, code string) (ScanReport, error)
}

// antiPattern pairs a finding description with the expression that detects it.
type antiPattern struct {
	name string
	re   *regexp.Regexp
}

// defaultAntiPatterns covers the anti-patterns most often produced by code
// generation models: dynamic evaluation, raw HTML sinks, shell execution and
// hardcoded credentials.
var defaultAntiPatterns = []antiPattern{
	{"dynamic eval", regexp.MustCompile(`\beval\s*\(`)},
	{"function constructor", regexp.MustCompile(`new\s+Function\s*\(`)},
	{"raw innerHTML sink", regexp.MustCompile(`\.innerHTML\s*=`)},
	{"document.write", regexp.MustCompile(`document\.write\s*\(`)},
	{"unescaped v-html binding", regexp.MustCompile(`v-html\s*=`)},
	{"shell execution", regexp.MustCompile(`\b(os\.system|child_process|subprocess\.(call|run|Popen))\b`)},
	{"hardcoded secret", regexp.MustCompile(`(?i)(api[_-]?key|password|secret)\s*[:=]\s*["'][^"']{8,}["']`)},
}

// RegexScanner is the default Scanner: a table of anti-pattern expressions
// applied to the candidate code.
type RegexScanner struct {
	patterns []antiPattern
}

// NewRegexScanner creates a scanner with the default anti-pattern table.
func NewRegexScanner() *RegexScanner {
	return &RegexScanner{patterns: defaultAntiPatterns}
}

// Scan implements Scanner.
func (s *RegexScanner) Scan(_ context.Context, code string) (ScanReport, error) {
	var report ScanReport
	for _, p := range s.patterns {
		loc := p.re.FindStringIndex(code)
		if loc == nil {
			continue
		}
		line := strings.Count(code[:loc[0]], "\n") + 1
		report.Issues++
		report.Detail = append(report.Detail, fmt.Sprintf("%s at line %d", p.name, line))
	}
	return report, nil
}

// Verify RegexScanner implements Scanner at compile time.
var _ Scanner = (*RegexScanner)(nil)
