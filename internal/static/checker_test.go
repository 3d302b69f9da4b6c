package static

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/verdictproj/vouch/pkg/models"
)

// stubScanner returns a canned scan report or error.
type stubScanner struct {
	report ScanReport
	err    error
}

func (s *stubScanner) Scan(ctx context.Context, code string) (ScanReport, error) {
	return s.report, s.err
}

// stubLinter returns canned lint output or an error.
type stubLinter struct {
	output string
	err    error
}

func (s *stubLinter) Lint(ctx context.Context, code, language string) (string, error) {
	return s.output, s.err
}

func cleanChecker() *Checker {
	return NewChecker(&stubScanner{}, &stubLinter{}, zerolog.Nop())
}

func TestCheckValidCode(t *testing.T) {
	c := cleanChecker()
	req := models.Requirements{
		Language:    "javascript",
		Description: "adder",
		Patterns:    []string{"function add"},
	}

	result := c.Check(context.Background(), "function add(a, b) { return a + b }", req, models.Context{})

	if !result.Valid {
		t.Errorf("expected valid result: %+v", result)
	}
	if !result.SyntaxOK {
		t.Error("expected syntax to pass")
	}
	if result.IsSkipped() {
		t.Error("static result should never report skipped")
	}
	if !result.StagePassed() {
		t.Error("StagePassed should mirror Valid")
	}
}

func TestCheckMissingPatternInvalidates(t *testing.T) {
	c := cleanChecker()
	req := models.Requirements{
		Language:    "javascript",
		Description: "adder",
		Patterns:    []string{"function add", "export default"},
	}

	result := c.Check(context.Background(), "function add(a, b) { return a + b }", req, models.Context{})

	if result.Valid {
		t.Error("missing pattern should invalidate the result")
	}
	if len(result.MissingPatterns) != 1 || result.MissingPatterns[0] != "export default" {
		t.Errorf("unexpected missing patterns: %v", result.MissingPatterns)
	}
	if !result.SyntaxOK {
		t.Error("syntax should still pass independently")
	}
}

func TestCheckSecurityIssueInvalidates(t *testing.T) {
	c := NewChecker(&stubScanner{report: ScanReport{
		Issues: 1,
		Detail: []string{"dynamic eval at line 1"},
	}}, &stubLinter{}, zerolog.Nop())
	req := models.Requirements{Language: "javascript", Description: "adder"}

	result := c.Check(context.Background(), "eval(input)", req, models.Context{})

	if result.Valid {
		t.Error("a security finding should invalidate the result")
	}
	if len(result.SecurityIssues) != 1 {
		t.Errorf("unexpected security issues: %v", result.SecurityIssues)
	}
}

func TestCheckLintOutputInvalidates(t *testing.T) {
	c := NewChecker(&stubScanner{}, &stubLinter{output: "1:1 error Missing semicolon"}, zerolog.Nop())
	req := models.Requirements{Language: "javascript", Description: "adder"}

	result := c.Check(context.Background(), "const x = 1", req, models.Context{})

	if result.Valid {
		t.Error("lint diagnostics should invalidate the result")
	}
	if result.LintOutput == "" {
		t.Error("expected lint output to be recorded")
	}
}

func TestCheckCollaboratorFailureCaptured(t *testing.T) {
	c := NewChecker(&stubScanner{err: errors.New("scanner crashed")}, &stubLinter{err: errors.New("no linter")}, zerolog.Nop())
	req := models.Requirements{Language: "javascript", Description: "adder"}

	result := c.Check(context.Background(), "const x = 1", req, models.Context{})

	if result.Valid {
		t.Error("a failed collaborator cannot confirm a clean result")
	}
	if !strings.Contains(result.Err, "scanner crashed") || !strings.Contains(result.Err, "no linter") {
		t.Errorf("expected both failures recorded, got %q", result.Err)
	}
}

func TestCheckNilCollaboratorsTreatedClean(t *testing.T) {
	c := NewChecker(nil, nil, zerolog.Nop())
	req := models.Requirements{Language: "javascript", Description: "adder"}

	result := c.Check(context.Background(), "const x = 1", req, models.Context{})
	if !result.Valid {
		t.Errorf("nil collaborators should not invalidate: %+v", result)
	}
}

func TestVerifySyntax(t *testing.T) {
	tests := []struct {
		name     string
		language string
		code     string
		ok       bool
	}{
		{"valid go", "go", "package main\n\nfunc main() {}\n", true},
		{"invalid go", "go", "package main\n\nfunc main() {\n", false},
		{"valid json", "json", `{"a": 1}`, true},
		{"invalid json", "json", `{"a": }`, false},
		{"valid javascript", "javascript", "function f() { return [1, 2] }", true},
		{"unbalanced javascript", "javascript", "function f() { return [1, 2 }", false},
		{"braces inside string ignored", "javascript", `const s = "}}}"`, true},
		{"braces inside comment ignored", "javascript", "// }}}\nconst x = 1", true},
		{"vue with valid script", "vue", "<template><div/></template>\n<script>\nexport default {}\n</script>", true},
		{"vue with broken script", "vue", "<template><div/></template>\n<script>\nexport default {\n</script>", false},
		{"vue without script", "vue", "<template><div/></template>", true},
		{"unknown language accepted", "rust", "fn main() {", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status := verifySyntax(tc.code, tc.language)
			if status.ok != tc.ok {
				t.Errorf("verifySyntax(%q) ok = %v, want %v (err %q)", tc.language, status.ok, tc.ok, status.err)
			}
			if !tc.ok && status.err == "" {
				t.Error("failed validation should carry an error message")
			}
		})
	}
}

func TestVerifySyntaxReportsLine(t *testing.T) {
	status := verifySyntax("const a = 1\nconst b = {\n", "javascript")
	if status.ok {
		t.Fatal("expected a failure")
	}
	if status.line != 2 {
		t.Errorf("expected line 2, got %d", status.line)
	}
}

func TestRegexScanner(t *testing.T) {
	s := NewRegexScanner()

	tests := []struct {
		name   string
		code   string
		issues int
	}{
		{"clean code", "function add(a, b) { return a + b }", 0},
		{"dynamic eval", "const r = eval(userInput)", 1},
		{"innerHTML sink", "el.innerHTML = payload", 1},
		{"hardcoded secret", `const api_key = "abcd1234efgh5678"`, 1},
		{"subprocess", "subprocess.run(cmd)", 1},
		{"multiple findings", "eval(x); el.innerHTML = y", 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			report, err := s.Scan(context.Background(), tc.code)
			if err != nil {
				t.Fatalf("Scan failed: %v", err)
			}
			if report.Issues != tc.issues {
				t.Errorf("Issues = %d, want %d (%v)", report.Issues, tc.issues, report.Detail)
			}
		})
	}
}

func TestRegexScannerReportsLines(t *testing.T) {
	s := NewRegexScanner()
	report, err := s.Scan(context.Background(), "const a = 1\neval(x)\n")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(report.Detail) != 1 || !strings.Contains(report.Detail[0], "line 2") {
		t.Errorf("unexpected detail: %v", report.Detail)
	}
}

func TestMissingPatterns(t *testing.T) {
	code := "export default { name: 'Widget' }"

	missing := missingPatterns(code, []string{"export default", "name:", "props:"})
	if len(missing) != 1 || missing[0] != "props:" {
		t.Errorf("unexpected missing patterns: %v", missing)
	}

	if missing := missingPatterns(code, nil); missing != nil {
		t.Errorf("no patterns should yield nil, got %v", missing)
	}
}
