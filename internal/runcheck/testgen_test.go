package runcheck

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/verdictproj/vouch/internal/llm"
	"github.com/verdictproj/vouch/pkg/models"
)

// cannedCompleter returns a fixed completion.
type cannedCompleter struct {
	response string
	err      error
	prompt   string
}

func (c *cannedCompleter) Complete(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	c.prompt = prompt
	return c.response, c.err
}

func TestGenerateTestCases(t *testing.T) {
	completer := &cannedCompleter{response: `{"cases": [
		{"name": "adds numbers", "probe": "node -e \"console.log(require('./candidate.js')(1,2))\"", "expected": "3"},
		{"name": "runs cleanly", "probe": "node candidate.js"}
	]}`}
	g := NewCompleterGenerator(completer)

	cases, err := g.GenerateTestCases(context.Background(), models.Requirements{
		Language:    "javascript",
		Description: "an adder",
	})
	if err != nil {
		t.Fatalf("GenerateTestCases failed: %v", err)
	}

	if len(cases) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(cases))
	}
	if cases[0].Expected != "3" {
		t.Errorf("unexpected expected value %q", cases[0].Expected)
	}
	if cases[1].Expected != "" {
		t.Errorf("second case should have no expectation, got %q", cases[1].Expected)
	}
	if !strings.Contains(completer.prompt, "candidate.js") {
		t.Error("prompt should name the candidate file for the language")
	}
}

func TestGenerateTestCasesFenced(t *testing.T) {
	completer := &cannedCompleter{response: "```json\n{\"cases\": [{\"name\": \"a\", \"probe\": \"true\"}]}\n```"}
	g := NewCompleterGenerator(completer)

	cases, err := g.GenerateTestCases(context.Background(), models.Requirements{
		Language:    "python",
		Description: "anything",
	})
	if err != nil {
		t.Fatalf("GenerateTestCases failed: %v", err)
	}
	if len(cases) != 1 {
		t.Errorf("expected 1 case, got %d", len(cases))
	}
}

func TestGenerateTestCasesRejectsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"empty case list", `{"cases": []}`},
		{"missing probe", `{"cases": [{"name": "a"}]}`},
		{"bare array", `[{"name": "a", "probe": "true"}]`},
		{"prose only", "I cannot generate tests for this."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := NewCompleterGenerator(&cannedCompleter{response: tc.response})
			if _, err := g.GenerateTestCases(context.Background(), models.Requirements{
				Language:    "python",
				Description: "anything",
			}); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestGenerateTestCasesCompleterError(t *testing.T) {
	g := NewCompleterGenerator(&cannedCompleter{err: errors.New("overloaded")})
	if _, err := g.GenerateTestCases(context.Background(), models.Requirements{
		Language:    "python",
		Description: "anything",
	}); err == nil {
		t.Error("expected the completer error to propagate")
	}
}
