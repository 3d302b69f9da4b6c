package runcheck

import (
	"context"
	"fmt"

	"github.com/verdictproj/vouch/internal/llm"
	"github.com/verdictproj/vouch/pkg/models"
)

// TestGenerator produces runtime test cases from requirements.
type TestGenerator interface {
	GenerateTestCases(ctx context.Context, req models.Requirements) ([]TestCase, error)
}

// testCasesSchema validates the generated verdict. The case list is wrapped
// in an object because provider JSON modes only guarantee a top-level object.
const testCasesSchema = `{
	"type": "object",
	"required": ["cases"],
	"properties": {
		"cases": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["name", "probe"],
				"properties": {
					"name": {"type": "string"},
					"probe": {"type": "string"},
					"expected": {"type": "string"}
				}
			}
		}
	}
}`

var compiledTestCasesSchema = llm.MustSchema("testcases.json", testCasesSchema)

const testGenPrompt = `Generate runtime test cases for code with these requirements:
%s

The candidate code will be available as ./%s in the working directory.
Each probe is a shell command run in that directory; its stdout is compared
against the expected value after trimming whitespace. Leave "expected" empty
when a clean exit is enough.

Return JSON:
{
  "cases": [
    {
      "name": "Test case description",
      "probe": "shell command to run",
      "expected": "expected stdout"
    }
  ]
}`

// CompleterGenerator generates test cases through the completion
// collaborator.
type CompleterGenerator struct {
	completer llm.Completer
}

// NewCompleterGenerator creates a test generator backed by a completer.
func NewCompleterGenerator(completer llm.Completer) *CompleterGenerator {
	return &CompleterGenerator{completer: completer}
}

// GenerateTestCases implements TestGenerator.
func (g *CompleterGenerator) GenerateTestCases(ctx context.Context, req models.Requirements) ([]TestCase, error) {
	prompt := fmt.Sprintf(testGenPrompt, req.Describe(), candidateFileName(req.Language))

	raw, err := g.completer.Complete(ctx, prompt, llm.Options{
		JSON:        true,
		MaxTokens:   1536,
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("generate test cases: %w", err)
	}

	var verdict struct {
		Cases []TestCase `json:"cases"`
	}
	if err := llm.DecodeVerdict(raw, compiledTestCasesSchema, &verdict); err != nil {
		return nil, fmt.Errorf("generate test cases: %w", err)
	}
	return verdict.Cases, nil
}

// Verify CompleterGenerator implements TestGenerator at compile time.
var _ TestGenerator = (*CompleterGenerator)(nil)
