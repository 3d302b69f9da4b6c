// Package llm provides the completion collaborator boundary used by the
// spec, peer-review and consensus checkers and by the correction generator.
package llm

import "context"

// Options controls a single completion request.
type Options struct {
	// System is the system prompt, empty for none.
	System string
	// MaxTokens caps the response length. Zero uses the client default.
	MaxTokens int
	// Temperature is the sampling temperature. Negative means client default.
	Temperature float64
	// JSON requests a machine-readable structured response. Providers that
	// support a native JSON mode enable it; others get an instruction
	// appended to the prompt.
	JSON bool
	// Model overrides the client's configured model when non-empty.
	Model string
}

// Completer is the code-generation/completion collaborator. Implementations
// must honor context cancellation and deadlines.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}

// jsonInstruction is appended to prompts for providers without a native
// structured-output mode.
const jsonInstruction = "\n\nRespond with ONLY a valid JSON document. No prose, no markdown fences."
