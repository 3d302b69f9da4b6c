// Package runcheck implements the runtime validation stage: AI-generated
// test cases executed against the candidate code inside an isolated sandbox.
// The stage only runs when the static stage reported the code valid.
package runcheck

import (
	"context"
	"strings"
)

// TestCase is one generated runtime probe.
type TestCase struct {
	// Name describes what the case verifies.
	Name string `json:"name"`
	// Probe is a shell command executed in a directory containing the
	// candidate code. Its stdout is the observation.
	Probe string `json:"probe"`
	// Expected is the expected stdout, compared after trimming. Empty
	// means the probe only has to exit cleanly.
	Expected string `json:"expected"`
}

// ProbeOutcome is the raw execution result of one probe.
type ProbeOutcome struct {
	// Name echoes the test case name.
	Name string
	// Output is the probe's stdout.
	Output string
	// Err is the execution error for this probe, empty on success.
	Err string
}

// Sandbox is the isolated execution collaborator. It mounts the candidate
// code, runs every probe (no case failure aborts the run) and reports one
// outcome per case. An error return means the sandbox itself is unavailable
// and degrades the whole stage to Skipped.
type Sandbox interface {
	Run(ctx context.Context, code string, language string, cases []TestCase) ([]ProbeOutcome, error)
}

// candidateExtensions maps a language tag to the candidate file extension
// probes should expect.
var candidateExtensions = map[string]string{
	"vue":        ".vue",
	"javascript": ".js",
	"typescript": ".ts",
	"python":     ".py",
	"go":         ".go",
	"json":       ".json",
	"html":       ".html",
}

// candidateFileName returns the name under which the candidate code is
// mounted into the sandbox workspace.
func candidateFileName(language string) string {
	ext, ok := candidateExtensions[strings.ToLower(language)]
	if !ok {
		ext = ".txt"
	}
	return "candidate" + ext
}
