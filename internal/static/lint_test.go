package static

import (
	"context"
	"testing"
)

// recordingRunner captures the command it was asked to run.
type recordingRunner struct {
	name string
	args []string
}

func (r *recordingRunner) Run(ctx context.Context, workDir, name string, args ...string) ([]byte, error) {
	r.name = name
	r.args = args
	return nil, nil
}

func (r *recordingRunner) RunShell(ctx context.Context, workDir, command string) ([]byte, error) {
	return nil, nil
}

func TestSetCommandDoesNotLeakAcrossInstances(t *testing.T) {
	first := NewExecLinter(&recordingRunner{}, 0)
	first.SetCommand("python", []string{"ruff", "check", "{file}"})

	runner := &recordingRunner{}
	second := NewExecLinter(runner, 0)
	if _, err := second.Lint(context.Background(), "x = 1", "python"); err != nil {
		t.Fatalf("Lint failed: %v", err)
	}

	if runner.name != "pylint" {
		t.Errorf("a fresh linter should use the default command, got %q", runner.name)
	}
	if _, ok := defaultLintCommands["python"]; !ok || defaultLintCommands["python"][0] != "pylint" {
		t.Errorf("the package default table must not be mutated: %v", defaultLintCommands["python"])
	}
}

func TestLintUnknownLanguageIsClean(t *testing.T) {
	runner := &recordingRunner{}
	l := NewExecLinter(runner, 0)

	output, err := l.Lint(context.Background(), "anything", "cobol")
	if err != nil {
		t.Fatalf("Lint failed: %v", err)
	}
	if output != "" {
		t.Errorf("expected clean output, got %q", output)
	}
	if runner.name != "" {
		t.Error("no linter should run for an unconfigured language")
	}
}
