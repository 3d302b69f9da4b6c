package static

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/verdictproj/vouch/internal/exec"
)

// Linter is the language-specific lint collaborator. Empty output means the
// code is clean.
type Linter interface {
	Lint(ctx context.Context, code, language string) (string, error)
}

// defaultLintCommands maps a language tag to the linter invocation. The
// {file} placeholder is replaced by the temp file holding the candidate.
var defaultLintCommands = map[string][]string{
	"vue":        {"eslint", "--no-eslintrc", "--no-ignore", "{file}"},
	"javascript": {"eslint", "--no-eslintrc", "--no-ignore", "{file}"},
	"typescript": {"eslint", "--no-eslintrc", "--no-ignore", "{file}"},
	"python":     {"pylint", "--disable=all", "--enable=E", "{file}"},
	"go":         {"gofmt", "-l", "{file}"},
}

// lintExtensions maps a language tag to the temp file extension its linter
// expects.
var lintExtensions = map[string]string{
	"vue":        ".vue",
	"javascript": ".js",
	"typescript": ".ts",
	"python":     ".py",
	"go":         ".go",
}

// ExecLinter runs an external linter process per language.
type ExecLinter struct {
	runner   exec.CommandRunner
	commands map[string][]string
	timeout  time.Duration
}

// NewExecLinter creates a linter using the default command table. A nil
// runner uses the real process runner; a zero timeout defaults to 30s.
func NewExecLinter(runner exec.CommandRunner, timeout time.Duration) *ExecLinter {
	if runner == nil {
		runner = exec.NewRunner()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	commands := make(map[string][]string, len(defaultLintCommands))
	for language, argv := range defaultLintCommands {
		commands[language] = argv
	}
	return &ExecLinter{
		runner:   runner,
		commands: commands,
		timeout:  timeout,
	}
}

// SetCommand overrides the linter invocation for a language.
func (l *ExecLinter) SetCommand(language string, argv []string) {
	l.commands[strings.ToLower(language)] = argv
}

// Lint implements Linter. Languages without a configured linter are treated
// as clean. Non-zero linter exit with diagnostics is a lint finding, not an
// error; failure to run the linter at all is returned as an error.
func (l *ExecLinter) Lint(ctx context.Context, code, language string) (string, error) {
	language = strings.ToLower(language)
	argv, ok := l.commands[language]
	if !ok || len(argv) == 0 {
		return "", nil
	}

	ext, ok := lintExtensions[language]
	if !ok {
		ext = ".txt"
	}
	path, dir, err := exec.WriteTemp("candidate"+ext, code)
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)

	args := make([]string, 0, len(argv)-1)
	for _, a := range argv[1:] {
		args = append(args, strings.ReplaceAll(a, "{file}", path))
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	output, err := l.runner.Run(ctx, dir, argv[0], args...)
	if err != nil && exec.ExitCode(err) == -1 {
		// linter could not run (missing binary, timeout)
		return "", err
	}
	// Some linters (gofmt -l) report findings on exit 0, so any output
	// counts as a diagnostic regardless of the exit code.
	return strings.TrimSpace(string(output)), nil
}

// Verify ExecLinter implements Linter at compile time.
var _ Linter = (*ExecLinter)(nil)
