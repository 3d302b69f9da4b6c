package runcheck

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/verdictproj/vouch/internal/exec"
)

// LocalSandbox runs probes directly on the host through the command runner.
// It offers no isolation beyond a throwaway working directory and exists as
// the fallback when no Docker daemon is reachable.
type LocalSandbox struct {
	runner      exec.CommandRunner
	caseTimeout time.Duration
	logger      zerolog.Logger
}

// NewLocalSandbox creates a host-process sandbox. A non-positive timeout
// defaults to 30 seconds per case.
func NewLocalSandbox(runner exec.CommandRunner, caseTimeout time.Duration, logger zerolog.Logger) *LocalSandbox {
	if caseTimeout <= 0 {
		caseTimeout = 30 * time.Second
	}
	return &LocalSandbox{
		runner:      runner,
		caseTimeout: caseTimeout,
		logger:      logger,
	}
}

// Run implements Sandbox.
func (s *LocalSandbox) Run(ctx context.Context, code string, language string, cases []TestCase) ([]ProbeOutcome, error) {
	_, dir, err := exec.WriteTemp(candidateFileName(language), code)
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	defer os.RemoveAll(dir)

	outcomes := make([]ProbeOutcome, 0, len(cases))
	for _, tc := range cases {
		outcomes = append(outcomes, s.runProbe(ctx, dir, tc))
	}
	return outcomes, nil
}

func (s *LocalSandbox) runProbe(parent context.Context, dir string, tc TestCase) ProbeOutcome {
	outcome := ProbeOutcome{Name: tc.Name}

	ctx, cancel := context.WithTimeout(parent, s.caseTimeout)
	defer cancel()

	output, err := s.runner.RunShell(ctx, dir, tc.Probe)
	outcome.Output = string(output)

	switch {
	case ctx.Err() == context.DeadlineExceeded:
		outcome.Err = fmt.Sprintf("probe timed out after %s", s.caseTimeout)
	case err != nil:
		outcome.Err = fmt.Sprintf("probe exited %d: %s", exec.ExitCode(err), strings.TrimSpace(string(output)))
	}

	if outcome.Err != "" {
		s.logger.Debug().Str("case", tc.Name).Str("error", outcome.Err).Msg("probe failed")
	}
	return outcome
}

// Verify LocalSandbox implements Sandbox at compile time.
var _ Sandbox = (*LocalSandbox)(nil)
