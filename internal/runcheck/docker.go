package runcheck

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	probeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vouch",
		Subsystem: "sandbox",
		Name:      "probe_duration_seconds",
		Help:      "Duration of sandboxed probe executions",
		Buckets:   prometheus.DefBuckets,
	}, []string{"image"})

	probeTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vouch",
		Subsystem: "sandbox",
		Name:      "probe_timeouts_total",
		Help:      "Number of probes that hit the timeout",
	}, []string{"image"})

	probeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vouch",
		Subsystem: "sandbox",
		Name:      "probe_failures_total",
		Help:      "Number of probes that resulted in an error",
	}, []string{"image"})
)

// DockerConfig groups sandbox configuration values.
type DockerConfig struct {
	// Host is the Docker daemon address; empty uses the environment.
	Host string
	// Image is the container image probes run in.
	Image string
	// CaseTimeout bounds a single probe execution.
	CaseTimeout time.Duration
	// MemoryLimitMB caps container memory.
	MemoryLimitMB int64
	// CPUShares sets the container CPU weight.
	CPUShares int64
	// WorkingDir is the mount target inside the container.
	WorkingDir string
	Logger     zerolog.Logger
}

// DockerSandbox executes probes inside network-isolated Docker containers.
// The candidate code is bind-mounted into a fresh workspace; each probe runs
// in its own container so one wedged case cannot poison the next.
type DockerSandbox struct {
	client *client.Client
	cfg    DockerConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewDockerSandbox constructs a Docker-backed sandbox.
func NewDockerSandbox(cfg DockerConfig) (*DockerSandbox, error) {
	opts := []client.Opt{client.WithAPIVersionNegotiation()}
	if cfg.Host != "" {
		opts = append(opts, client.WithHost(cfg.Host))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	if cfg.Image == "" {
		cfg.Image = "node:20-alpine"
	}
	if cfg.WorkingDir == "" {
		cfg.WorkingDir = "/workspace"
	}
	if cfg.CaseTimeout <= 0 {
		cfg.CaseTimeout = 30 * time.Second
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &DockerSandbox{
		client: cli,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/verdictproj/vouch/internal/runcheck"),
		logger: logger,
	}, nil
}

// Run implements Sandbox. A workspace or daemon failure is returned as an
// error (total unavailability); per-probe failures are captured into the
// outcome for that case only.
func (s *DockerSandbox) Run(ctx context.Context, code string, language string, cases []TestCase) ([]ProbeOutcome, error) {
	workspace, err := os.MkdirTemp("", "vouch-sandbox-")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	defer os.RemoveAll(workspace)

	codePath := filepath.Join(workspace, candidateFileName(language))
	if err := os.WriteFile(codePath, []byte(code), 0o644); err != nil {
		return nil, fmt.Errorf("mount candidate code: %w", err)
	}

	if _, err := s.client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("docker daemon unavailable: %w", err)
	}

	outcomes := make([]ProbeOutcome, 0, len(cases))
	for _, tc := range cases {
		outcome := s.runProbe(ctx, workspace, tc)
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// runProbe executes one probe in its own container.
func (s *DockerSandbox) runProbe(parent context.Context, workspace string, tc TestCase) ProbeOutcome {
	outcome := ProbeOutcome{Name: tc.Name}

	ctx, span := s.tracer.Start(parent, "sandbox.probe", trace.WithAttributes(
		attribute.String("docker.image", s.cfg.Image),
		attribute.String("case", tc.Name),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.CaseTimeout)
	defer cancel()

	hostCfg := &container.HostConfig{
		NetworkMode: "none",
		Resources: container.Resources{
			Memory:    s.cfg.MemoryLimitMB * 1024 * 1024,
			CPUShares: s.cfg.CPUShares,
		},
		Mounts: []mount.Mount{{
			Type:   mount.TypeBind,
			Source: workspace,
			Target: s.cfg.WorkingDir,
		}},
	}

	config := &container.Config{
		Image:        s.cfg.Image,
		Cmd:          []string{"sh", "-c", tc.Probe},
		WorkingDir:   s.cfg.WorkingDir,
		AttachStdout: true,
		AttachStderr: true,
	}

	start := time.Now()
	resp, err := s.client.ContainerCreate(ctx, config, hostCfg, &network.NetworkingConfig{}, nil, "")
	if err != nil {
		probeFailures.WithLabelValues(s.cfg.Image).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		outcome.Err = fmt.Sprintf("container create: %v", err)
		return outcome
	}

	containerID := resp.ID
	defer func() {
		removeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.client.ContainerRemove(removeCtx, containerID, container.RemoveOptions{Force: true}); err != nil {
			s.logger.Error().Err(err).Str("container_id", containerID).Msg("failed to remove container")
		}
	}()

	if err := s.client.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		probeFailures.WithLabelValues(s.cfg.Image).Inc()
		span.RecordError(err)
		outcome.Err = fmt.Sprintf("container start: %v", err)
		return outcome
	}

	statusCh, errCh := s.client.ContainerWait(ctx, containerID, container.WaitConditionNextExit)

	var exitCode int
	select {
	case err := <-errCh:
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			probeTimeouts.WithLabelValues(s.cfg.Image).Inc()
			outcome.Err = fmt.Sprintf("probe timed out after %s", s.cfg.CaseTimeout)
		} else if err != nil {
			probeFailures.WithLabelValues(s.cfg.Image).Inc()
			outcome.Err = fmt.Sprintf("container wait: %v", err)
		}
	case status := <-statusCh:
		exitCode = int(status.StatusCode)
	case <-ctx.Done():
		probeTimeouts.WithLabelValues(s.cfg.Image).Inc()
		outcome.Err = fmt.Sprintf("probe timed out after %s", s.cfg.CaseTimeout)
	}

	probeDuration.WithLabelValues(s.cfg.Image).Observe(time.Since(start).Seconds())

	stdout, stderr := s.collectLogs(parent, containerID)
	outcome.Output = stdout

	if outcome.Err == "" && exitCode != 0 {
		outcome.Err = fmt.Sprintf("probe exited %d: %s", exitCode, stderr)
	}
	return outcome
}

// collectLogs fetches and demultiplexes the container's output streams.
func (s *DockerSandbox) collectLogs(ctx context.Context, containerID string) (string, string) {
	logCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	reader, err := s.client.ContainerLogs(logCtx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("container_id", containerID).Msg("failed to fetch container logs")
		return "", ""
	}
	defer reader.Close()

	stdout, stderr, err := splitDockerLogs(reader)
	if err != nil {
		s.logger.Error().Err(err).Str("container_id", containerID).Msg("failed to read container logs")
		return "", ""
	}
	return stdout, stderr
}

func splitDockerLogs(reader io.Reader) (string, string, error) {
	var stdoutBuf, stderrBuf bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdoutBuf, &stderrBuf, reader); err != nil {
		return "", "", err
	}
	return stdoutBuf.String(), stderrBuf.String(), nil
}

// Close shuts down the sandbox's underlying client.
func (s *DockerSandbox) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Verify DockerSandbox implements Sandbox at compile time.
var _ Sandbox = (*DockerSandbox)(nil)
