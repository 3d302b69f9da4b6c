// Package pipeline orchestrates the verification stages: static analysis,
// specification matching, sandboxed runtime checks, peer review and
// multi-model consensus, aggregated into a single weighted score.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/verdictproj/vouch/pkg/models"
)

var (
	verificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vouch",
		Subsystem: "pipeline",
		Name:      "verifications_total",
		Help:      "Completed verification runs by outcome",
	}, []string{"verified"})

	verificationScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "vouch",
		Subsystem: "pipeline",
		Name:      "score",
		Help:      "Distribution of aggregate verification scores",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
	})

	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vouch",
		Subsystem: "pipeline",
		Name:      "stage_duration_seconds",
		Help:      "Duration of individual verification stages",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stage"})
)

// StaticChecker is the static analysis stage collaborator.
type StaticChecker interface {
	Check(ctx context.Context, code string, req models.Requirements, rctx models.Context) models.StaticResult
}

// SpecChecker is the specification compliance stage collaborator.
type SpecChecker interface {
	Check(ctx context.Context, code string, req models.Requirements, rctx models.Context) models.SpecResult
}

// RuntimeChecker is the sandboxed execution stage collaborator. It may
// return a SkippedResult when its sandbox is unavailable.
type RuntimeChecker interface {
	Check(ctx context.Context, code string, req models.Requirements, rctx models.Context) models.CheckResult
}

// PeerReviewer is the single-model review stage collaborator.
type PeerReviewer interface {
	Review(ctx context.Context, code string, req models.Requirements, rctx models.Context) models.ReviewResult
}

// ConsensusPanel is the multi-model vote stage collaborator.
type ConsensusPanel interface {
	Vote(ctx context.Context, code string, req models.Requirements, rctx models.Context) models.ConsensusResult
}

// StageTimeouts bounds each stage independently. Zero values fall back to
// the defaults below.
type StageTimeouts struct {
	Static    time.Duration
	Spec      time.Duration
	Runtime   time.Duration
	Peer      time.Duration
	Consensus time.Duration
}

func (t StageTimeouts) withDefaults() StageTimeouts {
	def := func(d, fallback time.Duration) time.Duration {
		if d <= 0 {
			return fallback
		}
		return d
	}
	return StageTimeouts{
		Static:    def(t.Static, 30*time.Second),
		Spec:      def(t.Spec, 60*time.Second),
		Runtime:   def(t.Runtime, 120*time.Second),
		Peer:      def(t.Peer, 60*time.Second),
		Consensus: def(t.Consensus, 60*time.Second),
	}
}

// Pipeline wires the five stages together. Static, spec, peer and consensus
// run concurrently; runtime waits for the static verdict and is skipped when
// the code is not statically valid.
type Pipeline struct {
	static    StaticChecker
	spec      SpecChecker
	runtime   RuntimeChecker
	peer      PeerReviewer
	consensus ConsensusPanel
	history   *History
	timeouts  StageTimeouts
	validate  *validator.Validate
	logger    zerolog.Logger
}

// New creates a pipeline. The history may be nil when callers do not need
// run records.
func New(static StaticChecker, spec SpecChecker, runtime RuntimeChecker, peer PeerReviewer, consensus ConsensusPanel, history *History, timeouts StageTimeouts, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		static:    static,
		spec:      spec,
		runtime:   runtime,
		peer:      peer,
		consensus: consensus,
		history:   history,
		timeouts:  timeouts.withDefaults(),
		validate:  validator.New(),
		logger:    logger,
	}
}

// Verify runs every stage against the candidate code and returns the
// aggregated report. The retrieval context rctx is handed to the stage
// collaborators unmodified. Stage collaborator failures are captured inside
// the stage results; an error return means the inputs were unusable or the
// context ended before the stages finished.
func (p *Pipeline) Verify(ctx context.Context, code string, req models.Requirements, rctx models.Context) (*models.VerificationReport, error) {
	if code == "" {
		return nil, fmt.Errorf("verify: empty candidate code")
	}
	if err := p.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("verify: invalid requirements: %w", err)
	}

	report := &models.VerificationReport{
		ID:           uuid.NewString(),
		Requirements: req,
		Code:         code,
		Timestamp:    time.Now().UTC(),
		Results:      make(map[string]models.CheckResult, len(stageWeights)),
	}

	logger := p.logger.With().Str("report_id", report.ID).Logger()
	logger.Info().Str("language", req.Language).Int("code_bytes", len(code)).Msg("verification started")

	var (
		staticRes    models.StaticResult
		specRes      models.SpecResult
		runtimeRes   models.CheckResult
		peerRes      models.ReviewResult
		consensusRes models.ConsensusResult
	)

	// The runtime stage blocks on the static verdict, never the reverse.
	staticValid := make(chan bool, 1)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer p.observe(models.StageStatic)()
		sctx, cancel := context.WithTimeout(gctx, p.timeouts.Static)
		defer cancel()
		staticRes = p.static.Check(sctx, code, req, rctx)
		staticValid <- staticRes.Valid
		return nil
	})

	g.Go(func() error {
		defer p.observe(models.StageSpec)()
		sctx, cancel := context.WithTimeout(gctx, p.timeouts.Spec)
		defer cancel()
		specRes = p.spec.Check(sctx, code, req, rctx)
		return nil
	})

	g.Go(func() error {
		select {
		case valid := <-staticValid:
			if !valid {
				runtimeRes = models.SkippedResult{Reason: "static validation failed"}
				return nil
			}
		case <-gctx.Done():
			return gctx.Err()
		}
		defer p.observe(models.StageRuntime)()
		sctx, cancel := context.WithTimeout(gctx, p.timeouts.Runtime)
		defer cancel()
		runtimeRes = p.runtime.Check(sctx, code, req, rctx)
		return nil
	})

	g.Go(func() error {
		defer p.observe(models.StagePeer)()
		sctx, cancel := context.WithTimeout(gctx, p.timeouts.Peer)
		defer cancel()
		peerRes = p.peer.Review(sctx, code, req, rctx)
		return nil
	})

	g.Go(func() error {
		defer p.observe(models.StageConsensus)()
		sctx, cancel := context.WithTimeout(gctx, p.timeouts.Consensus)
		defer cancel()
		consensusRes = p.consensus.Vote(sctx, code, req, rctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}

	report.Results[models.StageStatic] = staticRes
	report.Results[models.StageSpec] = specRes
	report.Results[models.StageRuntime] = runtimeRes
	report.Results[models.StagePeer] = peerRes
	report.Results[models.StageConsensus] = consensusRes

	report.Score = aggregate(report.Results)
	report.Verified = report.Score >= VerificationThreshold

	verificationsTotal.WithLabelValues(fmt.Sprintf("%t", report.Verified)).Inc()
	verificationScore.Observe(report.Score)

	if p.history != nil {
		p.history.Append(report)
	}

	logger.Info().
		Float64("score", report.Score).
		Bool("verified", report.Verified).
		Msg("verification finished")
	return report, nil
}

// History exposes the pipeline's run record, possibly nil.
func (p *Pipeline) History() *History {
	return p.history
}

// observe returns a stop function recording the stage's duration.
func (p *Pipeline) observe(stage string) func() {
	start := time.Now()
	return func() {
		stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}
