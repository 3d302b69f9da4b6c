package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/rs/zerolog"

	"github.com/verdictproj/vouch/internal/config"
	"github.com/verdictproj/vouch/internal/exec"
	"github.com/verdictproj/vouch/internal/feedback"
	"github.com/verdictproj/vouch/internal/llm"
	"github.com/verdictproj/vouch/internal/pipeline"
	"github.com/verdictproj/vouch/internal/review"
	"github.com/verdictproj/vouch/internal/runcheck"
	"github.com/verdictproj/vouch/internal/specmatch"
	"github.com/verdictproj/vouch/internal/static"
	"github.com/verdictproj/vouch/pkg/models"
)

// app bundles the wired pipeline and its collaborators for the CLI commands.
type app struct {
	cfg       *config.Config
	logger    zerolog.Logger
	pipeline  *pipeline.Pipeline
	corrector *pipeline.Corrector
	anthropic *llm.AnthropicClient
	feedback  *feedback.Store
	sandbox   runcheck.Sandbox
}

// buildApp constructs the full verification stack from configuration.
// designDir enables design-reference comparison when non-empty.
func buildApp(designDir string) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.LogLevel)

	apiKey := ""
	if !cfg.Anthropic.UseAWSBedrock {
		apiKey, err = config.GetAnthropicKey(cfg)
		if err != nil {
			return nil, err
		}
	}

	anthropicClient, err := llm.NewAnthropicClient(llm.AnthropicConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        apiKey,
		UseAWSBedrock: cfg.Anthropic.UseAWSBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic client: %w", err)
	}

	linter := static.NewExecLinter(exec.NewRunner(), cfg.Timeouts.Static)
	for language, command := range cfg.Lint.Commands {
		linter.SetCommand(language, strings.Fields(command))
	}
	staticChecker := static.NewChecker(static.NewRegexScanner(), linter, logger)

	var resolver specmatch.Resolver
	if designDir != "" {
		resolver = specmatch.NewFileResolver(designDir)
	}
	specChecker := specmatch.NewChecker(anthropicClient, resolver, logger)

	sandbox := buildSandbox(cfg, logger)
	runtimeChecker := runcheck.NewChecker(runcheck.NewCompleterGenerator(anthropicClient), sandbox, logger)

	peer := review.NewPeerReviewer(anthropicClient, logger)

	consensus, err := review.NewConsensus(buildEvaluators(cfg, anthropicClient, logger), logger)
	if err != nil {
		return nil, fmt.Errorf("consensus panel: %w", err)
	}

	history := pipeline.NewHistory(cfg.History.Limit)
	pl := pipeline.New(staticChecker, specChecker, runtimeChecker, peer, consensus, history, pipeline.StageTimeouts{
		Static:    cfg.Timeouts.Static,
		Spec:      cfg.Timeouts.Spec,
		Runtime:   cfg.Timeouts.Runtime,
		Peer:      cfg.Timeouts.Peer,
		Consensus: cfg.Timeouts.Consensus,
	}, logger)

	a := &app{
		cfg:       cfg,
		logger:    logger,
		pipeline:  pl,
		corrector: pipeline.NewCorrector(pl, anthropicClient, cfg.Corrections.MaxAttempts, logger),
		anthropic: anthropicClient,
		sandbox:   sandbox,
	}

	if cfg.Feedback.Enabled {
		store, err := feedback.Open(cfg.FeedbackDBPath())
		if err != nil {
			logger.Warn().Err(err).Msg("feedback store unavailable")
		} else {
			a.feedback = store
		}
	}

	return a, nil
}

// retrievalContext assembles the checkers' retrieval payload from prior runs
// on similar requirements. Without a feedback store it is empty.
func (a *app) retrievalContext(req models.Requirements) models.Context {
	if a.feedback == nil {
		return models.Context{}
	}
	entries, err := a.feedback.Similar(req, 3)
	if err != nil {
		a.logger.Warn().Err(err).Msg("feedback lookup failed")
		return models.Context{}
	}

	var snippets []string
	for _, e := range entries {
		verdict := "failed"
		if e.Verified {
			verdict = "passed"
		}
		snippet := fmt.Sprintf("Prior requirement: %s\nOutcome: %s (score %.2f)", e.Description, verdict, e.Score)
		if len(e.Problems) > 0 {
			snippet += "\nProblems: " + strings.Join(e.Problems, "; ")
		}
		snippets = append(snippets, snippet)
	}
	return models.Context{Snippets: snippets}
}

// close releases the app's long-lived resources.
func (a *app) close() {
	if a.feedback != nil {
		a.feedback.Close()
	}
	if closer, ok := a.sandbox.(interface{ Close() error }); ok {
		closer.Close()
	}
}

// newCorrectorWithAttempts rebuilds the corrector with a different attempt
// limit.
func newCorrectorWithAttempts(a *app, maxAttempts int) *pipeline.Corrector {
	return pipeline.NewCorrector(a.pipeline, a.anthropic, maxAttempts, a.logger)
}

// buildSandbox selects the runtime sandbox backend, degrading from docker to
// local execution when the daemon client cannot be created.
func buildSandbox(cfg *config.Config, logger zerolog.Logger) runcheck.Sandbox {
	if strings.ToLower(cfg.Sandbox.Backend) == "docker" {
		docker, err := runcheck.NewDockerSandbox(runcheck.DockerConfig{
			Host:          cfg.Sandbox.Host,
			Image:         cfg.Sandbox.Image,
			CaseTimeout:   cfg.Sandbox.CaseTimeout,
			MemoryLimitMB: cfg.Sandbox.MemoryLimitMB,
			CPUShares:     cfg.Sandbox.CPUShares,
			Logger:        logger,
		})
		if err == nil {
			return docker
		}
		logger.Warn().Err(err).Msg("docker sandbox unavailable, falling back to local execution")
	}
	return runcheck.NewLocalSandbox(exec.NewRunner(), cfg.Sandbox.CaseTimeout, logger)
}

// buildEvaluators assembles the consensus panel. Two Claude models always
// vote; the third seat goes to OpenAI when a key is configured, otherwise to
// a third Claude model so the panel keeps its minimum size.
func buildEvaluators(cfg *config.Config, anthropicClient *llm.AnthropicClient, logger zerolog.Logger) []review.Evaluator {
	evaluators := []review.Evaluator{
		{Name: "claude-sonnet", Completer: anthropicClient},
		{Name: "claude-haiku", Completer: modelOverride{
			inner: anthropicClient,
			model: string(anthropic.ModelClaudeHaiku4_5_20251001),
		}},
	}

	if cfg.OpenAI.APIKey != "" {
		openaiClient, err := llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey: cfg.OpenAI.APIKey,
			Model:  cfg.OpenAI.Model,
			Logger: logger,
		})
		if err == nil {
			return append(evaluators, review.Evaluator{Name: "openai", Completer: openaiClient})
		}
		logger.Warn().Err(err).Msg("openai evaluator unavailable")
	}

	return append(evaluators, review.Evaluator{Name: "claude-opus", Completer: modelOverride{
		inner: anthropicClient,
		model: string(anthropic.ModelClaudeOpus4_1_20250805),
	}})
}

// modelOverride pins a completer to a specific model.
type modelOverride struct {
	inner llm.Completer
	model string
}

// Complete implements llm.Completer.
func (m modelOverride) Complete(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	opts.Model = m.model
	return m.inner.Complete(ctx, prompt, opts)
}

// newLogger builds the process logger at the configured level.
func newLogger(level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(parsed).
		With().Timestamp().Logger()
}
