package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nbenliogludev/quiz-chain-solver/internal/agent"
	"github.com/nbenliogludev/quiz-chain-solver/internal/browser"
	"github.com/nbenliogludev/quiz-chain-solver/internal/config"
	"github.com/nbenliogludev/quiz-chain-solver/internal/fetch"
	"github.com/nbenliogludev/quiz-chain-solver/internal/llm"
	"github.com/nbenliogludev/quiz-chain-solver/internal/logging"
	"github.com/nbenliogludev/quiz-chain-solver/internal/planner"
)

// app holds the wired solver stack shared by serve and solve.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	renderer browser.Renderer
	runner   *agent.Runner
}

func newApp(cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	provider, err := llm.NewProvider(cfg.LLMTransport, cfg.LLMEndpoint, cfg.LLMToken, cfg.LLMTimeout())
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	client := llm.NewClient(provider,
		llm.WithModel(cfg.LLMModel),
		llm.WithMaxTokens(cfg.LLMMaxTokens),
		llm.WithLogger(logger),
	)

	renderer, err := browser.New(cfg.Renderer, cfg.RenderTimeout(), logger)
	if err != nil {
		return nil, fmt.Errorf("renderer: %w", err)
	}

	solver := agent.NewSolver(
		renderer,
		fetch.NewGatherer(fetch.NewHTTPDownloader(fetch.DefaultDownloadTimeout), logger),
		planner.NewLLMPlanner(client, logger),
		&agent.ExecutorAgent{LLM: client, Logger: logger},
		agent.NewHTTPSubmitter(agent.DefaultSubmitTimeout),
		logger,
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		renderer: renderer,
		runner:   agent.NewRunner(solver, cfg.MaxSteps, logger),
	}, nil
}

func (a *app) Close() {
	if err := a.renderer.Close(); err != nil {
		a.logger.Warn("failed to close renderer", "error", err)
	}
}

func contextWithOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
