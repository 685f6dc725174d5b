package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbenliogludev/quiz-chain-solver/internal/agent"
	"github.com/nbenliogludev/quiz-chain-solver/internal/browser"
	"github.com/nbenliogludev/quiz-chain-solver/internal/config"
	"github.com/nbenliogludev/quiz-chain-solver/internal/fetch"
	"github.com/nbenliogludev/quiz-chain-solver/internal/llm"
	"github.com/nbenliogludev/quiz-chain-solver/internal/planner"
)

// TestLiveQuizChain runs a real chain against QUIZ_E2E_URL with the
// configured model endpoint and a real browser.
func TestLiveQuizChain(t *testing.T) {
	startURL := os.Getenv("QUIZ_E2E_URL")
	if startURL == "" || testing.Short() {
		t.Skip("QUIZ_E2E_URL not set")
	}

	cfg, err := config.Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	provider, err := llm.NewProvider(cfg.LLMTransport, cfg.LLMEndpoint, cfg.LLMToken, cfg.LLMTimeout())
	require.NoError(t, err)
	client := llm.NewClient(provider, llm.WithModel(cfg.LLMModel))

	renderer, err := browser.New(cfg.Renderer, cfg.RenderTimeout(), nil)
	require.NoError(t, err)
	defer renderer.Close()

	solver := agent.NewSolver(
		renderer,
		fetch.NewGatherer(fetch.NewHTTPDownloader(fetch.DefaultDownloadTimeout), nil),
		planner.NewLLMPlanner(client, nil),
		&agent.ExecutorAgent{LLM: client},
		agent.NewHTTPSubmitter(agent.DefaultSubmitTimeout),
		nil,
	)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.SolveTimeout()+30*time.Second)
	defer cancel()

	out := agent.NewRunner(solver, cfg.MaxSteps, nil).Execute(ctx, cfg.QuizEmail, cfg.QuizSecret, startURL, cfg.QuizEmail)

	require.NotEmpty(t, out.Trace)
	assert.NotEqual(t, agent.KindFailed, out.Trace[0].Result.Kind)
	t.Logf("chain halted after %d steps: %s", len(out.Trace), out.Reason)
}
