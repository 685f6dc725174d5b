package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nbenliogludev/quiz-chain-solver/internal/browser"
	"github.com/nbenliogludev/quiz-chain-solver/internal/metrics"
	"github.com/nbenliogludev/quiz-chain-solver/internal/planner"
)

type ResourceGatherer interface {
	Gather(ctx context.Context, baseURL string, links []string) string
}

// Solver solves a single quiz page: render, gather data, plan, execute and
// submit.
type Solver struct {
	renderer  browser.Renderer
	gatherer  ResourceGatherer
	planner   planner.Client
	executor  Executor
	submitter Submitter
	logger    *slog.Logger
}

func NewSolver(
	r browser.Renderer,
	g ResourceGatherer,
	p planner.Client,
	e Executor,
	s Submitter,
	logger *slog.Logger,
) *Solver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Solver{
		renderer:  r,
		gatherer:  g,
		planner:   p,
		executor:  e,
		submitter: s,
		logger:    logger.With("component", "solver"),
	}
}

// Solve returns an error only when the page could not be rendered. Every
// later failure is folded into the StepResult.
func (s *Solver) Solve(ctx context.Context, email, secret, quizURL string) (StepResult, error) {
	start := time.Now()
	defer func() { metrics.StepDuration.Observe(time.Since(start).Seconds()) }()

	s.logger.Info("solving quiz", "url", quizURL)

	page, err := s.renderer.Render(ctx, quizURL)
	if err != nil {
		return StepResult{}, fmt.Errorf("render %s: %w", quizURL, err)
	}
	s.logger.Debug("page rendered", "title", page.Title, "html_len", len(page.HTML), "links", len(page.Links))

	env := EnvState{
		URL:       quizURL,
		Email:     email,
		Secret:    secret,
		Page:      page,
		Resources: s.gatherer.Gather(ctx, quizURL, page.Links),
	}

	plan := s.planner.BuildPlan(ctx, env.PlannerInput())
	result := s.executor.Execute(ctx, env, plan)

	endpoint := FindSubmit(page.HTML, page.Links, quizURL)
	payload, hasPayload := result["submit_payload"]
	if endpoint == "" || !hasPayload {
		s.logger.Warn("nothing submitted", "url", quizURL, "endpoint", endpoint, "has_payload", hasPayload)
		return Unsubmitted(result), nil
	}

	answer := result["answer"]
	s.logger.Info("submitting answer", "endpoint", endpoint, "answer", answer)

	resp, err := s.submitter.Submit(ctx, endpoint, payload)
	if err != nil {
		s.logger.Error("submit failed", "endpoint", endpoint, "error", err)
		return SubmitFailed(err.Error(), answer), nil
	}
	return Submitted(resp, answer), nil
}
