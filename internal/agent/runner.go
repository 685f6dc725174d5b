package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nbenliogludev/quiz-chain-solver/internal/fetch"
	"github.com/nbenliogludev/quiz-chain-solver/internal/metrics"
)

const DefaultMaxSteps = 12

type StepSolver interface {
	Solve(ctx context.Context, email, secret, quizURL string) (StepResult, error)
}

// Outcome is a finished chain run.
type Outcome struct {
	Trace    Trace
	Reason   HaltReason
	Duration time.Duration
}

// Runner drives a quiz chain: solve the current URL, record the step, then
// follow the continuation the server handed back.
type Runner struct {
	solver   StepSolver
	maxSteps int
	reporter *Reporter
	logger   *slog.Logger
}

func NewRunner(s StepSolver, maxSteps int, logger *slog.Logger) *Runner {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "runner")
	return &Runner{
		solver:   s,
		maxSteps: maxSteps,
		reporter: NewReporter(logger),
		logger:   logger,
	}
}

// Run solves the chain starting at startURL and returns its trace.
func (r *Runner) Run(ctx context.Context, email, secret, startURL, ownerEmail string) Trace {
	return r.Execute(ctx, email, secret, startURL, ownerEmail).Trace
}

// Execute is Run with the halt reason and timing kept.
func (r *Runner) Execute(ctx context.Context, email, secret, startURL, ownerEmail string) Outcome {
	start := time.Now()
	r.logger.Info("chain started", "start_url", startURL, "email", email, "owner", ownerEmail)

	trace := make(Trace, 0, r.maxSteps)
	current := startURL
	reason := HaltStepCap

	for step := 1; step <= r.maxSteps; step++ {
		if ctx.Err() != nil {
			reason = HaltInterrupted
			break
		}

		result := r.solveStep(ctx, step, email, secret, current)
		trace = append(trace, QuizStep{URL: current, Result: result})
		metrics.Steps.WithLabelValues(string(result.Kind)).Inc()

		t := NextTransition(result)
		r.reporter.Step(step, current, result, t)
		if t.Halted() {
			reason = t.Reason
			break
		}
		current = fetch.ResolveURL(current, t.Next)
	}

	out := Outcome{Trace: trace, Reason: reason, Duration: time.Since(start)}
	metrics.ChainHalts.WithLabelValues(string(reason)).Inc()
	r.reporter.Finished(out)
	return out
}

// solveStep never lets a failure escape: errors and panics become a failed
// step.
func (r *Runner) solveStep(ctx context.Context, step int, email, secret, url string) (result StepResult) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("step panicked", "step", step, "url", url, "panic", p)
			result = Failed(fmt.Errorf("panic: %v", p))
		}
	}()

	r.logger.Info("step started", "step", step, "url", url)
	res, err := r.solver.Solve(ctx, email, secret, url)
	if err != nil {
		r.logger.Error("step failed", "step", step, "url", url, "error", err)
		return Failed(err)
	}
	return res
}
