package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nbenliogludev/quiz-chain-solver/internal/agent"
	"github.com/nbenliogludev/quiz-chain-solver/internal/metrics"
	"github.com/nbenliogludev/quiz-chain-solver/internal/store"
)

const (
	runIDHeader   = "X-Run-ID"
	timeoutDetail = "Solver timed out"
	archiveBudget = 5 * time.Second
)

type quizRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
	URL    string `json:"url"`
}

type quizResponse struct {
	Status string      `json:"status"`
	Result agent.Trace `json:"result,omitempty"`
	Detail string      `json:"detail,omitempty"`
}

type runResult struct {
	outcome agent.Outcome
	err     error
}

// handleQuiz runs a whole chain inside the request. Solver trouble is
// reported in the body with status 200; only a bad secret or request is an
// HTTP error.
func (s *Server) handleQuiz(c echo.Context) error {
	var req quizRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		metrics.Requests.WithLabelValues("bad_request").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}
	if !s.secretMatches(req.Secret) {
		metrics.Requests.WithLabelValues("forbidden").Inc()
		return echo.NewHTTPError(http.StatusForbidden, "Invalid secret")
	}
	if strings.TrimSpace(req.URL) == "" {
		metrics.Requests.WithLabelValues("bad_request").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "Missing url field")
	}

	id := store.NewRunID()
	c.Response().Header().Set(runIDHeader, id)

	run := store.Run{
		ID:        id,
		Email:     req.Email,
		URL:       req.URL,
		Status:    store.StatusRunning,
		StartedAt: time.Now().UTC(),
	}
	s.archive(run)

	ctx, cancel := context.WithTimeout(c.Request().Context(), s.opts.SolveTimeout)
	defer cancel()

	done := make(chan runResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- runResult{err: fmt.Errorf("solver panic: %v", p)}
			}
		}()
		done <- runResult{outcome: s.runner.Execute(ctx, req.Email, req.Secret, req.URL, s.opts.OwnerEmail)}
	}()

	select {
	case r := <-done:
		return s.respond(c, run, r)
	case <-ctx.Done():
		detail := timeoutDetail
		status := store.StatusTimeout
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			status, detail = store.StatusError, "request cancelled"
		}
		s.logger.Warn("run did not finish in time", "run_id", id, "timeout", s.opts.SolveTimeout.String())

		run.Status, run.Detail = status, detail
		go s.archiveWhenDone(run, done)

		metrics.Requests.WithLabelValues(status).Inc()
		return c.JSON(http.StatusOK, quizResponse{Status: status, Detail: detail})
	}
}

func (s *Server) respond(c echo.Context, run store.Run, r runResult) error {
	run.FinishedAt = time.Now().UTC()

	if r.err != nil {
		s.logger.Error("run failed", "run_id", run.ID, "error", r.err)
		run.Status, run.Detail = store.StatusError, r.err.Error()
		s.archive(run)
		metrics.Requests.WithLabelValues(store.StatusError).Inc()
		return c.JSON(http.StatusOK, quizResponse{Status: store.StatusError, Detail: r.err.Error()})
	}

	run.Status = store.StatusOK
	run.Reason = string(r.outcome.Reason)
	run.Trace = r.outcome.Trace
	s.archive(run)
	metrics.Requests.WithLabelValues(store.StatusOK).Inc()
	return c.JSON(http.StatusOK, quizResponse{Status: store.StatusOK, Result: r.outcome.Trace})
}

// archiveWhenDone records the partial trace of a run that outlived its
// request once the cancelled chain unwinds.
func (s *Server) archiveWhenDone(run store.Run, done <-chan runResult) {
	r := <-done
	run.FinishedAt = time.Now().UTC()
	if r.err == nil {
		run.Reason = string(r.outcome.Reason)
		run.Trace = r.outcome.Trace
	}
	s.archive(run)
}

func (s *Server) archive(run store.Run) {
	ctx, cancel := context.WithTimeout(context.Background(), archiveBudget)
	defer cancel()
	if err := s.runs.Save(ctx, run); err != nil {
		s.logger.Warn("failed to archive run", "run_id", run.ID, "error", err)
	}
}

func (s *Server) secretMatches(got string) bool {
	if s.opts.Secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.opts.Secret)) == 1
}
