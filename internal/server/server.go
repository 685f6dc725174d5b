package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nbenliogludev/quiz-chain-solver/internal/agent"
	"github.com/nbenliogludev/quiz-chain-solver/internal/store"
)

const usageMessage = "LLM Analysis Quiz Solver. POST /quiz with JSON {email, secret, url}"

// ChainRunner is the part of agent.Runner the service needs.
type ChainRunner interface {
	Execute(ctx context.Context, email, secret, startURL, ownerEmail string) agent.Outcome
}

type Options struct {
	// Secret every POST /quiz must present. Empty rejects all requests.
	Secret       string
	OwnerEmail   string
	SolveTimeout time.Duration
}

type Server struct {
	echo   *echo.Echo
	runner ChainRunner
	runs   store.RunStore
	opts   Options
	logger *slog.Logger
}

func New(r ChainRunner, runs store.RunStore, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.SolveTimeout <= 0 {
		opts.SolveTimeout = 170 * time.Second
	}
	if runs == nil {
		runs = store.NewMemoryStore(24 * time.Hour)
	}
	s := &Server{
		echo:   echo.New(),
		runner: r,
		runs:   runs,
		opts:   opts,
		logger: logger.With("component", "server"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.String(),
				"run_id", c.Response().Header().Get(runIDHeader),
			)
			return nil
		},
	}))
	e.HTTPErrorHandler = s.handleError

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": usageMessage})
	})
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.POST("/quiz", s.handleQuiz)
	e.GET("/runs/:id", s.handleGetRun)
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(addr string) error {
	s.logger.Info("listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// handleError renders every error as {"detail": ...}.
func (s *Server) handleError(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Request().URL.Path, "error", err)
	}
	if !c.Response().Committed {
		_ = c.JSON(code, map[string]string{"detail": msg})
	}
}

func (s *Server) handleGetRun(c echo.Context) error {
	run, err := s.runs.Get(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrRunNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "run not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, run)
}
