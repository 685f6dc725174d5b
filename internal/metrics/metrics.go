// Package metrics holds the Prometheus collectors shared by the solver and
// the HTTP service. They register with the default registry, which the
// service exposes on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LLMAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quizsolver",
		Name:      "llm_attempts_total",
		Help:      "Provider calls by outcome (ok, error, empty).",
	}, []string{"outcome"})

	JSONRecovery = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quizsolver",
		Name:      "json_recovery_total",
		Help:      "Model replies by the recovery stage that produced a mapping (exact, extract, repair, none).",
	}, []string{"stage"})

	Steps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quizsolver",
		Name:      "steps_total",
		Help:      "Quiz steps by result kind.",
	}, []string{"kind"})

	StepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "quizsolver",
		Name:      "step_duration_seconds",
		Help:      "Wall time of one render-plan-execute-submit step.",
		Buckets:   []float64{1, 2, 5, 10, 20, 40, 60, 90, 120},
	})

	ChainHalts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quizsolver",
		Name:      "chain_halts_total",
		Help:      "Finished chains by halt reason.",
	}, []string{"reason"})

	Requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quizsolver",
		Name:      "quiz_requests_total",
		Help:      "POST /quiz outcomes by status.",
	}, []string{"status"})

	ResourceFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quizsolver",
		Name:      "resource_fetches_total",
		Help:      "Auxiliary downloads by type (text, pdf) and outcome.",
	}, []string{"type", "outcome"})
)
