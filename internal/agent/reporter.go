package agent

import (
	"log/slog"
	"time"
)

// Reporter logs the per-step trace and the execution report at the end of
// a chain.
type Reporter struct {
	logger *slog.Logger
}

func NewReporter(logger *slog.Logger) *Reporter {
	return &Reporter{logger: logger}
}

func (r *Reporter) Step(step int, url string, res StepResult, t Transition) {
	attrs := []any{"step", step, "url", url, "kind", res.Kind}
	switch res.Kind {
	case KindResponse:
		attrs = append(attrs, "answer", res.Answer, "response", res.Response)
	case KindSubmitError:
		attrs = append(attrs, "answer", res.Answer, "error", res.Error)
	case KindFailed:
		attrs = append(attrs, "error", res.Error)
	}
	if t.Halted() {
		attrs = append(attrs, "halt", t.Reason)
	} else {
		attrs = append(attrs, "next", t.Next)
	}
	r.logger.Info("step finished", attrs...)
}

func (r *Reporter) Finished(out Outcome) {
	r.logger.Info("execution report",
		"steps", len(out.Trace),
		"duration", out.Duration.Truncate(time.Millisecond).String(),
		"reason", out.Reason,
		"exit", humanizeReason(out.Reason),
	)
	for i, s := range out.Trace {
		r.logger.Debug("trace", "step", i+1, "url", s.URL, "kind", s.Result.Kind)
	}
}
