// Package store archives finished chain runs so they can be fetched by id
// after the HTTP request that started them has returned.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nbenliogludev/quiz-chain-solver/internal/agent"
)

var ErrRunNotFound = errors.New("run not found")

const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusTimeout = "timeout"
	StatusError   = "error"
)

type Run struct {
	ID         string      `json:"id"`
	Email      string      `json:"email"`
	URL        string      `json:"url"`
	Status     string      `json:"status"`
	Reason     string      `json:"reason,omitempty"`
	Detail     string      `json:"detail,omitempty"`
	Trace      agent.Trace `json:"trace"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
}

type RunStore interface {
	Save(ctx context.Context, run Run) error
	Get(ctx context.Context, id string) (Run, error)
}

func NewRunID() string {
	return uuid.NewString()
}
