package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbenliogludev/quiz-chain-solver/internal/agent"
)

func sampleRun() Run {
	return Run{
		ID:     NewRunID(),
		Email:  "me@example.com",
		URL:    "http://h/q1",
		Status: StatusOK,
		Reason: string(agent.HaltNoNextURL),
		Trace: agent.Trace{
			{URL: "http://h/q1", Result: agent.Submitted(map[string]any{"correct": true}, float64(42))},
		},
		StartedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		FinishedAt: time.Date(2026, 1, 2, 3, 4, 9, 0, time.UTC),
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)

	_, err := s.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrRunNotFound)

	run := sampleRun()
	require.NoError(t, s.Save(ctx, run))

	got, err := s.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run, got)
}

func TestMemoryStoreExpires(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }

	run := sampleRun()
	require.NoError(t, s.Save(ctx, run))

	now = now.Add(2 * time.Minute)
	_, err := s.Get(ctx, run.ID)
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()

	s, err := NewRedisStore(ctx, addr, "", 0, time.Minute)
	require.NoError(t, err)
	defer s.Close()

	run := sampleRun()
	require.NoError(t, s.Save(ctx, run))

	got, err := s.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	require.Len(t, got.Trace, 1)
	assert.Equal(t, agent.KindResponse, got.Trace[0].Result.Kind)
	assert.Equal(t, float64(42), got.Trace[0].Result.Answer)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}
