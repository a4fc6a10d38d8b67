package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolhub/school-hub/internal/infrastructure/scheduler"
	"github.com/schoolhub/school-hub/pkg/timeutil"
)

type noopJob struct{}

func (noopJob) Name() string                  { return "auto-promotion" }
func (noopJob) Description() string           { return "test" }
func (noopJob) Run(ctx context.Context) error { return nil }

func TestJobStatuses(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	sched := scheduler.New(scheduler.Config{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:  timeutil.NewFakeClock(now),
	})
	require.NoError(t, sched.Register(noopJob{}, scheduler.NewIntervalSchedule(24*time.Hour, false)))

	jobs := jobStatuses(sched)()
	require.Len(t, jobs, 1)
	assert.Equal(t, "auto-promotion", jobs[0].Name)
	assert.Equal(t, "@every 24h0m0s", jobs[0].Schedule)
	assert.Equal(t, now.Add(24*time.Hour), jobs[0].NextRun)
	assert.Nil(t, jobs[0].LastRun, "never-run job has no last run")
	assert.Empty(t, jobs[0].LastError)
}
