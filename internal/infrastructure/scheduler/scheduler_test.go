package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolhub/school-hub/pkg/timeutil"
)

type countingJob struct {
	name  string
	runs  atomic.Int32
	done  chan struct{}
	runFn func(ctx context.Context) error
}

func newCountingJob(name string, fn func(ctx context.Context) error) *countingJob {
	return &countingJob{name: name, done: make(chan struct{}, 16), runFn: fn}
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "test job " + j.name }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	defer func() { j.done <- struct{}{} }()
	if j.runFn != nil {
		return j.runFn(ctx)
	}
	return nil
}

func waitRun(t *testing.T, j *countingJob) {
	t.Helper()
	select {
	case <-j.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("job %s did not run", j.name)
	}
}

func newTestScheduler(clock timeutil.Clock) *Scheduler {
	return New(Config{
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:        clock,
		TickInterval: time.Minute,
	})
}

// waitIdle waits until no job is executing, so the counters are settled.
func waitIdle(t *testing.T, s *Scheduler) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, info := range s.ListJobs() {
			if info.Running {
				return false
			}
		}
		return true
	}, 2*time.Second, 5*time.Millisecond)
}

func TestScheduler_RunsAtStartAndOnInterval(t *testing.T) {
	clock := timeutil.NewFakeClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	s := newTestScheduler(clock)
	job := newCountingJob("daily", nil)

	require.NoError(t, s.Register(job, NewIntervalSchedule(24*time.Hour, true)))
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop() }()

	waitRun(t, job)
	require.True(t, clock.WaitForTickers(1, 2*time.Second))
	waitIdle(t, s)

	clock.Advance(24 * time.Hour)
	waitRun(t, job)
	waitIdle(t, s)

	assert.Equal(t, int32(2), job.runs.Load())
	infos := s.ListJobs()
	require.Len(t, infos, 1)
	assert.Equal(t, int64(2), infos[0].RunCount)
	assert.Equal(t, clock.Now().Add(24*time.Hour), infos[0].NextRun)
}

func TestScheduler_NoRunAtStart(t *testing.T) {
	clock := timeutil.NewFakeClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	s := newTestScheduler(clock)
	job := newCountingJob("lazy", nil)

	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour, false)))
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop() }()

	require.True(t, clock.WaitForTickers(1, 2*time.Second))
	assert.Equal(t, int32(0), job.runs.Load())

	clock.Advance(time.Hour)
	waitRun(t, job)
}

func TestScheduler_FailingAndPanickingJobsAreRecorded(t *testing.T) {
	clock := timeutil.NewFakeClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	s := newTestScheduler(clock)

	failing := newCountingJob("failing", func(context.Context) error { return errors.New("boom") })
	panicking := newCountingJob("panicking", func(context.Context) error { panic("kaboom") })
	healthy := newCountingJob("healthy", nil)

	for _, j := range []*countingJob{failing, panicking, healthy} {
		require.NoError(t, s.Register(j, NewIntervalSchedule(time.Hour, true)))
	}
	require.NoError(t, s.Start(context.Background()))

	waitRun(t, failing)
	waitRun(t, panicking)
	waitRun(t, healthy)
	waitIdle(t, s)

	clock.Advance(time.Hour)
	waitRun(t, healthy)
	waitIdle(t, s)
	require.NoError(t, s.Stop())

	byName := map[string]JobInfo{}
	for _, info := range s.ListJobs() {
		byName[info.Name] = info
	}
	for _, name := range []string{"failing", "panicking", "healthy"} {
		assert.Equal(t, int64(2), byName[name].RunCount, name)
	}
	assert.Equal(t, int64(2), byName["failing"].FailCount)
	assert.Equal(t, int64(2), byName["panicking"].FailCount)
	assert.Contains(t, byName["panicking"].LastResult.Error.Error(), "kaboom")
	assert.Equal(t, int64(0), byName["healthy"].FailCount)
}

func TestScheduler_RegisterAndLifecycleErrors(t *testing.T) {
	s := newTestScheduler(timeutil.NewFakeClock(time.Now()))
	job := newCountingJob("a", nil)

	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Hour, false)), ErrNilJob)
	assert.ErrorIs(t, s.Register(job, nil), ErrNilSchedule)
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour, false)))
	assert.ErrorIs(t, s.Register(job, NewIntervalSchedule(time.Hour, false)), ErrJobAlreadyExists)

	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)
	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
}

func TestIntervalSchedule(t *testing.T) {
	sched := NewIntervalSchedule(24*time.Hour, true)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, base.Add(24*time.Hour), sched.Next(base))
	assert.True(t, sched.RunsAtStart())
	assert.Equal(t, "@every 24h0m0s (at start)", sched.String())
	assert.Equal(t, "@every 1h0m0s", NewIntervalSchedule(time.Hour, false).String())
}
