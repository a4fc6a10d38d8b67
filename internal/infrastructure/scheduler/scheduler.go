// Package scheduler runs background jobs, such as the yearly automatic
// promotion pass, on fixed schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/schoolhub/school-hub/pkg/timeutil"
)

// Job is a unit of background work. Name must be unique per scheduler;
// ctx is cancelled on Stop.
type Job interface {
	Name() string
	Description() string
	Run(ctx context.Context) error
}

// Schedule yields the next due time strictly after t.
type Schedule interface {
	Next(t time.Time) time.Time
	String() string
}

// StartupSchedule is a Schedule that may ask for a run as soon as the
// scheduler starts.
type StartupSchedule interface {
	Schedule
	RunsAtStart() bool
}

// JobResult records one execution.
type JobResult struct {
	JobName     string
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Success     bool
	Error       error
}

var (
	ErrNilJob                  = errors.New("job cannot be nil")
	ErrNilSchedule             = errors.New("schedule cannot be nil")
	ErrJobAlreadyExists        = errors.New("job already exists")
	ErrSchedulerAlreadyRunning = errors.New("scheduler is already running")
	ErrSchedulerNotRunning     = errors.New("scheduler is not running")
)

type Config struct {
	Logger *slog.Logger

	// Clock drives schedule checks. Defaults to the system clock.
	Clock timeutil.Clock

	// TickInterval is how often due jobs are checked (default: 1s).
	TickInterval time.Duration
}

func DefaultConfig() Config {
	return Config{Clock: timeutil.SystemClock{}, TickInterval: time.Second}
}

// Scheduler runs registered jobs when due, never overlapping a job with itself.
type Scheduler struct {
	mu sync.RWMutex

	logger *slog.Logger
	clock  timeutil.Clock
	tick   time.Duration

	entries   map[string]*entry
	running   bool
	ctx       context.Context
	stop      context.CancelFunc
	wg        sync.WaitGroup
	startedAt time.Time
}

type entry struct {
	job       Job
	schedule  Schedule
	executing bool
	lastRun   time.Time
	nextRun   time.Time
	runCount  int64
	failCount int64
	last      *JobResult
}

// New fills zero Config fields with defaults.
func New(config Config) *Scheduler {
	def := DefaultConfig()
	if config.Logger == nil {
		config.Logger = slog.Default().With("component", "scheduler")
	}
	if config.Clock == nil {
		config.Clock = def.Clock
	}
	if config.TickInterval <= 0 {
		config.TickInterval = def.TickInterval
	}

	return &Scheduler{
		logger:  config.Logger,
		clock:   config.Clock,
		tick:    config.TickInterval,
		entries: make(map[string]*entry),
	}
}

// Register adds job under its name. The first run is due one schedule step
// from now, or at Start for a StartupSchedule that asks for it.
func (s *Scheduler) Register(job Job, schedule Schedule) error {
	if job == nil {
		return ErrNilJob
	}
	if schedule == nil {
		return ErrNilSchedule
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, dup := s.entries[name]; dup {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, name)
	}

	e := &entry{job: job, schedule: schedule, nextRun: schedule.Next(s.clock.Now())}
	s.entries[name] = e

	s.logger.Info("job registered", "job", name, "schedule", schedule.String(), "next_run", e.nextRun)

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start launches the polling loop. It returns immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSchedulerAlreadyRunning
	}
	s.ctx, s.stop = context.WithCancel(ctx)
	s.running = true
	s.startedAt = s.clock.Now()

	for _, e := range s.entries {
		if st, ok := e.schedule.(StartupSchedule); ok && st.RunsAtStart() {
			e.nextRun = s.startedAt
		}
	}

	s.logger.Info("scheduler started", "jobs", len(s.entries), "tick", s.tick.String())

	s.wg.Add(1)
	go s.loop(s.ctx)
	return nil
}

// Stop cancels in-flight jobs through their context and waits for them.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.running = false
	s.stop()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("scheduler stopped", "uptime", s.clock.Now().Sub(s.startedAt).String())
	return nil
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := s.clock.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		s.dispatchDue(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
		}
	}
}

// dispatchDue claims every due, idle entry and runs each in its own goroutine.
func (s *Scheduler) dispatchDue(ctx context.Context) {
	now := s.clock.Now()

	var due []*entry
	s.mu.Lock()
	for _, e := range s.entries {
		if e.executing || now.Before(e.nextRun) {
			continue
		}
		e.executing = true
		e.lastRun = now
		e.nextRun = e.schedule.Next(now)
		due = append(due, e)
	}
	s.mu.Unlock()

	for _, e := range due {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.execute(ctx, e)
		}()
	}
}

// execute runs a claimed entry and releases it. Panics become failures.
func (s *Scheduler) execute(ctx context.Context, e *entry) {
	name := e.job.Name()
	log := s.logger.With("job", name)
	log.Info("job started")

	res := JobResult{JobName: name, StartedAt: s.clock.Now()}
	res.Error = runGuarded(ctx, e.job, log)
	res.CompletedAt = s.clock.Now()
	res.Duration = res.CompletedAt.Sub(res.StartedAt)
	res.Success = res.Error == nil

	s.mu.Lock()
	e.executing = false
	e.runCount++
	if !res.Success {
		e.failCount++
	}
	e.last = &res
	s.mu.Unlock()

	if res.Success {
		log.Info("job completed", "duration", res.Duration.String())
	} else {
		log.Error("job failed", "duration", res.Duration.String(), "error", res.Error)
	}
}

func runGuarded(ctx context.Context, job Job, log *slog.Logger) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("job panicked", "panic", rec, "stack", string(debug.Stack()))
			err = fmt.Errorf("job %s panicked: %v", job.Name(), rec)
		}
	}()
	return job.Run(ctx)
}

// ══════════════════════════════════════════════════════════════════════════════
// INSPECTION
// ══════════════════════════════════════════════════════════════════════════════

// JobInfo is a point-in-time snapshot of a registered job.
type JobInfo struct {
	Name        string
	Description string
	Schedule    string
	Running     bool
	LastRun     time.Time
	NextRun     time.Time
	RunCount    int64
	FailCount   int64
	LastResult  *JobResult
}

// ListJobs snapshots all jobs ordered by name.
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.entries))
	for name, e := range s.entries {
		out = append(out, JobInfo{
			Name:        name,
			Description: e.job.Description(),
			Schedule:    e.schedule.String(),
			Running:     e.executing,
			LastRun:     e.lastRun,
			NextRun:     e.nextRun,
			RunCount:    e.runCount,
			FailCount:   e.failCount,
			LastResult:  e.last,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
