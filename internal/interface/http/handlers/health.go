package handlers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// HealthChecker reports process and dependency health for /health and /ready.
type HealthChecker interface {
	Check(ctx context.Context) HealthStatus
}

// HealthCheckFunc returns nil when the checked dependency is usable.
type HealthCheckFunc func(ctx context.Context) error

type HealthStatus struct {
	Healthy   bool                   `json:"healthy"`
	Ready     bool                   `json:"ready"`
	Message   string                 `json:"message,omitempty"`
	Storage   string                 `json:"storage,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Jobs      []JobStatus            `json:"jobs,omitempty"`
	Uptime    string                 `json:"uptime,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
}

type CheckResult struct {
	Healthy  bool   `json:"healthy"`
	Message  string `json:"message,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// JobStatus describes a background job. Job failures are reported but do
// not make the process unhealthy.
type JobStatus struct {
	Name      string     `json:"name"`
	Schedule  string     `json:"schedule"`
	Running   bool       `json:"running"`
	LastRun   *time.Time `json:"lastRun,omitempty"`
	NextRun   time.Time  `json:"nextRun"`
	RunCount  int64      `json:"runCount"`
	FailCount int64      `json:"failCount"`
	LastError string     `json:"lastError,omitempty"`
}

// CompositeHealthChecker checks every registered dependency concurrently.
// One failing check marks the whole process unhealthy and not ready.
type CompositeHealthChecker struct {
	version string
	storage string
	started time.Time

	mu      sync.RWMutex
	checks  map[string]HealthCheckFunc
	jobs    func() []JobStatus
	timeout time.Duration
}

// NewCompositeHealthChecker reports version and the storage backend name in
// every status.
func NewCompositeHealthChecker(version, storage string) *CompositeHealthChecker {
	return &CompositeHealthChecker{
		version: version,
		storage: storage,
		started: time.Now(),
		checks:  make(map[string]HealthCheckFunc),
		timeout: 5 * time.Second,
	}
}

// SetTimeout bounds each check individually.
func (c *CompositeHealthChecker) SetTimeout(d time.Duration) {
	c.mu.Lock()
	c.timeout = d
	c.mu.Unlock()
}

// AddCheck registers (or replaces) the check called name.
func (c *CompositeHealthChecker) AddCheck(name string, check HealthCheckFunc) {
	c.mu.Lock()
	c.checks[name] = check
	c.mu.Unlock()
}

// SetJobSource makes every status list the jobs returned by fn.
func (c *CompositeHealthChecker) SetJobSource(fn func() []JobStatus) {
	c.mu.Lock()
	c.jobs = fn
	c.mu.Unlock()
}

func (c *CompositeHealthChecker) Check(ctx context.Context) HealthStatus {
	c.mu.RLock()
	checks := make(map[string]HealthCheckFunc, len(c.checks))
	for k, v := range c.checks {
		checks[k] = v
	}
	timeout := c.timeout
	jobs := c.jobs
	c.mu.RUnlock()

	results := make(map[string]CheckResult, len(checks))
	var resMu sync.Mutex

	// Check errors are recorded, not propagated, so every check completes.
	var g errgroup.Group
	for name, check := range checks {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			err := check(pctx)
			r := CheckResult{Healthy: err == nil, Message: "OK", Duration: time.Since(start).Round(time.Millisecond).String()}
			if err != nil {
				r.Message = err.Error()
			}

			resMu.Lock()
			results[name] = r
			resMu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var failed []string
	for name, r := range results {
		if !r.Healthy {
			failed = append(failed, name)
		}
	}
	sort.Strings(failed)

	status := HealthStatus{
		Healthy:   len(failed) == 0,
		Ready:     len(failed) == 0,
		Storage:   c.storage,
		Checks:    results,
		Uptime:    time.Since(c.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
		Version:   c.version,
	}
	if jobs != nil {
		status.Jobs = jobs()
	}
	switch {
	case len(checks) == 0:
		status.Message = "No health checks registered"
	case len(failed) == 0:
		status.Message = "All checks passed"
	default:
		status.Message = "Some checks failed: " + strings.Join(failed, ", ")
	}
	return status
}

// Pinger is satisfied by the Postgres connection and the Redis client.
type Pinger interface {
	Ping(ctx context.Context) error
}

func NewPingCheck(p Pinger) HealthCheckFunc {
	return p.Ping
}
