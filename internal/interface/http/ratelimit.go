package http

import (
	"sync"
	"time"

	"github.com/schoolhub/school-hub/pkg/timeutil"
)

// rateLimiter is a fixed-window counter per client key. Windows are aligned
// to the clock, and stale keys are swept once per window.
type rateLimiter struct {
	clock  timeutil.Clock
	limit  int
	window time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket

	stop chan struct{}
	once sync.Once
}

type bucket struct {
	start time.Time
	count int
}

func newRateLimiter(clock timeutil.Clock, limit int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		clock:   clock,
		limit:   limit,
		window:  window,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Allow consumes one request for key. When the budget is spent it returns
// false and the time left until the window resets.
func (rl *rateLimiter) Allow(key string) (bool, time.Duration) {
	now := rl.clock.Now()
	start := now.Truncate(rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok || !b.start.Equal(start) {
		b = &bucket{start: start}
		rl.buckets[key] = b
	}
	if b.count >= rl.limit {
		return false, start.Add(rl.window).Sub(now)
	}
	b.count++
	return true, 0
}

func (rl *rateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *rateLimiter) sweep() {
	ticker := rl.clock.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C():
			current := rl.clock.Now().Truncate(rl.window)
			rl.mu.Lock()
			for key, b := range rl.buckets {
				if b.start.Before(current) {
					delete(rl.buckets, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}
