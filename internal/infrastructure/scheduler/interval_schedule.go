package scheduler

import (
	"fmt"
	"time"
)

// IntervalSchedule schedules a job to run at a fixed interval.
type IntervalSchedule struct {
	Interval   time.Duration
	RunAtStart bool
}

// NewIntervalSchedule creates a new IntervalSchedule.
func NewIntervalSchedule(interval time.Duration, runAtStart bool) *IntervalSchedule {
	return &IntervalSchedule{
		Interval:   interval,
		RunAtStart: runAtStart,
	}
}

// Next returns the next scheduled time.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// RunsAtStart reports whether the job should run when the scheduler starts.
func (s *IntervalSchedule) RunsAtStart() bool {
	return s.RunAtStart
}

// String returns the string representation of the schedule.
func (s *IntervalSchedule) String() string {
	if s.RunAtStart {
		return fmt.Sprintf("@every %s (at start)", s.Interval)
	}
	return fmt.Sprintf("@every %s", s.Interval)
}
