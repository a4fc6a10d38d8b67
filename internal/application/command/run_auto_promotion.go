// Package command contains write operations (CQRS - Commands).
// Commands are responsible for changing the state of the system.
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/schoolhub/school-hub/internal/domain/performance"
	"github.com/schoolhub/school-hub/internal/domain/promotion"
	"github.com/schoolhub/school-hub/internal/domain/shared"
	"github.com/schoolhub/school-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// RUN AUTOMATIC PROMOTION COMMAND
// Moves every student not yet processed for the year to the next class when
// their aggregate percentage meets the pass threshold.
// Each student is promoted with a single conditional update, so concurrent or
// repeated runs for the same year never promote a student twice.
// Higher classes are processed first so that seats they vacate are free
// before lower classes move up. A student whose roll number is still held in
// the next class and division is skipped, keeping the natural key unique.
// ══════════════════════════════════════════════════════════════════════════════

// RunAutoPromotionCommand contains the academic year to process.
type RunAutoPromotionCommand struct {
	Year int
}

// Validate validates the command.
func (c RunAutoPromotionCommand) Validate() error {
	if !shared.AcademicYear(c.Year).IsValid() {
		return shared.ErrInvalidYear
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES (Interfaces)
// ══════════════════════════════════════════════════════════════════════════════

// PerformanceAggregator computes a student's performance for a year.
type PerformanceAggregator interface {
	Aggregate(ctx context.Context, studentID string, year int) (performance.Performance, error)
}

// ReleaseFunc releases a batch lock. It is safe to call once.
type ReleaseFunc func(ctx context.Context) error

// BatchLocker serializes batch runs across processes.
type BatchLocker interface {
	// Acquire takes the named lock. It returns shared.ErrPromotionInProgress
	// when the lock is already held.
	Acquire(ctx context.Context, key string) (ReleaseFunc, error)
}

// PromotionLockKey returns the lock name for a year's batch.
func PromotionLockKey(year int) string {
	return "promotion:" + strconv.Itoa(year)
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RunAutoPromotionHandler handles the automatic promotion batch.
type RunAutoPromotionHandler struct {
	students   student.Repository
	aggregator PerformanceAggregator
	locker     BatchLocker
	logger     *slog.Logger
}

// NewRunAutoPromotionHandler creates a new handler.
// locker may be nil, in which case runs are not serialized.
func NewRunAutoPromotionHandler(
	students student.Repository,
	aggregator PerformanceAggregator,
	locker BatchLocker,
	logger *slog.Logger,
) *RunAutoPromotionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunAutoPromotionHandler{
		students:   students,
		aggregator: aggregator,
		locker:     locker,
		logger:     logger.With("component", "auto_promotion"),
	}
}

// Handle runs the batch and returns an itemized report.
func (h *RunAutoPromotionHandler) Handle(ctx context.Context, cmd RunAutoPromotionCommand) (*promotion.Report, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	if h.locker != nil {
		release, err := h.locker.Acquire(ctx, PromotionLockKey(cmd.Year))
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				h.logger.Warn("failed to release promotion lock", "year", cmd.Year, "error", err)
			}
		}()
	}

	start := time.Now()

	pending, err := h.students.ListPendingPromotion(ctx, cmd.Year)
	if err != nil {
		return nil, fmt.Errorf("run auto promotion: list pending: %w", err)
	}

	sortHighestClassFirst(pending)

	report := promotion.NewReport(cmd.Year)
	for _, s := range pending {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run auto promotion: %w", err)
		}
		h.processStudent(ctx, cmd.Year, s, report)
	}

	h.logger.Info("automatic promotion finished",
		"year", cmd.Year,
		"candidates", len(pending),
		"promoted", report.PromotedCount,
		"skipped", report.SkippedCount,
		"duration", time.Since(start),
	)

	return report, nil
}

// processStudent evaluates one student and records the outcome in report.
func (h *RunAutoPromotionHandler) processStudent(ctx context.Context, year int, s *student.Student, report *promotion.Report) {
	skip := func(reason string) {
		report.AddSkipped(promotion.Skipped{
			StudentID: s.ID,
			Name:      s.Name,
			FromClass: s.ClassName.String(),
			Reason:    reason,
		})
	}

	next, ok := s.ClassName.Next()
	if !ok {
		skip(promotion.ReasonNoNextClass)
		return
	}

	perf, err := h.aggregator.Aggregate(ctx, s.ID, year)
	if err != nil {
		h.logger.Error("failed to aggregate performance", "student_id", s.ID, "year", year, "error", err)
		skip(err.Error())
		return
	}

	switch {
	case !perf.HasResults:
		skip(promotion.ReasonNoResults)
		return
	case !perf.Passed:
		skip(promotion.ReasonBelowThreshold(perf.Percentage))
		return
	}

	updated, err := h.students.PromoteIfPending(ctx, student.PromoteParams{
		StudentID: s.ID,
		From:      s.ClassName,
		To:        next,
		Year:      year,
	})
	if errors.Is(err, student.ErrRollNumberTaken) {
		h.logger.Warn("next class seat occupied",
			"student_id", s.ID,
			"roll_no", s.RollNo,
			"to_class", next.String(),
			"division", string(s.Division),
		)
		skip(promotion.ReasonRollNumberTaken)
		return
	}
	if err != nil {
		h.logger.Error("failed to promote student", "student_id", s.ID, "year", year, "error", err)
		skip(err.Error())
		return
	}
	if !updated {
		skip(promotion.ReasonAlreadyProcessed)
		return
	}

	report.AddPromoted(promotion.Promoted{
		StudentID:  s.ID,
		Name:       s.Name,
		FromClass:  s.ClassName.String(),
		ToClass:    next.String(),
		Percentage: perf.Percentage,
	})
}

// sortHighestClassFirst orders by class number descending, keeping
// registration order within a class. Non-numeric classes go last.
func sortHighestClassFirst(students []*student.Student) {
	sort.SliceStable(students, func(i, j int) bool {
		a, aok := students[i].ClassName.Number()
		b, bok := students[j].ClassName.Number()
		if aok != bok {
			return aok
		}
		return a > b
	})
}

// IsPromotionInProgress reports whether err means another batch holds the lock.
func IsPromotionInProgress(err error) bool {
	return errors.Is(err, shared.ErrPromotionInProgress)
}
