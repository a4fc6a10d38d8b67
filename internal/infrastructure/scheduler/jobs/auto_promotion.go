// Package jobs contains the scheduled jobs of the school hub.
package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/schoolhub/school-hub/internal/application/command"
	"github.com/schoolhub/school-hub/internal/domain/promotion"
	"github.com/schoolhub/school-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTO PROMOTION JOB
// ══════════════════════════════════════════════════════════════════════════════

// AutoPromoter runs the automatic promotion batch.
type AutoPromoter interface {
	Handle(ctx context.Context, cmd command.RunAutoPromotionCommand) (*promotion.Report, error)
}

// AutoPromotionJob runs automatic promotion for the current calendar year.
// Students already processed for the year are skipped by the batch itself,
// so running the job more than once a year is harmless.
type AutoPromotionJob struct {
	promoter AutoPromoter
	clock    timeutil.Clock
	logger   *slog.Logger
}

// NewAutoPromotionJob creates the job.
func NewAutoPromotionJob(promoter AutoPromoter, clock timeutil.Clock, logger *slog.Logger) *AutoPromotionJob {
	if clock == nil {
		clock = timeutil.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AutoPromotionJob{
		promoter: promoter,
		clock:    clock,
		logger:   logger.With("job", "auto_promotion"),
	}
}

// Name returns the job name.
func (j *AutoPromotionJob) Name() string {
	return "auto_promotion"
}

// Description returns the job description.
func (j *AutoPromotionJob) Description() string {
	return "Promotes students whose yearly percentage meets the pass threshold"
}

// Run executes one promotion batch. A batch already running elsewhere for
// the same year is not an error.
func (j *AutoPromotionJob) Run(ctx context.Context) error {
	year := timeutil.CurrentYear(j.clock)

	report, err := j.promoter.Handle(ctx, command.RunAutoPromotionCommand{Year: year})
	if err != nil {
		if command.IsPromotionInProgress(err) {
			j.logger.Warn("promotion batch already running, skipping", "year", year)
			return nil
		}
		return fmt.Errorf("auto promotion %d: %w", year, err)
	}

	j.logger.Info("promotion batch done",
		"year", year,
		"promoted", report.PromotedCount,
		"skipped", report.SkippedCount,
	)
	return nil
}
