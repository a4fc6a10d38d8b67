package command

import (
	"context"
	"fmt"

	"github.com/schoolhub/school-hub/internal/domain/result"
	"github.com/schoolhub/school-hub/internal/domain/student"
	"github.com/schoolhub/school-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT RESULT COMMAND
// Records marks for (student, subject, exam type, academic year).
// A repeated submission for the same key replaces the marks.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitResultCommand contains the graded entry.
type SubmitResultCommand struct {
	StudentID    string
	Subject      string
	ExamType     string
	AcademicYear int
	Marks        float64

	// TotalMarks defaults to 100 when nil.
	TotalMarks *float64
}

// IDGenerator generates unique identifiers for new entities.
type IDGenerator interface {
	GenerateID() string
}

// SubmitResultHandler handles result submission.
type SubmitResultHandler struct {
	students student.Repository
	results  result.Repository
	ids      IDGenerator
	clock    timeutil.Clock
}

// NewSubmitResultHandler creates a new handler.
func NewSubmitResultHandler(
	students student.Repository,
	results result.Repository,
	ids IDGenerator,
	clock timeutil.Clock,
) *SubmitResultHandler {
	if clock == nil {
		clock = timeutil.SystemClock{}
	}
	return &SubmitResultHandler{students: students, results: results, ids: ids, clock: clock}
}

// Handle validates and upserts the result.
func (h *SubmitResultHandler) Handle(ctx context.Context, cmd SubmitResultCommand) (*result.Result, error) {
	r, err := result.NewResult(result.NewResultParams{
		ID:           h.ids.GenerateID(),
		StudentID:    cmd.StudentID,
		Subject:      cmd.Subject,
		ExamType:     cmd.ExamType,
		AcademicYear: cmd.AcademicYear,
		Marks:        cmd.Marks,
		TotalMarks:   cmd.TotalMarks,
		Now:          h.clock.Now(),
	})
	if err != nil {
		return nil, err
	}

	if _, err := h.students.GetByID(ctx, r.StudentID); err != nil {
		return nil, err
	}

	saved, err := h.results.Upsert(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("submit result: %w", err)
	}
	return saved, nil
}
