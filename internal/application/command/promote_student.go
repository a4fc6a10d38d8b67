package command

import (
	"context"
	"strings"

	"github.com/schoolhub/school-hub/internal/domain/promotion"
	"github.com/schoolhub/school-hub/internal/domain/shared"
	"github.com/schoolhub/school-hub/internal/domain/student"
	"github.com/schoolhub/school-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROMOTE STUDENT COMMAND
// Administrative override: moves one student up one class without a
// performance check.
// ══════════════════════════════════════════════════════════════════════════════

// PromoteStudentCommand contains the student and an optional year.
type PromoteStudentCommand struct {
	StudentID string

	// Year defaults to the current calendar year when nil.
	Year *int
}

// Validate validates the command.
func (c PromoteStudentCommand) Validate() error {
	if strings.TrimSpace(c.StudentID) == "" {
		return shared.Validation("command", "PromoteStudent", "studentId is required")
	}
	if c.Year != nil && !shared.AcademicYear(*c.Year).IsValid() {
		return shared.ErrInvalidYear
	}
	return nil
}

// PromoteStudentHandler handles manual promotion.
type PromoteStudentHandler struct {
	students student.Repository
	clock    timeutil.Clock
}

// NewPromoteStudentHandler creates a new handler.
func NewPromoteStudentHandler(students student.Repository, clock timeutil.Clock) *PromoteStudentHandler {
	if clock == nil {
		clock = timeutil.SystemClock{}
	}
	return &PromoteStudentHandler{students: students, clock: clock}
}

// Handle promotes the student.
// Returns ErrStudentNotFound, ErrNoNextClass for class 12 and
// ErrStudentClassChanged if the class was modified concurrently.
func (h *PromoteStudentHandler) Handle(ctx context.Context, cmd PromoteStudentCommand) (*promotion.Manual, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	s, err := h.students.GetByID(ctx, cmd.StudentID)
	if err != nil {
		return nil, err
	}

	next, err := s.NextClass()
	if err != nil {
		return nil, err
	}

	year := timeutil.CurrentYear(h.clock)
	if cmd.Year != nil {
		year = *cmd.Year
	}

	if err := h.students.Promote(ctx, student.PromoteParams{
		StudentID: s.ID,
		From:      s.ClassName,
		To:        next,
		Year:      year,
	}); err != nil {
		return nil, err
	}

	return &promotion.Manual{
		StudentID: s.ID,
		Name:      s.Name,
		FromClass: s.ClassName.String(),
		ToClass:   next.String(),
		Year:      year,
	}, nil
}
