package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/schoolhub/school-hub/internal/domain/shared"
	"github.com/schoolhub/school-hub/internal/domain/student"
	"github.com/schoolhub/school-hub/internal/domain/user"
	"github.com/schoolhub/school-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE STUDENT COMMAND
// Registers a student. A duplicate (rollNo, class, division) is not an error:
// the existing record is returned unchanged.
// ══════════════════════════════════════════════════════════════════════════════

// CreateStudentCommand contains the new student's data.
type CreateStudentCommand struct {
	Name      string
	RollNo    string
	ClassName string
	Division  string
	ParentID  string
	DOB       *time.Time
}

// CreateStudentResult is the stored student and whether it was just created.
type CreateStudentResult struct {
	Student *student.Student
	Created bool
}

// CreateStudentHandler handles student registration.
type CreateStudentHandler struct {
	students student.Repository
	users    user.Repository
	ids      IDGenerator
	clock    timeutil.Clock
}

// NewCreateStudentHandler creates a new handler.
func NewCreateStudentHandler(
	students student.Repository,
	users user.Repository,
	ids IDGenerator,
	clock timeutil.Clock,
) *CreateStudentHandler {
	if clock == nil {
		clock = timeutil.SystemClock{}
	}
	return &CreateStudentHandler{students: students, users: users, ids: ids, clock: clock}
}

// Handle creates the student and links it to the parent, if any.
func (h *CreateStudentHandler) Handle(ctx context.Context, cmd CreateStudentCommand) (*CreateStudentResult, error) {
	s, err := student.NewStudent(student.NewStudentParams{
		ID:        h.ids.GenerateID(),
		Name:      cmd.Name,
		RollNo:    cmd.RollNo,
		ClassName: cmd.ClassName,
		Division:  cmd.Division,
		ParentID:  cmd.ParentID,
		DOB:       cmd.DOB,
		Now:       h.clock.Now(),
	})
	if err != nil {
		return nil, err
	}

	existing, err := h.students.GetByNaturalKey(ctx, s.NaturalKey())
	switch {
	case err == nil:
		return &CreateStudentResult{Student: existing}, nil
	case !shared.IsNotFound(err):
		return nil, fmt.Errorf("create student: lookup: %w", err)
	}

	if s.ParentID != "" {
		parent, err := h.users.GetByID(ctx, s.ParentID)
		if err != nil {
			if shared.IsNotFound(err) {
				return nil, shared.Validation("command", "CreateStudent", "parentId does not reference a user")
			}
			return nil, fmt.Errorf("create student: load parent: %w", err)
		}
		if parent.Role != user.RoleParent {
			return nil, shared.Validation("command", "CreateStudent", "parentId must reference a parent account")
		}
	}

	if err := h.students.Create(ctx, s); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			// Lost a race with an identical create.
			existing, getErr := h.students.GetByNaturalKey(ctx, s.NaturalKey())
			if getErr != nil {
				return nil, fmt.Errorf("create student: reload: %w", getErr)
			}
			return &CreateStudentResult{Student: existing}, nil
		}
		return nil, fmt.Errorf("create student: %w", err)
	}

	if s.ParentID != "" {
		if err := h.users.LinkStudent(ctx, s.ParentID, s.ID); err != nil {
			return nil, fmt.Errorf("create student: link parent: %w", err)
		}
	}

	return &CreateStudentResult{Student: s, Created: true}, nil
}
