package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/schoolhub/school-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST STUDENTS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// ListStudentsQuery содержит фильтры списка учеников.
type ListStudentsQuery struct {
	ClassName string
	Division  string

	// OnlyIDs ограничивает выборку (используется для родителей).
	// nil - без ограничения.
	OnlyIDs []string
}

// StudentDTO - представление ученика для API.
type StudentDTO struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	RollNo            string    `json:"rollNo"`
	ClassName         string    `json:"className"`
	Division          string    `json:"division"`
	ParentID          string    `json:"parentId,omitempty"`
	DOB               *string   `json:"dob,omitempty"`
	LastPromotionYear *int      `json:"lastPromotionYear"`
	CreatedAt         time.Time `json:"createdAt"`
}

// NewStudentDTO преобразует доменную сущность в DTO.
func NewStudentDTO(s *student.Student) StudentDTO {
	dto := StudentDTO{
		ID:                s.ID,
		Name:              s.Name,
		RollNo:            s.RollNo,
		ClassName:         s.ClassName.String(),
		Division:          s.Division.String(),
		ParentID:          s.ParentID,
		LastPromotionYear: s.LastPromotionYear,
		CreatedAt:         s.CreatedAt,
	}
	if s.DOB != nil {
		d := s.DOB.Format(time.DateOnly)
		dto.DOB = &d
	}
	return dto
}

// ListStudentsHandler обрабатывает запрос списка учеников.
type ListStudentsHandler struct {
	students student.Repository
}

// NewListStudentsHandler создаёт новый обработчик.
func NewListStudentsHandler(students student.Repository) *ListStudentsHandler {
	return &ListStudentsHandler{students: students}
}

// Handle выполняет запрос.
func (h *ListStudentsHandler) Handle(ctx context.Context, q ListStudentsQuery) ([]StudentDTO, error) {
	filter := student.ListFilter{
		ClassName: student.ClassName(strings.TrimSpace(q.ClassName)),
		Division:  student.NormalizeDivision(q.Division),
		IDs:       q.OnlyIDs,
	}

	list, err := h.students.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	out := make([]StudentDTO, 0, len(list))
	for _, s := range list {
		out = append(out, NewStudentDTO(s))
	}
	return out, nil
}
