package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/schoolhub/school-hub/internal/domain/result"
	"github.com/schoolhub/school-hub/internal/domain/shared"
	"github.com/schoolhub/school-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST STUDENT RESULTS QUERY
// Все оценки ученика: для учителей и для родителя привязанного ученика.
// ══════════════════════════════════════════════════════════════════════════════

// ListResultsQuery содержит параметры запроса.
type ListResultsQuery struct {
	StudentID string
}

// ResultDTO - представление оценки для API.
type ResultDTO struct {
	ID           string    `json:"id"`
	StudentID    string    `json:"studentId"`
	Subject      string    `json:"subject"`
	ExamType     string    `json:"examType"`
	AcademicYear int       `json:"academicYear"`
	Marks        float64   `json:"marks"`
	TotalMarks   float64   `json:"totalMarks"`
	Percentage   float64   `json:"percentage"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewResultDTO преобразует доменную сущность в DTO.
func NewResultDTO(r *result.Result) ResultDTO {
	return ResultDTO{
		ID:           r.ID,
		StudentID:    r.StudentID,
		Subject:      r.Subject,
		ExamType:     r.ExamType.String(),
		AcademicYear: r.AcademicYear.Int(),
		Marks:        r.Marks,
		TotalMarks:   r.TotalMarks,
		Percentage:   r.Percentage(),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// StudentResults - оценки ученика вместе с его данными.
type StudentResults struct {
	Student StudentDTO  `json:"student"`
	Results []ResultDTO `json:"results"`
}

// ListResultsHandler обрабатывает запрос оценок ученика.
type ListResultsHandler struct {
	students student.Repository
	results  result.Repository
}

// NewListResultsHandler создаёт новый обработчик.
func NewListResultsHandler(students student.Repository, results result.Repository) *ListResultsHandler {
	return &ListResultsHandler{students: students, results: results}
}

// Handle выполняет запрос. Возвращает ErrStudentNotFound для неизвестного ученика.
func (h *ListResultsHandler) Handle(ctx context.Context, q ListResultsQuery) (*StudentResults, error) {
	if strings.TrimSpace(q.StudentID) == "" {
		return nil, shared.Validation("query", "ListResults", "studentId is required")
	}

	s, err := h.students.GetByID(ctx, q.StudentID)
	if err != nil {
		return nil, err
	}

	rows, err := h.results.ListByStudent(ctx, s.ID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	out := &StudentResults{
		Student: NewStudentDTO(s),
		Results: make([]ResultDTO, 0, len(rows)),
	}
	for _, r := range rows {
		out.Results = append(out.Results, NewResultDTO(r))
	}
	return out, nil
}
