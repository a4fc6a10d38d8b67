// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/schoolhub/school-hub/internal/domain/performance"
	"github.com/schoolhub/school-hub/internal/domain/result"
	"github.com/schoolhub/school-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PERFORMANCE QUERY
// Считает успеваемость ученика за учебный год.
// Оценки отбираются по полю academicYear, а не по времени создания записи.
// ══════════════════════════════════════════════════════════════════════════════

// GetPerformanceQuery содержит параметры запроса успеваемости.
type GetPerformanceQuery struct {
	StudentID string
	Year      int
}

// Validate проверяет корректность параметров запроса.
func (q GetPerformanceQuery) Validate() error {
	if strings.TrimSpace(q.StudentID) == "" {
		return shared.Validation("query", "GetPerformance", "studentId is required")
	}
	if !shared.AcademicYear(q.Year).IsValid() {
		return shared.ErrInvalidYear
	}
	return nil
}

// GetPerformanceHandler обрабатывает запросы успеваемости.
type GetPerformanceHandler struct {
	results result.Repository
}

// NewGetPerformanceHandler создаёт новый обработчик.
func NewGetPerformanceHandler(results result.Repository) *GetPerformanceHandler {
	return &GetPerformanceHandler{results: results}
}

// Handle выполняет запрос.
func (h *GetPerformanceHandler) Handle(ctx context.Context, q GetPerformanceQuery) (performance.Performance, error) {
	if err := q.Validate(); err != nil {
		return performance.Performance{}, err
	}

	rows, err := h.results.ListByStudentYear(ctx, q.StudentID, shared.AcademicYear(q.Year))
	if err != nil {
		return performance.Performance{}, fmt.Errorf("get performance: load results: %w", err)
	}

	return performance.Summarize(rows), nil
}

// Aggregate - короткая форма Handle для движка перевода.
func (h *GetPerformanceHandler) Aggregate(ctx context.Context, studentID string, year int) (performance.Performance, error) {
	return h.Handle(ctx, GetPerformanceQuery{StudentID: studentID, Year: year})
}
