// Package result содержит доменную модель оценок за экзамены.
// Запись однозначно определяется ключом (ученик, предмет, тип экзамена, учебный год).
package result

import (
	"context"
	"strings"
	"time"

	"github.com/schoolhub/school-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// ExamType - тип экзамена.
type ExamType string

const (
	ExamClassTest ExamType = "class test"
	ExamInternal  ExamType = "internal"
	ExamExternal  ExamType = "external"
	ExamPractical ExamType = "practical"
)

// ExamTypes - все допустимые типы экзаменов.
var ExamTypes = []ExamType{ExamClassTest, ExamInternal, ExamExternal, ExamPractical}

// DefaultTotalMarks - максимальный балл по умолчанию.
const DefaultTotalMarks = 100.0

// ParseExamType нормализует и проверяет тип экзамена.
func ParseExamType(raw string) (ExamType, error) {
	t := ExamType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.IsValid() {
		return "", shared.ErrInvalidExamType
	}
	return t, nil
}

// ParseExamFilter разбирает необязательный фильтр по типу экзамена.
// "" и "all" означают отсутствие фильтра.
func ParseExamFilter(raw string) (ExamType, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, shared.FilterAll) {
		return "", false, nil
	}
	t, err := ParseExamType(raw)
	if err != nil {
		return "", false, err
	}
	return t, true, nil
}

// IsValid проверяет, что тип экзамена входит в список допустимых.
func (t ExamType) IsValid() bool {
	for _, v := range ExamTypes {
		if t == v {
			return true
		}
	}
	return false
}

// String возвращает строковое представление.
func (t ExamType) String() string {
	return string(t)
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: RESULT
// ══════════════════════════════════════════════════════════════════════════════

// Result - оценка ученика по предмету за экзамен.
type Result struct {
	ID           string
	StudentID    string
	Subject      string
	ExamType     ExamType
	AcademicYear shared.AcademicYear
	Marks        float64
	TotalMarks   float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Key - уникальный ключ записи.
type Key struct {
	StudentID    string
	Subject      string
	ExamType     ExamType
	AcademicYear shared.AcademicYear
}

// Key возвращает уникальный ключ записи.
func (r *Result) Key() Key {
	return Key{
		StudentID:    r.StudentID,
		Subject:      r.Subject,
		ExamType:     r.ExamType,
		AcademicYear: r.AcademicYear,
	}
}

// Percentage возвращает процент за эту запись.
func (r *Result) Percentage() float64 {
	return shared.Percentage(r.Marks, r.TotalMarks)
}

// NewResultParams содержит параметры для создания оценки.
type NewResultParams struct {
	ID           string
	StudentID    string
	Subject      string
	ExamType     string
	AcademicYear int
	Marks        float64
	// TotalMarks - nil означает DefaultTotalMarks.
	TotalMarks *float64
	Now        time.Time
}

// NewResult создаёт оценку с валидацией всех полей.
func NewResult(p NewResultParams) (*Result, error) {
	if strings.TrimSpace(p.StudentID) == "" {
		return nil, shared.Validation("result", "Submit", "studentId is required")
	}

	subject := strings.TrimSpace(p.Subject)
	if subject == "" {
		return nil, shared.Validation("result", "Submit", "subject is required")
	}

	examType, err := ParseExamType(p.ExamType)
	if err != nil {
		return nil, err
	}

	year := shared.AcademicYear(p.AcademicYear)
	if !year.IsValid() {
		return nil, shared.ErrInvalidYear
	}

	total := DefaultTotalMarks
	if p.TotalMarks != nil {
		total = *p.TotalMarks
	}
	if total <= 0 {
		return nil, shared.ErrInvalidTotal
	}
	if p.Marks < 0 || p.Marks > total {
		return nil, shared.ErrInvalidMarks
	}

	now := p.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	return &Result{
		ID:           p.ID,
		StudentID:    strings.TrimSpace(p.StudentID),
		Subject:      subject,
		ExamType:     examType,
		AcademicYear: year,
		Marks:        p.Marks,
		TotalMarks:   total,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// Filter ограничивает выборку оценок. Нулевые значения не фильтруют.
type Filter struct {
	ExamType     ExamType
	AcademicYear shared.AcademicYear
}

// Matches проверяет, подходит ли запись под фильтр.
func (f Filter) Matches(r *Result) bool {
	if f.ExamType != "" && r.ExamType != f.ExamType {
		return false
	}
	if f.AcademicYear != 0 && r.AcademicYear != f.AcademicYear {
		return false
	}
	return true
}

// Repository определяет операции хранилища оценок.
type Repository interface {
	// Upsert вставляет запись или заменяет marks/totalMarks у существующей
	// записи с тем же ключом. Операция атомарна по ключу.
	// Возвращает сохранённое состояние (ID и CreatedAt существующей записи).
	Upsert(ctx context.Context, r *Result) (*Result, error)

	// ListByStudent возвращает все оценки ученика
	// (учебный год по убыванию, затем предмет, затем тип экзамена).
	ListByStudent(ctx context.Context, studentID string) ([]*Result, error)

	// ListByStudentYear возвращает оценки ученика за учебный год.
	ListByStudentYear(ctx context.Context, studentID string, year shared.AcademicYear) ([]*Result, error)

	// ListForStudents возвращает оценки указанных учеников по фильтру.
	ListForStudents(ctx context.Context, studentIDs []string, filter Filter) ([]*Result, error)
}
