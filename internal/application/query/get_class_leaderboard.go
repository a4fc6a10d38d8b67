package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/schoolhub/school-hub/internal/domain/leaderboard"
	"github.com/schoolhub/school-hub/internal/domain/result"
	"github.com/schoolhub/school-hub/internal/domain/shared"
	"github.com/schoolhub/school-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET CLASS LEADERBOARD QUERY
// Строит рейтинг класса и параллели ученика по проценту набранных баллов.
// Рейтинг пересчитывается полностью на каждый запрос.
// ══════════════════════════════════════════════════════════════════════════════

// GetClassLeaderboardQuery содержит параметры запроса рейтинга.
type GetClassLeaderboardQuery struct {
	// StudentID - ученик, для которого строится рейтинг его класса.
	StudentID string

	// ExamType - тип экзамена или "all"/"" для всех типов.
	ExamType string

	// AcademicYear - учебный год или "all"/"" для всех лет.
	AcademicYear string
}

// parsed - разобранные фильтры запроса.
type parsedLeaderboardQuery struct {
	filter   result.Filter
	examEcho string
	yearEcho string
}

func (q GetClassLeaderboardQuery) parse() (parsedLeaderboardQuery, error) {
	var p parsedLeaderboardQuery

	if strings.TrimSpace(q.StudentID) == "" {
		return p, shared.Validation("query", "GetClassLeaderboard", "studentId is required")
	}

	examType, hasExam, err := result.ParseExamFilter(q.ExamType)
	if err != nil {
		return p, err
	}
	year, hasYear, err := shared.ParseYearFilter(q.AcademicYear)
	if err != nil {
		return p, err
	}

	p.examEcho = shared.FilterAll
	if hasExam {
		p.filter.ExamType = examType
		p.examEcho = examType.String()
	}
	p.yearEcho = shared.FilterAll
	if hasYear {
		p.filter.AcademicYear = year
		p.yearEcho = year.String()
	}
	return p, nil
}

// GetClassLeaderboardHandler обрабатывает запросы рейтинга класса.
type GetClassLeaderboardHandler struct {
	students student.Repository
	results  result.Repository
}

// NewGetClassLeaderboardHandler создаёт новый обработчик.
func NewGetClassLeaderboardHandler(students student.Repository, results result.Repository) *GetClassLeaderboardHandler {
	return &GetClassLeaderboardHandler{students: students, results: results}
}

// Handle выполняет запрос рейтинга.
func (h *GetClassLeaderboardHandler) Handle(ctx context.Context, q GetClassLeaderboardQuery) (*leaderboard.Payload, error) {
	parsed, err := q.parse()
	if err != nil {
		return nil, err
	}

	// 1. Класс и параллель ученика
	me, err := h.students.GetByID(ctx, q.StudentID)
	if err != nil {
		return nil, err
	}

	// 2. Все ученики того же класса и параллели
	cohort, err := h.students.List(ctx, student.Cohort(me.ClassName, me.Division))
	if err != nil {
		return nil, fmt.Errorf("get class leaderboard: list cohort: %w", err)
	}

	ranking := leaderboard.NewRanking()
	ids := make([]string, 0, len(cohort))
	for i, s := range cohort {
		ranking.Add(leaderboard.NewRow(s.ID, s.Name, s.RollNo, i))
		ids = append(ids, s.ID)
	}

	// 3. Оценки учеников по фильтрам
	rows, err := h.results.ListForStudents(ctx, ids, parsed.filter)
	if err != nil {
		return nil, fmt.Errorf("get class leaderboard: list results: %w", err)
	}

	// 4. Суммы по ученикам
	for _, r := range rows {
		if row := ranking.Get(r.StudentID); row != nil {
			row.Add(r.Marks, r.TotalMarks)
		}
	}

	// 5. Сортировка и места
	ranking.Rank()

	return &leaderboard.Payload{
		ClassName:    me.ClassName.String(),
		Division:     me.Division.String(),
		ExamType:     parsed.examEcho,
		AcademicYear: parsed.yearEcho,
		Top3:         ranking.Top(leaderboard.TopSize),
		MyRank:       ranking.Get(me.ID),
		Leaderboard:  ranking.All(),
	}, nil
}
