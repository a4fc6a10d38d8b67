package query

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolhub/school-hub/internal/domain/leaderboard"
	"github.com/schoolhub/school-hub/internal/domain/result"
	"github.com/schoolhub/school-hub/internal/domain/shared"
	"github.com/schoolhub/school-hub/internal/domain/student"
	"github.com/schoolhub/school-hub/internal/infrastructure/persistence/memory"
)

type env struct {
	students *memory.StudentRepository
	results  *memory.ResultRepository
}

func newEnv() *env {
	db := memory.NewDB()
	return &env{students: memory.NewStudentRepository(db), results: memory.NewResultRepository(db)}
}

func (e *env) student(t *testing.T, id, class, div string) {
	t.Helper()
	s, err := student.NewStudent(student.NewStudentParams{ID: id, Name: "Student " + id, RollNo: id, ClassName: class, Division: div})
	require.NoError(t, err)
	require.NoError(t, e.students.Create(context.Background(), s))
}

func (e *env) result(t *testing.T, id, subject string, exam result.ExamType, year int, marks, total float64) {
	t.Helper()
	_, err := e.results.Upsert(context.Background(), &result.Result{
		StudentID: id, Subject: subject, ExamType: exam, AcademicYear: shared.AcademicYear(year), Marks: marks, TotalMarks: total,
	})
	require.NoError(t, err)
}

func TestGetPerformance(t *testing.T) {
	e := newEnv()
	e.result(t, "S1", "Maths", result.ExamClassTest, 2024, 80, 100)
	e.result(t, "S1", "Maths", result.ExamInternal, 2024, 70, 100)
	e.result(t, "S1", "Maths", result.ExamInternal, 2023, 0, 100)

	h := NewGetPerformanceHandler(e.results)
	p, err := h.Handle(context.Background(), GetPerformanceQuery{StudentID: "S1", Year: 2024})
	require.NoError(t, err)
	assert.True(t, p.HasResults)
	assert.Equal(t, 150.0, p.Obtained)
	assert.Equal(t, 200.0, p.Total)
	assert.Equal(t, 75.0, p.Percentage)
	assert.True(t, p.Passed)

	_, err = h.Handle(context.Background(), GetPerformanceQuery{StudentID: "S1", Year: 12})
	assert.ErrorIs(t, err, shared.ErrInvalidYear)
}

func TestGetClassLeaderboard_WorkedExample(t *testing.T) {
	e := newEnv()
	e.student(t, "S1", "5", "A")
	e.student(t, "S2", "5", "A")
	e.student(t, "other", "5", "B")
	e.result(t, "S1", "Maths", result.ExamClassTest, 2024, 80, 100)
	e.result(t, "S1", "Maths", result.ExamInternal, 2024, 70, 100)
	e.result(t, "other", "Maths", result.ExamInternal, 2024, 100, 100)

	h := NewGetClassLeaderboardHandler(e.students, e.results)
	p, err := h.Handle(context.Background(), GetClassLeaderboardQuery{StudentID: "S1", ExamType: "all", AcademicYear: "2024"})
	require.NoError(t, err)

	assert.Equal(t, "5", p.ClassName)
	assert.Equal(t, "A", p.Division)
	assert.Equal(t, "all", p.ExamType)
	assert.Equal(t, "2024", p.AcademicYear)

	require.Len(t, p.Leaderboard, 2)
	assert.Equal(t, "S1", p.Leaderboard[0].StudentID)
	assert.Equal(t, 75.0, p.Leaderboard[0].Percentage)
	assert.Equal(t, "S2", p.Leaderboard[1].StudentID)
	assert.Equal(t, 0.0, p.Leaderboard[1].Percentage)

	require.Len(t, p.Top3, 2)
	assert.Equal(t, "S1", p.Top3[0].StudentID)
	require.NotNil(t, p.MyRank)
	assert.Equal(t, "S1", p.MyRank.StudentID)
	assert.Equal(t, leaderboard.Rank(1), p.MyRank.Rank)
}

func TestGetClassLeaderboard_RanksAllCohortMembers(t *testing.T) {
	e := newEnv()
	const n = 7
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("s%d", i)
		e.student(t, id, "9", "C")
		if i%3 != 0 {
			e.result(t, id, "Physics", result.ExamExternal, 2024, float64(10*i), 100)
			e.result(t, id, "Physics", result.ExamPractical, 2024, float64(5*i), 50)
		}
	}

	h := NewGetClassLeaderboardHandler(e.students, e.results)
	p, err := h.Handle(context.Background(), GetClassLeaderboardQuery{StudentID: "s3"})
	require.NoError(t, err)

	require.Len(t, p.Leaderboard, n)
	assert.Len(t, p.Top3, 3)
	for i, row := range p.Leaderboard {
		assert.Equal(t, leaderboard.Rank(i+1), row.Rank)
		if i > 0 {
			assert.LessOrEqual(t, row.Percentage, p.Leaderboard[i-1].Percentage)
		}
	}
	assert.Equal(t, "s3", p.MyRank.StudentID)
	assert.Equal(t, "all", p.ExamType)
	assert.Equal(t, "all", p.AcademicYear)

	again, err := h.Handle(context.Background(), GetClassLeaderboardQuery{StudentID: "s3"})
	require.NoError(t, err)
	assert.Equal(t, p, again)
}

func TestGetClassLeaderboard_ExamTypeFilter(t *testing.T) {
	e := newEnv()
	e.student(t, "a", "2", "A")
	e.student(t, "b", "2", "A")
	e.result(t, "a", "Art", result.ExamInternal, 2024, 90, 100)
	e.result(t, "b", "Art", result.ExamPractical, 2024, 95, 100)
	e.result(t, "a", "Art", result.ExamPractical, 2024, 10, 100)

	h := NewGetClassLeaderboardHandler(e.students, e.results)
	p, err := h.Handle(context.Background(), GetClassLeaderboardQuery{StudentID: "a", ExamType: "practical"})
	require.NoError(t, err)

	assert.Equal(t, "practical", p.ExamType)
	assert.Equal(t, "b", p.Leaderboard[0].StudentID)
	assert.Equal(t, leaderboard.Rank(2), p.MyRank.Rank)
	assert.Equal(t, 10.0, p.MyRank.Obtained)
}

func TestGetClassLeaderboard_Errors(t *testing.T) {
	e := newEnv()
	e.student(t, "a", "2", "A")
	h := NewGetClassLeaderboardHandler(e.students, e.results)

	_, err := h.Handle(context.Background(), GetClassLeaderboardQuery{StudentID: "ghost"})
	assert.True(t, shared.IsNotFound(err))

	_, err = h.Handle(context.Background(), GetClassLeaderboardQuery{StudentID: "a", ExamType: "quiz"})
	assert.True(t, shared.IsValidation(err))

	_, err = h.Handle(context.Background(), GetClassLeaderboardQuery{StudentID: "a", AcademicYear: "twenty"})
	assert.True(t, shared.IsValidation(err))
}

func TestListResultsAndStudents(t *testing.T) {
	e := newEnv()
	e.student(t, "a", "2", "A")
	e.student(t, "b", "3", "A")
	e.result(t, "a", "Maths", result.ExamInternal, 2023, 50, 100)
	e.result(t, "a", "Art", result.ExamInternal, 2024, 60, 100)

	out, err := NewListResultsHandler(e.students, e.results).Handle(context.Background(), ListResultsQuery{StudentID: "a"})
	require.NoError(t, err)
	assert.Equal(t, "a", out.Student.ID)
	require.Len(t, out.Results, 2)
	assert.Equal(t, 2024, out.Results[0].AcademicYear)
	assert.Equal(t, 60.0, out.Results[0].Percentage)

	_, err = NewListResultsHandler(e.students, e.results).Handle(context.Background(), ListResultsQuery{StudentID: "ghost"})
	assert.True(t, shared.IsNotFound(err))

	list := NewListStudentsHandler(e.students)
	all, err := list.Handle(context.Background(), ListStudentsQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byClass, err := list.Handle(context.Background(), ListStudentsQuery{ClassName: "3", Division: "a"})
	require.NoError(t, err)
	require.Len(t, byClass, 1)
	assert.Equal(t, "b", byClass[0].ID)

	none, err := list.Handle(context.Background(), ListStudentsQuery{OnlyIDs: []string{}})
	require.NoError(t, err)
	assert.Empty(t, none)
}
