package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolhub/school-hub/internal/domain/result"
	"github.com/schoolhub/school-hub/internal/domain/shared"
	"github.com/schoolhub/school-hub/internal/domain/student"
	"github.com/schoolhub/school-hub/internal/domain/user"
)

func newStudent(t *testing.T, id, roll, class, div string) *student.Student {
	t.Helper()
	s, err := student.NewStudent(student.NewStudentParams{ID: id, Name: "Student " + id, RollNo: roll, ClassName: class, Division: div})
	require.NoError(t, err)
	return s
}

func TestStudentRepository_CreateAndNaturalKey(t *testing.T) {
	ctx := context.Background()
	repo := NewStudentRepository(NewDB())

	require.NoError(t, repo.Create(ctx, newStudent(t, "s1", "1", "5", "A")))
	err := repo.Create(ctx, newStudent(t, "s2", "1", "5", "A"))
	assert.True(t, shared.IsAlreadyExists(err))

	got, err := repo.GetByNaturalKey(ctx, student.NaturalKey{RollNo: "1", ClassName: "5", Division: "A"})
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)

	_, err = repo.GetByID(ctx, "missing")
	assert.True(t, shared.IsNotFound(err))
}

func TestStudentRepository_PromoteIfPending_Concurrent(t *testing.T) {
	ctx := context.Background()
	repo := NewStudentRepository(NewDB())
	require.NoError(t, repo.Create(ctx, newStudent(t, "s1", "1", "5", "A")))

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.PromoteIfPending(ctx, student.PromoteParams{StudentID: "s1", From: "5", To: "6", Year: 2024})
			assert.NoError(t, err)
			if ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
	got, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, student.ClassName("6"), got.ClassName)
	require.NotNil(t, got.LastPromotionYear)
	assert.Equal(t, 2024, *got.LastPromotionYear)

	pending, err := repo.ListPendingPromotion(ctx, 2024)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestStudentRepository_PromoteDetectsClassChange(t *testing.T) {
	ctx := context.Background()
	repo := NewStudentRepository(NewDB())
	require.NoError(t, repo.Create(ctx, newStudent(t, "s1", "1", "5", "A")))

	err := repo.Promote(ctx, student.PromoteParams{StudentID: "s1", From: "4", To: "5", Year: 2024})
	assert.True(t, shared.IsConflict(err))

	err = repo.Promote(ctx, student.PromoteParams{StudentID: "nope", From: "4", To: "5", Year: 2024})
	assert.True(t, shared.IsNotFound(err))
}

func TestResultRepository_UpsertKeepsOneRecord(t *testing.T) {
	ctx := context.Background()
	repo := NewResultRepository(NewDB())

	first := &result.Result{ID: "r1", StudentID: "s1", Subject: "Maths", ExamType: result.ExamInternal, AcademicYear: 2024, Marks: 50, TotalMarks: 100}
	second := &result.Result{ID: "r2", StudentID: "s1", Subject: "Maths", ExamType: result.ExamInternal, AcademicYear: 2024, Marks: 72, TotalMarks: 80}

	_, err := repo.Upsert(ctx, first)
	require.NoError(t, err)
	saved, err := repo.Upsert(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "r1", saved.ID)

	all, err := repo.ListByStudent(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 72.0, all[0].Marks)
	assert.Equal(t, 80.0, all[0].TotalMarks)
}

func TestResultRepository_ListForStudentsFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewResultRepository(NewDB())

	rows := []*result.Result{
		{StudentID: "a", Subject: "Maths", ExamType: result.ExamInternal, AcademicYear: 2024, Marks: 1, TotalMarks: 10},
		{StudentID: "a", Subject: "Maths", ExamType: result.ExamExternal, AcademicYear: 2024, Marks: 2, TotalMarks: 10},
		{StudentID: "b", Subject: "Maths", ExamType: result.ExamInternal, AcademicYear: 2023, Marks: 3, TotalMarks: 10},
		{StudentID: "c", Subject: "Maths", ExamType: result.ExamInternal, AcademicYear: 2024, Marks: 4, TotalMarks: 10},
	}
	for _, r := range rows {
		_, err := repo.Upsert(ctx, r)
		require.NoError(t, err)
	}

	got, err := repo.ListForStudents(ctx, []string{"a", "b"}, result.Filter{ExamType: result.ExamInternal})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = repo.ListForStudents(ctx, []string{"a", "b"}, result.Filter{AcademicYear: 2024})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = repo.ListByStudentYear(ctx, "b", 2024)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(NewDB())

	u := &user.User{ID: "u1", Name: "P", Email: "p@school.test", PasswordHash: "x", Role: user.RoleParent}
	require.NoError(t, repo.Create(ctx, u))
	assert.True(t, shared.IsAlreadyExists(repo.Create(ctx, &user.User{ID: "u2", Email: "p@school.test"})))

	require.NoError(t, repo.LinkStudent(ctx, "u1", "s1"))
	require.NoError(t, repo.LinkStudent(ctx, "u1", "s1"))

	got, err := repo.GetByEmail(ctx, "P@School.test")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, got.LinkedStudentIDs)
}

func TestBatchLocker(t *testing.T) {
	ctx := context.Background()
	l := NewBatchLocker()

	release, err := l.Acquire(ctx, "promotion:2024")
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "promotion:2024")
	assert.True(t, shared.IsConflict(err))

	_, err = l.Acquire(ctx, "promotion:2025")
	assert.NoError(t, err)

	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx))
	_, err = l.Acquire(ctx, "promotion:2024")
	assert.NoError(t, err)
}
