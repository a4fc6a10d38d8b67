package memory

import (
	"context"
	"sort"

	"github.com/schoolhub/school-hub/internal/domain/result"
	"github.com/schoolhub/school-hub/internal/domain/shared"
)

// ResultRepository implements result.Repository.
type ResultRepository struct {
	db *resultTable
}

// NewResultRepository creates a repository over db.
func NewResultRepository(db *DB) *ResultRepository {
	return &ResultRepository{db: db.results}
}

var _ result.Repository = (*ResultRepository)(nil)

// Upsert inserts r or replaces the marks of the record with the same key.
func (repo *ResultRepository) Upsert(ctx context.Context, r *result.Result) (*result.Result, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	key := r.Key()
	if existing, ok := repo.db.byKey[key]; ok {
		existing.Marks = r.Marks
		existing.TotalMarks = r.TotalMarks
		existing.UpdatedAt = r.UpdatedAt
		c := *existing
		return &c, nil
	}

	c := *r
	repo.db.byKey[key] = &c
	repo.db.order = append(repo.db.order, key)
	out := c
	return &out, nil
}

// ListByStudent returns all results of a student, newest year first.
func (repo *ResultRepository) ListByStudent(ctx context.Context, studentID string) ([]*result.Result, error) {
	out := repo.collect(func(r *result.Result) bool { return r.StudentID == studentID })
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.AcademicYear != b.AcademicYear {
			return a.AcademicYear > b.AcademicYear
		}
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		return a.ExamType < b.ExamType
	})
	return out, nil
}

// ListByStudentYear returns the results of a student for one academic year.
func (repo *ResultRepository) ListByStudentYear(ctx context.Context, studentID string, year shared.AcademicYear) ([]*result.Result, error) {
	return repo.collect(func(r *result.Result) bool {
		return r.StudentID == studentID && r.AcademicYear == year
	}), nil
}

// ListForStudents returns the results of the given students matching filter.
func (repo *ResultRepository) ListForStudents(ctx context.Context, studentIDs []string, filter result.Filter) ([]*result.Result, error) {
	ids := make(map[string]struct{}, len(studentIDs))
	for _, id := range studentIDs {
		ids[id] = struct{}{}
	}
	return repo.collect(func(r *result.Result) bool {
		_, ok := ids[r.StudentID]
		return ok && filter.Matches(r)
	}), nil
}

func (repo *ResultRepository) collect(keep func(*result.Result) bool) []*result.Result {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	out := make([]*result.Result, 0)
	for _, key := range repo.db.order {
		r := repo.db.byKey[key]
		if keep(r) {
			c := *r
			out = append(out, &c)
		}
	}
	return out
}
