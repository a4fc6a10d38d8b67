package memory

import (
	"context"
	"time"

	"github.com/schoolhub/school-hub/internal/domain/shared"
	"github.com/schoolhub/school-hub/internal/domain/student"
)

// StudentRepository implements student.Repository.
type StudentRepository struct {
	db  *studentTable
	now func() time.Time
}

// NewStudentRepository creates a repository over db.
func NewStudentRepository(db *DB) *StudentRepository {
	return &StudentRepository{db: db.students, now: func() time.Time { return time.Now().UTC() }}
}

// Compile-time check that StudentRepository implements student.Repository.
var _ student.Repository = (*StudentRepository)(nil)

// Create stores a new student.
func (r *StudentRepository) Create(ctx context.Context, s *student.Student) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.byID[s.ID]; ok {
		return student.ErrStudentAlreadyExists
	}
	key := s.NaturalKey()
	for _, existing := range r.db.byID {
		if existing.NaturalKey() == key {
			return student.ErrStudentAlreadyExists
		}
	}

	r.db.byID[s.ID] = s.Clone()
	r.db.order = append(r.db.order, s.ID)
	return nil
}

// GetByID returns a copy of the student.
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*student.Student, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	s, ok := r.db.byID[id]
	if !ok {
		return nil, student.ErrStudentNotFound
	}
	return s.Clone(), nil
}

// GetByNaturalKey returns a copy of the student with the given key.
func (r *StudentRepository) GetByNaturalKey(ctx context.Context, key student.NaturalKey) (*student.Student, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, id := range r.db.order {
		if s := r.db.byID[id]; s.NaturalKey() == key {
			return s.Clone(), nil
		}
	}
	return nil, student.ErrStudentNotFound
}

// List returns matching students in registration order.
func (r *StudentRepository) List(ctx context.Context, filter student.ListFilter) ([]*student.Student, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]*student.Student, 0)
	for _, id := range r.db.order {
		if s := r.db.byID[id]; filter.Matches(s) {
			out = append(out, s.Clone())
		}
	}
	return out, nil
}

// ListPendingPromotion returns students not yet processed for year.
func (r *StudentRepository) ListPendingPromotion(ctx context.Context, year int) ([]*student.Student, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]*student.Student, 0)
	for _, id := range r.db.order {
		if s := r.db.byID[id]; !s.IsProcessedFor(year) {
			out = append(out, s.Clone())
		}
	}
	return out, nil
}

// PromoteIfPending promotes iff the class is still From and the student is
// not yet processed for Year.
func (r *StudentRepository) PromoteIfPending(ctx context.Context, p student.PromoteParams) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.byID[p.StudentID]
	if !ok || s.ClassName != p.From || s.IsProcessedFor(p.Year) {
		return false, nil
	}
	if r.keyTaken(s, p.To) {
		return false, student.ErrRollNumberTaken
	}
	s.ApplyPromotion(p.To, p.Year, r.now())
	return true, nil
}

// Promote promotes iff the class is still From.
func (r *StudentRepository) Promote(ctx context.Context, p student.PromoteParams) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.byID[p.StudentID]
	if !ok {
		return student.ErrStudentNotFound
	}
	if s.ClassName != p.From {
		return shared.ErrStudentClassChanged
	}
	if r.keyTaken(s, p.To) {
		return student.ErrRollNumberTaken
	}
	s.ApplyPromotion(p.To, p.Year, r.now())
	return nil
}

// keyTaken reports whether another student already holds s's key in class to.
// Callers hold the table lock.
func (r *StudentRepository) keyTaken(s *student.Student, to student.ClassName) bool {
	key := s.KeyIn(to)
	for id, other := range r.db.byID {
		if id != s.ID && other.NaturalKey() == key {
			return true
		}
	}
	return false
}
