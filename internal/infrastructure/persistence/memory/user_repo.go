package memory

import (
	"context"

	"github.com/schoolhub/school-hub/internal/domain/shared"
	"github.com/schoolhub/school-hub/internal/domain/user"
)

// UserRepository implements user.Repository.
type UserRepository struct {
	db *userTable
}

// NewUserRepository creates a repository over db.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db.users}
}

var _ user.Repository = (*UserRepository)(nil)

func clone(u *user.User) *user.User {
	c := *u
	c.LinkedStudentIDs = append([]string(nil), u.LinkedStudentIDs...)
	return &c
}

// Create stores a new user. Emails are unique.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.byID {
		if existing.Email == u.Email {
			return shared.ErrUserAlreadyExists
		}
	}
	if _, ok := r.db.byID[u.ID]; ok {
		return shared.ErrUserAlreadyExists
	}
	r.db.byID[u.ID] = clone(u)
	return nil
}

// GetByID returns a copy of the user.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.byID[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return clone(u), nil
}

// GetByEmail returns a copy of the user with the given email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	email = user.NormalizeEmail(email)
	for _, u := range r.db.byID {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, shared.ErrUserNotFound
}

// LinkStudent appends studentID to the user's linked students once.
func (r *UserRepository) LinkStudent(ctx context.Context, userID, studentID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.byID[userID]
	if !ok {
		return shared.ErrUserNotFound
	}
	if !u.HasLinkedStudent(studentID) {
		u.LinkedStudentIDs = append(u.LinkedStudentIDs, studentID)
	}
	return nil
}
