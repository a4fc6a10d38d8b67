// Package user содержит учётные записи сотрудников и родителей.
package user

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/schoolhub/school-hub/internal/domain/shared"
)

// Role - роль пользователя в системе.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleParent  Role = "parent"
)

// ParseRole нормализует и проверяет роль.
func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !r.IsValid() {
		return "", shared.ErrInvalidRole
	}
	return r, nil
}

// IsValid проверяет, что роль известна.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleParent:
		return true
	}
	return false
}

// String возвращает строковое представление.
func (r Role) String() string {
	return string(r)
}

// User - учётная запись.
type User struct {
	ID               string
	Name             string
	Email            string
	PasswordHash     string
	Role             Role
	LinkedStudentIDs []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewUserParams содержит параметры регистрации.
// PasswordHash уже должен быть вычислен инфраструктурой.
type NewUserParams struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Now          time.Time
}

// NewUser создаёт пользователя с валидацией.
func NewUser(p NewUserParams) (*User, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, shared.Validation("user", "Create", "name is required")
	}

	email := NormalizeEmail(p.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, shared.Validation("user", "Create", "email is invalid")
	}

	role, err := ParseRole(p.Role)
	if err != nil {
		return nil, err
	}

	if p.PasswordHash == "" {
		return nil, shared.Validation("user", "Create", "password is required")
	}

	now := p.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	return &User{
		ID:           p.ID,
		Name:         name,
		Email:        email,
		PasswordHash: p.PasswordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NormalizeEmail приводит email к нижнему регистру без пробелов.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HasLinkedStudent проверяет привязку ученика к пользователю.
func (u *User) HasLinkedStudent(studentID string) bool {
	for _, id := range u.LinkedStudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// Repository определяет операции хранилища пользователей.
type Repository interface {
	// Create возвращает shared.ErrUserAlreadyExists при занятом email.
	Create(ctx context.Context, u *User) error

	// GetByID возвращает shared.ErrUserNotFound, если пользователь не найден.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail возвращает shared.ErrUserNotFound, если пользователь не найден.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// LinkStudent привязывает ученика к пользователю (идемпотентно).
	LinkStudent(ctx context.Context, userID, studentID string) error
}
