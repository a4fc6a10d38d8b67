package postgres

import (
	"context"
	"fmt"

	"github.com/schoolhub/school-hub/internal/domain/shared"
	"github.com/schoolhub/school-hub/internal/domain/user"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// UserRepository implements user.Repository for PostgreSQL.
// Parent links live in the user_students table.
type UserRepository struct {
	conn *Connection
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

var _ user.Repository = (*UserRepository)(nil)

const userSelect = `
	SELECT u.id, u.name, u.email, u.password_hash, u.role, u.created_at, u.updated_at,
		COALESCE(
			(SELECT array_agg(us.student_id ORDER BY us.linked_at, us.student_id)
			 FROM user_students us WHERE us.user_id = u.id),
			'{}'
		)
	FROM users u
`

// Create creates a new user. Emails are unique.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`

		_, err := tx.Exec(ctx, query,
			u.ID,
			u.Name,
			u.Email,
			u.PasswordHash,
			string(u.Role),
			u.CreatedAt,
			u.UpdatedAt,
		)
		if err != nil {
			if IsUniqueViolation(err) {
				return shared.ErrUserAlreadyExists
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		for _, studentID := range u.LinkedStudentIDs {
			if err := linkStudent(ctx, tx, u.ID, studentID); err != nil {
				return err
			}
		}

		return nil
	})
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	return r.scanUser(r.conn.QueryRow(ctx, userSelect+` WHERE u.id = $1`, id))
}

// GetByEmail retrieves a user by normalized email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.scanUser(r.conn.QueryRow(ctx, userSelect+` WHERE u.email = $1`, user.NormalizeEmail(email)))
}

// LinkStudent links a student to the user. Repeated links are no-ops.
func (r *UserRepository) LinkStudent(ctx context.Context, userID, studentID string) error {
	var exists bool
	err := r.conn.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check user existence: %w", err)
	}
	if !exists {
		return shared.ErrUserNotFound
	}

	return linkStudent(ctx, r.conn.Pool(), userID, studentID)
}

// ─────────────────────────────────────────────────────────────────────────────
// Helper Methods
// ─────────────────────────────────────────────────────────────────────────────

func linkStudent(ctx context.Context, q Querier, userID, studentID string) error {
	query := `
		INSERT INTO user_students (user_id, student_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, student_id) DO NOTHING
	`

	if _, err := q.Exec(ctx, query, userID, studentID); err != nil {
		if IsForeignKeyViolation(err) {
			return shared.ErrStudentNotFound
		}
		return fmt.Errorf("failed to link student: %w", err)
	}
	return nil
}

func (r *UserRepository) scanUser(row pgx.Row) (*user.User, error) {
	var (
		u    user.User
		role string
	)

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&role,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.LinkedStudentIDs,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	u.Role = user.Role(role)
	return &u, nil
}
