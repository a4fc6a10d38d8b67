package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/schoolhub/school-hub/internal/domain/shared"
	"github.com/schoolhub/school-hub/internal/domain/student"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StudentRepository implements student.Repository for PostgreSQL.
type StudentRepository struct {
	conn *Connection
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(conn *Connection) *StudentRepository {
	return &StudentRepository{conn: conn}
}

// Compile-time check that StudentRepository implements student.Repository.
var _ student.Repository = (*StudentRepository)(nil)

const studentColumns = `
	id, name, roll_no, class_name, division, parent_id, dob,
	last_promotion_year, created_at, updated_at
`

// ─────────────────────────────────────────────────────────────────────────────
// CRUD Operations
// ─────────────────────────────────────────────────────────────────────────────

// Create creates a new student.
func (r *StudentRepository) Create(ctx context.Context, s *student.Student) error {
	query := `
		INSERT INTO students (
			id, name, roll_no, class_name, division, parent_id, dob,
			last_promotion_year, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.conn.Exec(ctx, query,
		s.ID,
		s.Name,
		s.RollNo,
		string(s.ClassName),
		string(s.Division),
		nullString(s.ParentID),
		s.DOB,
		s.LastPromotionYear,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return student.ErrStudentAlreadyExists
		}
		return fmt.Errorf("failed to create student: %w", err)
	}

	return nil
}

// GetByID retrieves a student by internal ID.
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*student.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	return r.scanStudent(r.conn.QueryRow(ctx, query, id))
}

// GetByNaturalKey retrieves a student by (roll number, class, division).
func (r *StudentRepository) GetByNaturalKey(ctx context.Context, key student.NaturalKey) (*student.Student, error) {
	query := `
		SELECT ` + studentColumns + `
		FROM students
		WHERE roll_no = $1 AND class_name = $2 AND division = $3
	`
	return r.scanStudent(r.conn.QueryRow(ctx, query, key.RollNo, string(key.ClassName), string(key.Division)))
}

// ─────────────────────────────────────────────────────────────────────────────
// Query Operations
// ─────────────────────────────────────────────────────────────────────────────

// List returns students matching the filter in registration order.
func (r *StudentRepository) List(ctx context.Context, filter student.ListFilter) ([]*student.Student, error) {
	// A non-nil empty ID list matches nothing.
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return []*student.Student{}, nil
	}

	var conditions []string
	var args []interface{}
	argIdx := 1

	if filter.ClassName != "" {
		conditions = append(conditions, fmt.Sprintf("class_name = $%d", argIdx))
		args = append(args, string(filter.ClassName))
		argIdx++
	}
	if filter.Division != "" {
		conditions = append(conditions, fmt.Sprintf("division = $%d", argIdx))
		args = append(args, string(filter.Division))
		argIdx++
	}
	if filter.ParentID != "" {
		conditions = append(conditions, fmt.Sprintf("parent_id = $%d", argIdx))
		args = append(args, filter.ParentID)
		argIdx++
	}
	if filter.IDs != nil {
		conditions = append(conditions, fmt.Sprintf("id = ANY($%d)", argIdx))
		args = append(args, filter.IDs)
	}

	query := `SELECT ` + studentColumns + ` FROM students`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	return r.scanStudents(rows)
}

// ListPendingPromotion returns students whose last_promotion_year differs from year.
func (r *StudentRepository) ListPendingPromotion(ctx context.Context, year int) ([]*student.Student, error) {
	query := `
		SELECT ` + studentColumns + `
		FROM students
		WHERE last_promotion_year IS DISTINCT FROM $1
		ORDER BY created_at, id
	`

	rows, err := r.conn.Query(ctx, query, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list students pending promotion: %w", err)
	}
	defer rows.Close()

	return r.scanStudents(rows)
}

// ─────────────────────────────────────────────────────────────────────────────
// Promotion
// ─────────────────────────────────────────────────────────────────────────────

// PromoteIfPending moves the student to the next class in a single conditional
// UPDATE. Returns false when another run got there first.
func (r *StudentRepository) PromoteIfPending(ctx context.Context, p student.PromoteParams) (bool, error) {
	query := `
		UPDATE students SET
			class_name = $3,
			last_promotion_year = $4,
			updated_at = $5
		WHERE id = $1
			AND class_name = $2
			AND last_promotion_year IS DISTINCT FROM $4
	`

	tag, err := r.conn.Exec(ctx, query, p.StudentID, string(p.From), string(p.To), p.Year, time.Now().UTC())
	if IsUniqueViolation(err) {
		return false, student.ErrRollNumberTaken
	}
	if err != nil {
		return false, fmt.Errorf("failed to promote student: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// Promote moves the student to the next class if the class is still From.
func (r *StudentRepository) Promote(ctx context.Context, p student.PromoteParams) error {
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE students SET
				class_name = $3,
				last_promotion_year = $4,
				updated_at = $5
			WHERE id = $1 AND class_name = $2
		`

		tag, err := tx.Exec(ctx, query, p.StudentID, string(p.From), string(p.To), p.Year, time.Now().UTC())
		if IsUniqueViolation(err) {
			return student.ErrRollNumberTaken
		}
		if err != nil {
			return fmt.Errorf("failed to promote student: %w", err)
		}
		if tag.RowsAffected() == 1 {
			return nil
		}

		var exists bool
		err = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM students WHERE id = $1)`, p.StudentID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check student existence: %w", err)
		}
		if !exists {
			return student.ErrStudentNotFound
		}
		return shared.ErrStudentClassChanged
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Helper Methods
// ─────────────────────────────────────────────────────────────────────────────

func (r *StudentRepository) scanStudent(row pgx.Row) (*student.Student, error) {
	s, err := scanStudentRow(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, student.ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to scan student: %w", err)
	}
	return s, nil
}

func (r *StudentRepository) scanStudents(rows pgx.Rows) ([]*student.Student, error) {
	students := make([]*student.Student, 0)
	for rows.Next() {
		s, err := scanStudentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student row: %w", err)
		}
		students = append(students, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating student rows: %w", err)
	}

	return students, nil
}

func scanStudentRow(row pgx.Row) (*student.Student, error) {
	var (
		s         student.Student
		className string
		division  string
		parentID  *string
	)

	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.RollNo,
		&className,
		&division,
		&parentID,
		&s.DOB,
		&s.LastPromotionYear,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.ClassName = student.ClassName(className)
	s.Division = student.Division(division)
	if parentID != nil {
		s.ParentID = *parentID
	}

	return &s, nil
}

// nullString maps "" to SQL NULL.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
