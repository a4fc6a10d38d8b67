package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/schoolhub/school-hub/internal/domain/result"
	"github.com/schoolhub/school-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESULT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ResultRepository implements result.Repository for PostgreSQL.
type ResultRepository struct {
	conn *Connection
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(conn *Connection) *ResultRepository {
	return &ResultRepository{conn: conn}
}

var _ result.Repository = (*ResultRepository)(nil)

const resultColumns = `
	id, student_id, subject, exam_type, academic_year,
	marks, total_marks, created_at, updated_at
`

// Upsert inserts the result or replaces marks of the row with the same
// (student, subject, exam type, year). The existing row keeps its ID.
func (r *ResultRepository) Upsert(ctx context.Context, res *result.Result) (*result.Result, error) {
	query := `
		INSERT INTO results (
			id, student_id, subject, exam_type, academic_year,
			marks, total_marks, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (student_id, subject, exam_type, academic_year) DO UPDATE SET
			marks = EXCLUDED.marks,
			total_marks = EXCLUDED.total_marks,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + resultColumns

	row := r.conn.QueryRow(ctx, query,
		res.ID,
		res.StudentID,
		res.Subject,
		string(res.ExamType),
		res.AcademicYear.Int(),
		res.Marks,
		res.TotalMarks,
		res.CreatedAt,
		res.UpdatedAt,
	)

	saved, err := scanResultRow(row)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return nil, shared.ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to upsert result: %w", err)
	}

	return saved, nil
}

// ListByStudent returns all results of a student, newest year first.
func (r *ResultRepository) ListByStudent(ctx context.Context, studentID string) ([]*result.Result, error) {
	query := `
		SELECT ` + resultColumns + `
		FROM results
		WHERE student_id = $1
		ORDER BY academic_year DESC, subject, exam_type
	`
	return r.query(ctx, query, studentID)
}

// ListByStudentYear returns the results of a student for one academic year.
func (r *ResultRepository) ListByStudentYear(ctx context.Context, studentID string, year shared.AcademicYear) ([]*result.Result, error) {
	query := `
		SELECT ` + resultColumns + `
		FROM results
		WHERE student_id = $1 AND academic_year = $2
		ORDER BY created_at, id
	`
	return r.query(ctx, query, studentID, year.Int())
}

// ListForStudents returns results of the given students matching filter.
func (r *ResultRepository) ListForStudents(ctx context.Context, studentIDs []string, filter result.Filter) ([]*result.Result, error) {
	if len(studentIDs) == 0 {
		return []*result.Result{}, nil
	}

	conditions := []string{"student_id = ANY($1)"}
	args := []interface{}{studentIDs}

	if filter.ExamType != "" {
		args = append(args, string(filter.ExamType))
		conditions = append(conditions, fmt.Sprintf("exam_type = $%d", len(args)))
	}
	if filter.AcademicYear != 0 {
		args = append(args, filter.AcademicYear.Int())
		conditions = append(conditions, fmt.Sprintf("academic_year = $%d", len(args)))
	}

	query := `SELECT ` + resultColumns + ` FROM results WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY created_at, id`

	return r.query(ctx, query, args...)
}

// ─────────────────────────────────────────────────────────────────────────────
// Helper Methods
// ─────────────────────────────────────────────────────────────────────────────

func (r *ResultRepository) query(ctx context.Context, query string, args ...interface{}) ([]*result.Result, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	results := make([]*result.Result, 0)
	for rows.Next() {
		res, err := scanResultRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating result rows: %w", err)
	}

	return results, nil
}

func scanResultRow(row pgx.Row) (*result.Result, error) {
	var (
		res      result.Result
		examType string
		year     int
	)

	err := row.Scan(
		&res.ID,
		&res.StudentID,
		&res.Subject,
		&examType,
		&year,
		&res.Marks,
		&res.TotalMarks,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	res.ExamType = result.ExamType(examType)
	res.AcademicYear = shared.AcademicYear(year)
	return &res, nil
}
