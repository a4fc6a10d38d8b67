package postgres

// Migrations returns the embedded schema migrations in version order.
func Migrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_users",
			SQL:     migration001Up,
		},
		{
			Version: 2,
			Name:    "create_students",
			SQL:     migration002Up,
		},
		{
			Version: 3,
			Name:    "create_results",
			SQL:     migration003Up,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE USERS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    email VARCHAR(255) NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role VARCHAR(20) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_role CHECK (role IN ('admin', 'teacher', 'parent'))
);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE STUDENTS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS students (
    id TEXT PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    roll_no VARCHAR(30) NOT NULL,
    class_name VARCHAR(10) NOT NULL,
    division VARCHAR(2) NOT NULL,
    parent_id TEXT REFERENCES users(id) ON DELETE SET NULL,
    dob DATE,
    last_promotion_year INTEGER,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT students_natural_key UNIQUE (roll_no, class_name, division)
);

CREATE INDEX IF NOT EXISTS idx_students_cohort ON students(class_name, division);
CREATE INDEX IF NOT EXISTS idx_students_last_promotion_year ON students(last_promotion_year);
CREATE INDEX IF NOT EXISTS idx_students_created ON students(created_at, id);

-- Parent links (a parent may have several children)
CREATE TABLE IF NOT EXISTS user_students (
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    student_id TEXT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    linked_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    PRIMARY KEY (user_id, student_id)
);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE RESULTS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS results (
    id TEXT PRIMARY KEY,
    student_id TEXT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    subject VARCHAR(100) NOT NULL,
    exam_type VARCHAR(20) NOT NULL,
    academic_year INTEGER NOT NULL,
    marks DOUBLE PRECISION NOT NULL,
    total_marks DOUBLE PRECISION NOT NULL DEFAULT 100,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT results_key UNIQUE (student_id, subject, exam_type, academic_year),
    CONSTRAINT valid_exam_type CHECK (exam_type IN ('class test', 'internal', 'external', 'practical')),
    CONSTRAINT valid_year CHECK (academic_year BETWEEN 2000 AND 3000),
    CONSTRAINT valid_total CHECK (total_marks > 0),
    CONSTRAINT valid_marks CHECK (marks >= 0 AND marks <= total_marks)
);

CREATE INDEX IF NOT EXISTS idx_results_student_year ON results(student_id, academic_year);
`
