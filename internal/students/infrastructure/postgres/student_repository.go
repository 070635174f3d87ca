package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	students "schoolfin-cloud/internal/students/domain"
)

const defaultStudentsTable = "students"

// StudentRepository is a Postgres implementation for the student roster.
type StudentRepository struct {
	db    DBTX
	table string
}

// NewStudentRepository constructs a repository.
func NewStudentRepository(db DBTX, opts ...StudentOption) *StudentRepository {
	repo := &StudentRepository{db: db, table: defaultStudentsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// StudentOption configures the repository.
type StudentOption func(*StudentRepository)

// WithStudentTable overrides the default table name.
func WithStudentTable(table string) StudentOption {
	return func(repo *StudentRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Get loads a student by id.
func (r *StudentRepository) Get(ctx context.Context, id string) (*students.StudentProfile, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("student repo: nil db")
	}
	if id == "" {
		return nil, errors.New("student repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT id, school_id, class_id, first_name, last_name, status, created_at, updated_at
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	var student students.StudentProfile
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&student.ID,
		&student.SchoolID,
		&student.ClassID,
		&student.FirstName,
		&student.LastName,
		&student.Status,
		&student.CreatedAt,
		&student.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	student.CreatedAt = student.CreatedAt.UTC()
	student.UpdatedAt = student.UpdatedAt.UTC()
	return &student, nil
}

// ListActiveByClass loads active students in a class ordered by name.
func (r *StudentRepository) ListActiveByClass(ctx context.Context, classID string) ([]students.StudentProfile, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("student repo: nil db")
	}
	if classID == "" {
		return nil, errors.New("student repo: empty class id")
	}

	query := fmt.Sprintf(`
SELECT id, school_id, class_id, first_name, last_name, status, created_at, updated_at
FROM %s
WHERE class_id = $1 AND status = $2
ORDER BY last_name ASC, first_name ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, classID, students.StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []students.StudentProfile
	for rows.Next() {
		var student students.StudentProfile
		if err := rows.Scan(
			&student.ID,
			&student.SchoolID,
			&student.ClassID,
			&student.FirstName,
			&student.LastName,
			&student.Status,
			&student.CreatedAt,
			&student.UpdatedAt,
		); err != nil {
			return nil, err
		}
		student.CreatedAt = student.CreatedAt.UTC()
		student.UpdatedAt = student.UpdatedAt.UTC()
		result = append(result, student)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
