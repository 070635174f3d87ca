package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	students "schoolfin-cloud/internal/students/domain"
)

const defaultClassesTable = "classes"

// ClassRepository is a Postgres implementation for school classes.
type ClassRepository struct {
	db    DBTX
	table string
}

// NewClassRepository constructs a repository.
func NewClassRepository(db DBTX, opts ...ClassOption) *ClassRepository {
	repo := &ClassRepository{db: db, table: defaultClassesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// ClassOption configures the repository.
type ClassOption func(*ClassRepository)

// WithClassTable overrides the default table name.
func WithClassTable(table string) ClassOption {
	return func(repo *ClassRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Get loads a class by id. Returns (nil, nil) when not found.
func (r *ClassRepository) Get(ctx context.Context, id string) (*students.Class, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("class repo: nil db")
	}
	if id == "" {
		return nil, errors.New("class repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT id, school_id, name, active, created_at, updated_at
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	var class students.Class
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&class.ID,
		&class.SchoolID,
		&class.Name,
		&class.Active,
		&class.CreatedAt,
		&class.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	class.CreatedAt = class.CreatedAt.UTC()
	class.UpdatedAt = class.UpdatedAt.UTC()
	return &class, nil
}

// ListBySchool loads the classes of a school ordered by name.
func (r *ClassRepository) ListBySchool(ctx context.Context, schoolID string) ([]students.Class, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("class repo: nil db")
	}
	if schoolID == "" {
		return nil, errors.New("class repo: empty school id")
	}

	query := fmt.Sprintf(`
SELECT id, school_id, name, active, created_at, updated_at
FROM %s
WHERE school_id = $1
ORDER BY name ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []students.Class
	for rows.Next() {
		var class students.Class
		if err := rows.Scan(
			&class.ID,
			&class.SchoolID,
			&class.Name,
			&class.Active,
			&class.CreatedAt,
			&class.UpdatedAt,
		); err != nil {
			return nil, err
		}
		class.CreatedAt = class.CreatedAt.UTC()
		class.UpdatedAt = class.UpdatedAt.UTC()
		result = append(result, class)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
