package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	catalog "schoolfin-cloud/internal/catalog/domain"
)

const defaultCategoriesTable = "fee_categories"

// CategoryRepository is a Postgres implementation for fee categories.
type CategoryRepository struct {
	db    DBTX
	table string
}

// NewCategoryRepository constructs a repository.
func NewCategoryRepository(db DBTX, opts ...CategoryOption) *CategoryRepository {
	repo := &CategoryRepository{db: db, table: defaultCategoriesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// CategoryOption configures the repository.
type CategoryOption func(*CategoryRepository)

// WithCategoryTable overrides the default table name.
func WithCategoryTable(table string) CategoryOption {
	return func(repo *CategoryRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Get loads a category by id. Returns (nil, nil) when not found.
func (r *CategoryRepository) Get(ctx context.Context, id string) (*catalog.FeeCategory, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("category repo: nil db")
	}
	if id == "" {
		return nil, errors.New("category repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT id, name, fee_type, active, created_at, updated_at
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	var category catalog.FeeCategory
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.FeeType,
		&category.Active,
		&category.CreatedAt,
		&category.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	category.CreatedAt = category.CreatedAt.UTC()
	category.UpdatedAt = category.UpdatedAt.UTC()
	return &category, nil
}

// ListActive loads active categories ordered by name.
func (r *CategoryRepository) ListActive(ctx context.Context) ([]catalog.FeeCategory, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("category repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT id, name, fee_type, active, created_at, updated_at
FROM %s
WHERE active = TRUE
ORDER BY name ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []catalog.FeeCategory
	for rows.Next() {
		var category catalog.FeeCategory
		if err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.FeeType,
			&category.Active,
			&category.CreatedAt,
			&category.UpdatedAt,
		); err != nil {
			return nil, err
		}
		category.CreatedAt = category.CreatedAt.UTC()
		category.UpdatedAt = category.UpdatedAt.UTC()
		result = append(result, category)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Save upserts a category.
func (r *CategoryRepository) Save(ctx context.Context, category *catalog.FeeCategory) error {
	if r == nil || r.db == nil {
		return errors.New("category repo: nil db")
	}
	if category == nil {
		return errors.New("category repo: nil category")
	}
	if err := category.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	name,
	fee_type,
	active
) VALUES (
	$1, $2, $3, $4
)
ON CONFLICT (id)
DO UPDATE SET
	name = EXCLUDED.name,
	fee_type = EXCLUDED.fee_type,
	active = EXCLUDED.active,
	updated_at = NOW()`, r.table)

	_, err := r.db.ExecContext(
		ctx,
		query,
		category.ID,
		category.Name,
		category.FeeType,
		category.Active,
	)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if category.CreatedAt.IsZero() {
		category.CreatedAt = now
	}
	category.UpdatedAt = now
	return nil
}
