package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	catalog "schoolfin-cloud/internal/catalog/domain"
)

const defaultStructuresTable = "fee_structures"

// StructureRepository is a Postgres implementation for fee structures.
// Fee items are stored as a JSONB column so the item list stays ordered
// and atomic with its structure row.
type StructureRepository struct {
	db    DBTX
	table string
}

// NewStructureRepository constructs a repository.
func NewStructureRepository(db DBTX, opts ...StructureOption) *StructureRepository {
	repo := &StructureRepository{db: db, table: defaultStructuresTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// StructureOption configures the repository.
type StructureOption func(*StructureRepository)

// WithStructureTable overrides the default table name.
func WithStructureTable(table string) StructureOption {
	return func(repo *StructureRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

type feeItemRow struct {
	CategoryID   string  `json:"category_id"`
	CategoryName string  `json:"category_name"`
	FeeType      string  `json:"fee_type"`
	Amount       float64 `json:"amount"`
	IsMandatory  bool    `json:"is_mandatory"`
	IsOptional   bool    `json:"is_optional"`
}

func encodeItems(items []catalog.FeeItem) ([]byte, error) {
	rows := make([]feeItemRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, feeItemRow(item))
	}
	return json.Marshal(rows)
}

func decodeItems(raw []byte) ([]catalog.FeeItem, error) {
	var rows []feeItemRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	items := make([]catalog.FeeItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, catalog.FeeItem(row))
	}
	return items, nil
}

// Get loads a structure by id. Returns (nil, nil) when not found.
func (r *StructureRepository) Get(ctx context.Context, id string) (*catalog.FeeStructure, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("structure repo: nil db")
	}
	if id == "" {
		return nil, errors.New("structure repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT id, class_id, academic_year, term, fee_items, active, created_at, updated_at
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByClassAndTerm loads the active structure for a class, year and term.
// Returns (nil, nil) when not found.
func (r *StructureRepository) GetByClassAndTerm(ctx context.Context, classID, academicYear, term string) (*catalog.FeeStructure, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("structure repo: nil db")
	}
	if classID == "" || academicYear == "" || term == "" {
		return nil, errors.New("structure repo: empty lookup key")
	}

	query := fmt.Sprintf(`
SELECT id, class_id, academic_year, term, fee_items, active, created_at, updated_at
FROM %s
WHERE class_id = $1 AND academic_year = $2 AND term = $3 AND active = TRUE
ORDER BY updated_at DESC
LIMIT 1`, r.table)

	return r.scanOne(r.db.QueryRowContext(ctx, query, classID, academicYear, term))
}

func (r *StructureRepository) scanOne(row *sql.Row) (*catalog.FeeStructure, error) {
	var structure catalog.FeeStructure
	var rawItems []byte
	if err := row.Scan(
		&structure.ID,
		&structure.ClassID,
		&structure.AcademicYear,
		&structure.Term,
		&rawItems,
		&structure.Active,
		&structure.CreatedAt,
		&structure.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	items, err := decodeItems(rawItems)
	if err != nil {
		return nil, err
	}
	structure.FeeItems = items
	structure.CreatedAt = structure.CreatedAt.UTC()
	structure.UpdatedAt = structure.UpdatedAt.UTC()
	return &structure, nil
}

// Save upserts a structure.
func (r *StructureRepository) Save(ctx context.Context, structure *catalog.FeeStructure) error {
	if r == nil || r.db == nil {
		return errors.New("structure repo: nil db")
	}
	if structure == nil {
		return catalog.ErrNilStructure
	}
	if err := structure.Validate(); err != nil {
		return err
	}

	rawItems, err := encodeItems(structure.FeeItems)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	class_id,
	academic_year,
	term,
	fee_items,
	active
) VALUES (
	$1, $2, $3, $4, $5, $6
)
ON CONFLICT (id)
DO UPDATE SET
	class_id = EXCLUDED.class_id,
	academic_year = EXCLUDED.academic_year,
	term = EXCLUDED.term,
	fee_items = EXCLUDED.fee_items,
	active = EXCLUDED.active,
	updated_at = NOW()`, r.table)

	_, err = r.db.ExecContext(
		ctx,
		query,
		structure.ID,
		structure.ClassID,
		structure.AcademicYear,
		structure.Term,
		rawItems,
		structure.Active,
	)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if structure.CreatedAt.IsZero() {
		structure.CreatedAt = now
	}
	structure.UpdatedAt = now
	return nil
}
