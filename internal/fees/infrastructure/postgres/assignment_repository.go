package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	fees "schoolfin-cloud/internal/fees/domain"
)

const defaultAssignmentsTable = "student_fee_assignments"

// uniqueViolation is the Postgres error code raised by the composite
// unique index on (student_id, class_id, academic_year, term).
const uniqueViolation = "23505"

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// AssignmentRepository is a Postgres implementation for student fee
// assignments. Fee items are stored as a JSONB column.
type AssignmentRepository struct {
	db    DBTX
	table string
}

// NewAssignmentRepository constructs a repository.
func NewAssignmentRepository(db DBTX, opts ...AssignmentOption) *AssignmentRepository {
	repo := &AssignmentRepository{db: db, table: defaultAssignmentsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// AssignmentOption configures the repository.
type AssignmentOption func(*AssignmentRepository)

// WithAssignmentTable overrides the default table name.
func WithAssignmentTable(table string) AssignmentOption {
	return func(repo *AssignmentRepository) {
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
	AmountPaid   float64 `json:"amount_paid"`
	Balance      float64 `json:"balance"`
	IsMandatory  bool    `json:"is_mandatory"`
	IsOptional   bool    `json:"is_optional"`
	IsSelected   bool    `json:"is_selected"`
}

func encodeItems(items []fees.StudentFeeItem) ([]byte, error) {
	rows := make([]feeItemRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, feeItemRow(item))
	}
	return json.Marshal(rows)
}

func decodeItems(raw []byte) ([]fees.StudentFeeItem, error) {
	var rows []feeItemRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	items := make([]fees.StudentFeeItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, fees.StudentFeeItem(row))
	}
	return items, nil
}

const assignmentColumns = `id, school_id, student_id, student_name, class_id, fee_structure_id,
academic_year, term, fee_items, scholarship_id, scholarship_name, scholarship_type,
scholarship_value, original_amount, discount_amount, total_amount, amount_paid,
balance, status, currency, due_date, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanAssignment(row scanner) (*fees.Assignment, error) {
	var a fees.Assignment
	var rawItems []byte
	var scholarshipID, scholarshipName, scholarshipType, dueDate sql.NullString
	if err := row.Scan(
		&a.ID,
		&a.SchoolID,
		&a.StudentID,
		&a.StudentName,
		&a.ClassID,
		&a.FeeStructureID,
		&a.AcademicYear,
		&a.Term,
		&rawItems,
		&scholarshipID,
		&scholarshipName,
		&scholarshipType,
		&a.ScholarshipValue,
		&a.OriginalAmount,
		&a.DiscountAmount,
		&a.TotalAmount,
		&a.AmountPaid,
		&a.Balance,
		&a.Status,
		&a.Currency,
		&dueDate,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	items, err := decodeItems(rawItems)
	if err != nil {
		return nil, err
	}
	a.FeeItems = items
	a.ScholarshipID = scholarshipID.String
	a.ScholarshipName = scholarshipName.String
	a.ScholarshipType = scholarshipType.String
	a.DueDate = dueDate.String
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}

// Get loads an assignment by id. Returns (nil, nil) when not found.
func (r *AssignmentRepository) Get(ctx context.Context, id string) (*fees.Assignment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("assignment repo: nil db")
	}
	if id == "" {
		return nil, errors.New("assignment repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE id = $1
LIMIT 1`, assignmentColumns, r.table)

	a, err := scanAssignment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

// ListByClassTerm loads assignments for a class, year and term ordered
// by student name.
func (r *AssignmentRepository) ListByClassTerm(ctx context.Context, classID, academicYear, term string) ([]fees.Assignment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("assignment repo: nil db")
	}
	if classID == "" || academicYear == "" || term == "" {
		return nil, errors.New("assignment repo: empty lookup key")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE class_id = $1 AND academic_year = $2 AND term = $3
ORDER BY student_name ASC`, assignmentColumns, r.table)

	return r.list(ctx, query, classID, academicYear, term)
}

// ListByStructure loads assignments referencing a fee structure.
func (r *AssignmentRepository) ListByStructure(ctx context.Context, feeStructureID string) ([]fees.Assignment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("assignment repo: nil db")
	}
	if feeStructureID == "" {
		return nil, errors.New("assignment repo: empty structure id")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE fee_structure_id = $1
ORDER BY student_name ASC`, assignmentColumns, r.table)

	return r.list(ctx, query, feeStructureID)
}

func (r *AssignmentRepository) list(ctx context.Context, query string, args ...any) ([]fees.Assignment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []fees.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Create inserts a new assignment. A unique index violation on the
// (student, class, academic year, term) key maps to
// fees.ErrDuplicateAssignment.
func (r *AssignmentRepository) Create(ctx context.Context, a *fees.Assignment) error {
	if r == nil || r.db == nil {
		return errors.New("assignment repo: nil db")
	}
	if a == nil {
		return fees.ErrNilAssignment
	}
	if err := a.Validate(); err != nil {
		return err
	}

	rawItems, err := encodeItems(a.FeeItems)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	school_id,
	student_id,
	student_name,
	class_id,
	fee_structure_id,
	academic_year,
	term,
	fee_items,
	scholarship_id,
	scholarship_name,
	scholarship_type,
	scholarship_value,
	original_amount,
	discount_amount,
	total_amount,
	amount_paid,
	balance,
	status,
	currency,
	due_date
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21
)`, r.table)

	_, err = r.db.ExecContext(
		ctx,
		query,
		a.ID,
		a.SchoolID,
		a.StudentID,
		a.StudentName,
		a.ClassID,
		a.FeeStructureID,
		a.AcademicYear,
		a.Term,
		rawItems,
		nullIfEmpty(a.ScholarshipID),
		nullIfEmpty(a.ScholarshipName),
		nullIfEmpty(a.ScholarshipType),
		a.ScholarshipValue,
		a.OriginalAmount,
		a.DiscountAmount,
		a.TotalAmount,
		a.AmountPaid,
		a.Balance,
		a.Status,
		a.Currency,
		nullIfEmpty(a.DueDate),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fees.ErrDuplicateAssignment
		}
		return err
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	return nil
}

// Update overwrites the recomputed fields of an existing assignment.
// amount_paid is deliberately not in the SET list, payment recording
// owns that column.
func (r *AssignmentRepository) Update(ctx context.Context, a *fees.Assignment) error {
	if r == nil || r.db == nil {
		return errors.New("assignment repo: nil db")
	}
	if a == nil {
		return fees.ErrNilAssignment
	}
	if a.ID == "" {
		return fees.ErrAssignmentNotFound
	}
	if err := a.Validate(); err != nil {
		return err
	}

	rawItems, err := encodeItems(a.FeeItems)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
UPDATE %s SET
	fee_structure_id = $2,
	fee_items = $3,
	scholarship_id = $4,
	scholarship_name = $5,
	scholarship_type = $6,
	scholarship_value = $7,
	original_amount = $8,
	discount_amount = $9,
	total_amount = $10,
	balance = $11,
	status = $12,
	due_date = $13,
	updated_at = NOW()
WHERE id = $1`, r.table)

	res, err := r.db.ExecContext(
		ctx,
		query,
		a.ID,
		a.FeeStructureID,
		rawItems,
		nullIfEmpty(a.ScholarshipID),
		nullIfEmpty(a.ScholarshipName),
		nullIfEmpty(a.ScholarshipType),
		a.ScholarshipValue,
		a.OriginalAmount,
		a.DiscountAmount,
		a.TotalAmount,
		a.Balance,
		a.Status,
		nullIfEmpty(a.DueDate),
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fees.ErrAssignmentNotFound
	}
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}
