package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	scholarship "schoolfin-cloud/internal/scholarship/domain"
)

const defaultScholarshipsTable = "scholarships"

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Repository is a Postgres implementation for scholarships. The id list
// and fee type filter fields are stored as JSONB.
type Repository struct {
	db    DBTX
	table string
}

// NewRepository constructs a repository.
func NewRepository(db DBTX, opts ...Option) *Repository {
	repo := &Repository{db: db, table: defaultScholarshipsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Option configures the repository.
type Option func(*Repository)

// WithTable overrides the default table name.
func WithTable(table string) Option {
	return func(repo *Repository) {
		if table != "" {
			repo.table = table
		}
	}
}

const scholarshipColumns = `id, name, type, percentage_off, fixed_amount_off, max_discount_per_student,
applicable_to, class_ids, student_ids, fee_type_include, fee_type_exclude,
start_date, end_date, academic_year, term, status, created_by,
max_beneficiaries, current_beneficiaries, created_at, updated_at`

// Get loads a scholarship by id. Returns (nil, nil) when not found.
func (r *Repository) Get(ctx context.Context, id string) (*scholarship.Scholarship, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("scholarship repo: nil db")
	}
	if id == "" {
		return nil, errors.New("scholarship repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE id = $1
LIMIT 1`, scholarshipColumns, r.table)

	s, err := scanScholarship(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// ListActive loads active scholarships ordered by name.
func (r *Repository) ListActive(ctx context.Context) ([]scholarship.Scholarship, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("scholarship repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE status = $1
ORDER BY name ASC`, scholarshipColumns, r.table)

	rows, err := r.db.QueryContext(ctx, query, scholarship.StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []scholarship.Scholarship
	for rows.Next() {
		s, err := scanScholarship(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func decodeList(raw []byte, dst *[]string) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func scanScholarship(row scanner) (*scholarship.Scholarship, error) {
	var s scholarship.Scholarship
	var classIDs, studentIDs, typeInclude, typeExclude []byte
	var endDate, academicYear, term sql.NullString
	if err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Type,
		&s.PercentageOff,
		&s.FixedAmountOff,
		&s.MaxDiscountPerStudent,
		&s.ApplicableTo,
		&classIDs,
		&studentIDs,
		&typeInclude,
		&typeExclude,
		&s.StartDate,
		&endDate,
		&academicYear,
		&term,
		&s.Status,
		&s.CreatedBy,
		&s.MaxBeneficiaries,
		&s.CurrentBeneficiaries,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := decodeList(classIDs, &s.ClassIDs); err != nil {
		return nil, err
	}
	if err := decodeList(studentIDs, &s.StudentIDs); err != nil {
		return nil, err
	}
	if err := decodeList(typeInclude, &s.FeeTypeInclude); err != nil {
		return nil, err
	}
	if err := decodeList(typeExclude, &s.FeeTypeExclude); err != nil {
		return nil, err
	}
	s.EndDate = endDate.String
	s.AcademicYear = academicYear.String
	s.Term = term.String
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return &s, nil
}

// Save upserts a scholarship after strict validation.
func (r *Repository) Save(ctx context.Context, s *scholarship.Scholarship) error {
	if r == nil || r.db == nil {
		return errors.New("scholarship repo: nil db")
	}
	if s == nil {
		return errors.New("scholarship repo: nil scholarship")
	}
	if s.ID == "" {
		return errors.New("scholarship repo: empty id")
	}
	if err := s.Validate(); err != nil {
		return err
	}

	classIDs, err := json.Marshal(s.ClassIDs)
	if err != nil {
		return err
	}
	studentIDs, err := json.Marshal(s.StudentIDs)
	if err != nil {
		return err
	}
	typeInclude, err := json.Marshal(s.FeeTypeInclude)
	if err != nil {
		return err
	}
	typeExclude, err := json.Marshal(s.FeeTypeExclude)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	name,
	type,
	percentage_off,
	fixed_amount_off,
	max_discount_per_student,
	applicable_to,
	class_ids,
	student_ids,
	fee_type_include,
	fee_type_exclude,
	start_date,
	end_date,
	academic_year,
	term,
	status,
	created_by,
	max_beneficiaries,
	current_beneficiaries
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19
)
ON CONFLICT (id)
DO UPDATE SET
	name = EXCLUDED.name,
	type = EXCLUDED.type,
	percentage_off = EXCLUDED.percentage_off,
	fixed_amount_off = EXCLUDED.fixed_amount_off,
	max_discount_per_student = EXCLUDED.max_discount_per_student,
	applicable_to = EXCLUDED.applicable_to,
	class_ids = EXCLUDED.class_ids,
	student_ids = EXCLUDED.student_ids,
	fee_type_include = EXCLUDED.fee_type_include,
	fee_type_exclude = EXCLUDED.fee_type_exclude,
	start_date = EXCLUDED.start_date,
	end_date = EXCLUDED.end_date,
	academic_year = EXCLUDED.academic_year,
	term = EXCLUDED.term,
	status = EXCLUDED.status,
	created_by = EXCLUDED.created_by,
	max_beneficiaries = EXCLUDED.max_beneficiaries,
	current_beneficiaries = EXCLUDED.current_beneficiaries,
	updated_at = NOW()`, r.table)

	_, err = r.db.ExecContext(
		ctx,
		query,
		s.ID,
		s.Name,
		s.Type,
		s.PercentageOff,
		s.FixedAmountOff,
		s.MaxDiscountPerStudent,
		s.ApplicableTo,
		classIDs,
		studentIDs,
		typeInclude,
		typeExclude,
		s.StartDate,
		nullIfEmpty(s.EndDate),
		nullIfEmpty(s.AcademicYear),
		nullIfEmpty(s.Term),
		s.Status,
		s.CreatedBy,
		s.MaxBeneficiaries,
		s.CurrentBeneficiaries,
	)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	return nil
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}
