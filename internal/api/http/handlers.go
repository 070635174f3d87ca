package apihttp

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"
)

const timeLayout = time.RFC3339

// StatsHandler serves fee collection statistics for a class term.
type StatsHandler struct {
	db       *sql.DB
	schoolID string
}

// NewStatsHandler constructs a StatsHandler.
func NewStatsHandler(db *sql.DB, schoolID string) *StatsHandler {
	return &StatsHandler{db: db, schoolID: schoolID}
}

// ServeHTTP handles GET /api/v1/stats/fees.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.db == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	if h.schoolID == "" {
		http.Error(w, "school_id is required", http.StatusServiceUnavailable)
		return
	}

	classID := r.URL.Query().Get("class_id")
	academicYear := r.URL.Query().Get("academic_year")
	term := r.URL.Query().Get("term")
	if classID == "" || academicYear == "" || term == "" {
		http.Error(w, "class_id, academic_year and term are required", http.StatusBadRequest)
		return
	}

	stats, err := queryFeeStats(r.Context(), h.db, h.schoolID, classID, academicYear, term)
	if err != nil {
		http.Error(w, "query stats error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats)
}

// ExportAssignmentsCSVHandler serves assignment CSV exports.
type ExportAssignmentsCSVHandler struct {
	db       *sql.DB
	schoolID string
}

// NewExportAssignmentsCSVHandler constructs a ExportAssignmentsCSVHandler.
func NewExportAssignmentsCSVHandler(db *sql.DB, schoolID string) *ExportAssignmentsCSVHandler {
	return &ExportAssignmentsCSVHandler{db: db, schoolID: schoolID}
}

// ServeHTTP handles GET /api/v1/exports/fee-assignments.csv.
func (h *ExportAssignmentsCSVHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.db == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	if h.schoolID == "" {
		http.Error(w, "school_id is required", http.StatusServiceUnavailable)
		return
	}

	classID := r.URL.Query().Get("class_id")
	academicYear := r.URL.Query().Get("academic_year")
	term := r.URL.Query().Get("term")
	if classID == "" || academicYear == "" || term == "" {
		http.Error(w, "class_id, academic_year and term are required", http.StatusBadRequest)
		return
	}
	status := r.URL.Query().Get("status")

	rows, err := queryAssignments(r.Context(), h.db, h.schoolID, classID, academicYear, term, status)
	if err != nil {
		http.Error(w, "query assignments error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	writer := csv.NewWriter(w)
	_ = writer.Write([]string{
		"school_id",
		"assignment_id",
		"student_id",
		"student_name",
		"class_id",
		"academic_year",
		"term",
		"original_amount",
		"discount_amount",
		"total_amount",
		"amount_paid",
		"balance",
		"status",
		"currency",
		"scholarship_name",
		"due_date",
		"created_at",
		"updated_at",
	})
	for _, row := range rows {
		_ = writer.Write([]string{
			row.SchoolID,
			row.ID,
			row.StudentID,
			row.StudentName,
			row.ClassID,
			row.AcademicYear,
			row.Term,
			formatFloat(row.OriginalAmount),
			formatFloat(row.DiscountAmount),
			formatFloat(row.TotalAmount),
			formatFloat(row.AmountPaid),
			formatFloat(row.Balance),
			row.Status,
			row.Currency,
			row.ScholarshipName,
			row.DueDate,
			formatTime(row.CreatedAt),
			formatTime(row.UpdatedAt),
		})
	}
	writer.Flush()
}

type feeStats struct {
	ClassID        string  `json:"class_id"`
	AcademicYear   string  `json:"academic_year"`
	Term           string  `json:"term"`
	Students       int     `json:"students"`
	TotalBilled    float64 `json:"total_billed"`
	TotalPaid      float64 `json:"total_paid"`
	TotalBalance   float64 `json:"total_balance"`
	UnpaidCount    int     `json:"unpaid_count"`
	PartialCount   int     `json:"partial_count"`
	PaidCount      int     `json:"paid_count"`
	OverpaidCount  int     `json:"overpaid_count"`
	TotalDiscounts float64 `json:"total_discounts"`
}

type assignmentRow struct {
	ID              string
	SchoolID        string
	StudentID       string
	StudentName     string
	ClassID         string
	AcademicYear    string
	Term            string
	OriginalAmount  float64
	DiscountAmount  float64
	TotalAmount     float64
	AmountPaid      float64
	Balance         float64
	Status          string
	Currency        string
	ScholarshipName string
	DueDate         string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func queryFeeStats(ctx context.Context, db *sql.DB, schoolID, classID, academicYear, term string) (feeStats, error) {
	stats := feeStats{ClassID: classID, AcademicYear: academicYear, Term: term}
	err := db.QueryRowContext(ctx, `
SELECT
	COUNT(*),
	COALESCE(SUM(total_amount), 0),
	COALESCE(SUM(amount_paid), 0),
	COALESCE(SUM(balance), 0),
	COALESCE(SUM(discount_amount), 0),
	COUNT(*) FILTER (WHERE status = 'unpaid'),
	COUNT(*) FILTER (WHERE status = 'partial'),
	COUNT(*) FILTER (WHERE status = 'paid'),
	COUNT(*) FILTER (WHERE status = 'overpaid')
FROM student_fee_assignments
WHERE school_id = $1
	AND class_id = $2
	AND academic_year = $3
	AND term = $4`, schoolID, classID, academicYear, term).Scan(
		&stats.Students,
		&stats.TotalBilled,
		&stats.TotalPaid,
		&stats.TotalBalance,
		&stats.TotalDiscounts,
		&stats.UnpaidCount,
		&stats.PartialCount,
		&stats.PaidCount,
		&stats.OverpaidCount,
	)
	if err != nil {
		return feeStats{}, err
	}
	return stats, nil
}

func queryAssignments(ctx context.Context, db *sql.DB, schoolID, classID, academicYear, term, status string) ([]assignmentRow, error) {
	query := `
SELECT
	id,
	school_id,
	student_id,
	student_name,
	class_id,
	academic_year,
	term,
	original_amount,
	discount_amount,
	total_amount,
	amount_paid,
	balance,
	status,
	currency,
	scholarship_name,
	due_date,
	created_at,
	updated_at
FROM student_fee_assignments
WHERE school_id = $1
	AND class_id = $2
	AND academic_year = $3
	AND term = $4`
	args := []any{schoolID, classID, academicYear, term}
	if status != "" {
		if !validStatusFilter(status) {
			return nil, errors.New("status must be unpaid, partial, paid or overpaid")
		}
		query += `
	AND status = $5`
		args = append(args, status)
	}
	query += `
ORDER BY student_name ASC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []assignmentRow
	for rows.Next() {
		var row assignmentRow
		var scholarshipName, dueDate sql.NullString
		if err := rows.Scan(
			&row.ID,
			&row.SchoolID,
			&row.StudentID,
			&row.StudentName,
			&row.ClassID,
			&row.AcademicYear,
			&row.Term,
			&row.OriginalAmount,
			&row.DiscountAmount,
			&row.TotalAmount,
			&row.AmountPaid,
			&row.Balance,
			&row.Status,
			&row.Currency,
			&scholarshipName,
			&dueDate,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, err
		}
		row.ScholarshipName = scholarshipName.String
		row.DueDate = dueDate.String
		row.CreatedAt = row.CreatedAt.UTC()
		row.UpdatedAt = row.UpdatedAt.UTC()
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func validStatusFilter(status string) bool {
	switch status {
	case "unpaid", "partial", "paid", "overpaid":
		return true
	}
	return false
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(timeLayout)
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
