package fees

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	StatusUnpaid   = "unpaid"
	StatusPartial  = "partial"
	StatusPaid     = "paid"
	StatusOverpaid = "overpaid"

	TermFirst  = "first"
	TermSecond = "second"
	TermThird  = "third"

	// amountTolerance absorbs float rounding when reconciling totals.
	amountTolerance = 0.01
)

// ValidTerm reports whether term is one of the three school terms.
func ValidTerm(term string) bool {
	switch term {
	case TermFirst, TermSecond, TermThird:
		return true
	}
	return false
}

// StudentFeeItem is one billed line of an assignment. Per-item paid and
// balance fields are carried as data, payment recording mutates them
// outside this package.
type StudentFeeItem struct {
	CategoryID   string
	CategoryName string
	FeeType      string
	Amount       float64
	AmountPaid   float64
	Balance      float64
	IsMandatory  bool
	IsOptional   bool
	IsSelected   bool
}

// Assignment is the billing record instantiated for one student from a
// fee structure. At most one assignment exists per
// (student, class, academic year, term).
type Assignment struct {
	ID               string
	SchoolID         string
	StudentID        string
	StudentName      string
	ClassID          string
	FeeStructureID   string
	AcademicYear     string
	Term             string
	FeeItems         []StudentFeeItem
	ScholarshipID    string
	ScholarshipName  string
	ScholarshipType  string
	ScholarshipValue float64
	OriginalAmount   float64
	DiscountAmount   float64
	TotalAmount      float64
	AmountPaid       float64
	Balance          float64
	Status           string
	Currency         string
	DueDate          string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DeriveStatus maps amounts to the payment status. The balance check
// wins over the paid check so a zero total with no payment reads paid.
func DeriveStatus(totalAmount, amountPaid float64) string {
	balance := totalAmount - amountPaid
	switch {
	case balance < -amountTolerance:
		return StatusOverpaid
	case math.Abs(balance) <= amountTolerance:
		return StatusPaid
	case amountPaid <= 0:
		return StatusUnpaid
	default:
		return StatusPartial
	}
}

// BuildAssignmentID derives a stable id from the uniqueness key.
func BuildAssignmentID(studentID, classID, academicYear, term string) string {
	base := studentID + "|" + classID + "|" + academicYear + "|" + term
	hash := sha256.Sum256([]byte(base))
	return "asg-" + hex.EncodeToString(hash[:8])
}

// Validate checks the assignment document before persistence.
func (a Assignment) Validate() error {
	if strings.TrimSpace(a.StudentID) == "" {
		return ErrEmptyStudentID
	}
	if strings.TrimSpace(a.StudentName) == "" {
		return ErrEmptyStudentName
	}
	if strings.TrimSpace(a.ClassID) == "" {
		return ErrEmptyClassID
	}
	if strings.TrimSpace(a.FeeStructureID) == "" {
		return ErrEmptyStructureID
	}
	if strings.TrimSpace(a.AcademicYear) == "" {
		return ErrEmptyAcademicYear
	}
	if !ValidTerm(a.Term) {
		return ErrInvalidTerm
	}
	if len(a.FeeItems) == 0 {
		return ErrNoFeeItems
	}
	for _, item := range a.FeeItems {
		if item.CategoryID == "" {
			return ErrEmptyCategoryID
		}
		if item.Amount < 0 {
			return ErrNegativeAmount
		}
		if item.IsMandatory && item.IsOptional {
			return ErrItemFlagConflict
		}
	}

	if a.TotalAmount < 0 || a.AmountPaid < 0 || a.DiscountAmount < 0 {
		return ErrNegativeAmount
	}
	if a.ScholarshipID != "" {
		if a.DiscountAmount > a.OriginalAmount+amountTolerance {
			return ErrAmountMismatch
		}
		if math.Abs(a.TotalAmount-(a.OriginalAmount-a.DiscountAmount)) > amountTolerance {
			return ErrAmountMismatch
		}
	}
	if math.Abs(a.Balance-(a.TotalAmount-a.AmountPaid)) > amountTolerance {
		return ErrAmountMismatch
	}
	if a.Status != DeriveStatus(a.TotalAmount, a.AmountPaid) {
		return ErrStatusMismatch
	}
	if a.DueDate != "" {
		if err := ValidateISODate(a.DueDate); err != nil {
			return ErrInvalidDueDate
		}
	}
	return nil
}

// SelectedCategoryIDs returns the category ids of the optional items the
// student selected. Reconciliation replays these against the current
// structure definition.
func (a Assignment) SelectedCategoryIDs() []string {
	var ids []string
	for _, item := range a.FeeItems {
		if item.IsOptional && item.IsSelected {
			ids = append(ids, item.CategoryID)
		}
	}
	return ids
}

// Clone returns a deep copy of the assignment.
func (a Assignment) Clone() Assignment {
	out := a
	out.FeeItems = make([]StudentFeeItem, len(a.FeeItems))
	copy(out.FeeItems, a.FeeItems)
	return out
}

// ValidateISODate checks the YYYY-MM-DD shape and field ranges.
func ValidateISODate(date string) error {
	if len(date) != 10 {
		return ErrInvalidDueDate
	}
	parts := strings.Split(date, "-")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return ErrInvalidDueDate
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return ErrInvalidDueDate
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return ErrInvalidDueDate
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return ErrInvalidDueDate
	}
	if year < 1900 || year > 2100 || month < 1 || month > 12 || day < 1 || day > 31 {
		return ErrInvalidDueDate
	}
	return nil
}
