package scholarship

import (
	"strconv"
	"strings"
	"time"
)

const (
	TypePercentage  = "percentage"
	TypeFixedAmount = "fixed_amount"
	TypeFullWaiver  = "full_waiver"

	ApplicableAll      = "all"
	ApplicableClasses  = "specific_classes"
	ApplicableStudents = "specific_students"

	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusExpired   = "expired"
)

// Scholarship is a discount rule applied at assignment time. The fee
// engine only reads scholarships, it never mutates them.
type Scholarship struct {
	ID                    string
	Name                  string
	Type                  string
	PercentageOff         float64
	FixedAmountOff        float64
	MaxDiscountPerStudent float64
	ApplicableTo          string
	ClassIDs              []string
	StudentIDs            []string
	FeeTypeInclude        []string
	FeeTypeExclude        []string
	StartDate             string
	EndDate               string
	AcademicYear          string
	Term                  string
	Status                string
	CreatedBy             string
	MaxBeneficiaries      int
	CurrentBeneficiaries  int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Validate enforces the strict creation-time rules. The discount
// calculator stays tolerant of malformed stored records, this keeps bad
// records from being created in the first place.
func (s Scholarship) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	switch s.Type {
	case TypePercentage:
		if s.PercentageOff < 0 || s.PercentageOff > 100 {
			return ErrPercentageRange
		}
	case TypeFixedAmount:
		if s.FixedAmountOff <= 0 {
			return ErrFixedAmountRange
		}
	case TypeFullWaiver:
	default:
		return ErrInvalidType
	}

	switch s.ApplicableTo {
	case ApplicableAll:
	case ApplicableClasses:
		if len(s.ClassIDs) == 0 {
			return ErrEmptyClassIDs
		}
	case ApplicableStudents:
		if len(s.StudentIDs) == 0 {
			return ErrEmptyStudentIDs
		}
	default:
		return ErrInvalidApplicability
	}

	if err := ValidateISODate(s.StartDate); err != nil {
		return err
	}
	if s.EndDate != "" {
		if err := ValidateISODate(s.EndDate); err != nil {
			return err
		}
		if s.EndDate <= s.StartDate {
			return ErrEndBeforeStart
		}
	}

	if s.MaxBeneficiaries != 0 {
		if s.MaxBeneficiaries < 1 {
			return ErrBeneficiaryLimit
		}
		if s.CurrentBeneficiaries > s.MaxBeneficiaries {
			return ErrBeneficiaryLimit
		}
	}

	switch s.Status {
	case StatusActive, StatusSuspended, StatusExpired:
	default:
		return ErrInvalidStatus
	}

	if strings.TrimSpace(s.CreatedBy) == "" {
		return ErrEmptyCreatedBy
	}
	return nil
}

// AppliesTo reports whether the scholarship covers a student in the
// given class, academic year and term on the given date (YYYY-MM-DD,
// lexicographic comparison on validated dates).
func (s Scholarship) AppliesTo(studentID, classID, academicYear, term, date string) bool {
	if s.Status != StatusActive {
		return false
	}
	switch s.ApplicableTo {
	case ApplicableAll:
	case ApplicableClasses:
		if !contains(s.ClassIDs, classID) {
			return false
		}
	case ApplicableStudents:
		if !contains(s.StudentIDs, studentID) {
			return false
		}
	default:
		return false
	}
	if s.AcademicYear != "" && s.AcademicYear != academicYear {
		return false
	}
	if s.Term != "" && s.Term != term {
		return false
	}
	if date != "" {
		if s.StartDate != "" && date < s.StartDate {
			return false
		}
		if s.EndDate != "" && date > s.EndDate {
			return false
		}
	}
	return true
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the scholarship.
func (s Scholarship) Clone() Scholarship {
	out := s
	out.ClassIDs = append([]string(nil), s.ClassIDs...)
	out.StudentIDs = append([]string(nil), s.StudentIDs...)
	out.FeeTypeInclude = append([]string(nil), s.FeeTypeInclude...)
	out.FeeTypeExclude = append([]string(nil), s.FeeTypeExclude...)
	return out
}

// ValidateISODate checks the YYYY-MM-DD shape and that each field is in
// range. Day bounds are calendar-agnostic, 1 to 31.
func ValidateISODate(date string) error {
	if len(date) != 10 {
		return ErrInvalidDate
	}
	parts := strings.Split(date, "-")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return ErrInvalidDate
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return ErrInvalidDate
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return ErrInvalidDate
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return ErrInvalidDate
	}
	if year < 1900 || year > 2100 {
		return ErrInvalidDate
	}
	if month < 1 || month > 12 {
		return ErrInvalidDate
	}
	if day < 1 || day > 31 {
		return ErrInvalidDate
	}
	return nil
}
