package scholarship

import (
	"errors"
	"testing"
)

func validScholarship() Scholarship {
	return Scholarship{
		ID:            "sch-1",
		Name:          "Merit Award",
		Type:          TypePercentage,
		PercentageOff: 25,
		ApplicableTo:  ApplicableAll,
		StartDate:     "2025-09-01",
		Status:        StatusActive,
		CreatedBy:     "admin-1",
	}
}

func TestValidate_OK(t *testing.T) {
	s := validScholarship()
	if err := s.Validate(); err != nil {
		t.Fatalf("expected valid scholarship, got %v", err)
	}
}

func TestValidate_PercentageRange(t *testing.T) {
	s := validScholarship()
	s.PercentageOff = 120
	if err := s.Validate(); !errors.Is(err, ErrPercentageRange) {
		t.Fatalf("expected ErrPercentageRange, got %v", err)
	}
}

func TestValidate_FixedAmountMustBePositive(t *testing.T) {
	s := validScholarship()
	s.Type = TypeFixedAmount
	s.FixedAmountOff = 0
	if err := s.Validate(); !errors.Is(err, ErrFixedAmountRange) {
		t.Fatalf("expected ErrFixedAmountRange, got %v", err)
	}
}

func TestValidate_SpecificClassesNeedsIDs(t *testing.T) {
	s := validScholarship()
	s.ApplicableTo = ApplicableClasses
	if err := s.Validate(); !errors.Is(err, ErrEmptyClassIDs) {
		t.Fatalf("expected ErrEmptyClassIDs, got %v", err)
	}
	s.ClassIDs = []string{"class-1"}
	if err := s.Validate(); err != nil {
		t.Fatalf("expected valid scholarship, got %v", err)
	}
}

func TestValidate_EndDateAfterStart(t *testing.T) {
	s := validScholarship()
	s.EndDate = "2025-08-01"
	if err := s.Validate(); !errors.Is(err, ErrEndBeforeStart) {
		t.Fatalf("expected ErrEndBeforeStart, got %v", err)
	}
}

func TestValidate_BeneficiaryLimits(t *testing.T) {
	s := validScholarship()
	s.MaxBeneficiaries = 10
	s.CurrentBeneficiaries = 11
	if err := s.Validate(); !errors.Is(err, ErrBeneficiaryLimit) {
		t.Fatalf("expected ErrBeneficiaryLimit, got %v", err)
	}
}

func TestValidateISODate(t *testing.T) {
	cases := []struct {
		date string
		ok   bool
	}{
		{"2025-09-01", true},
		{"1900-01-01", true},
		{"2100-12-31", true},
		{"2025-9-1", false},
		{"2025/09/01", false},
		{"1899-01-01", false},
		{"2025-13-01", false},
		{"2025-01-32", false},
		{"", false},
	}
	for _, tc := range cases {
		err := ValidateISODate(tc.date)
		if tc.ok && err != nil {
			t.Fatalf("expected %q valid, got %v", tc.date, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("expected %q invalid", tc.date)
		}
	}
}

func TestAppliesTo(t *testing.T) {
	s := validScholarship()
	s.ApplicableTo = ApplicableStudents
	s.StudentIDs = []string{"stu-1"}
	s.EndDate = "2026-07-31"

	if !s.AppliesTo("stu-1", "class-1", "2025/2026", "first", "2025-10-01") {
		t.Fatalf("expected scholarship to apply to stu-1")
	}
	if s.AppliesTo("stu-2", "class-1", "2025/2026", "first", "2025-10-01") {
		t.Fatalf("expected scholarship not to apply to stu-2")
	}
	if s.AppliesTo("stu-1", "class-1", "2025/2026", "first", "2026-09-01") {
		t.Fatalf("expected scholarship expired after end date")
	}

	s.Status = StatusSuspended
	if s.AppliesTo("stu-1", "class-1", "2025/2026", "first", "2025-10-01") {
		t.Fatalf("expected suspended scholarship not to apply")
	}
}
