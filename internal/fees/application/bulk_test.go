package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	catalog "schoolfin-cloud/internal/catalog/domain"
	catalogmem "schoolfin-cloud/internal/catalog/infrastructure/memory"
	fees "schoolfin-cloud/internal/fees/domain"
	feesmem "schoolfin-cloud/internal/fees/infrastructure/memory"
	scholarship "schoolfin-cloud/internal/scholarship/domain"
	scholarshipmem "schoolfin-cloud/internal/scholarship/infrastructure/memory"
	students "schoolfin-cloud/internal/students/domain"
	studentsmem "schoolfin-cloud/internal/students/infrastructure/memory"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fixture struct {
	service      *Service
	assignments  *feesmem.Repository
	structures   *catalogmem.StructureRepository
	scholarships *scholarshipmem.Repository
	roster       *studentsmem.Repository
}

func newFixture(t *testing.T, cfg EngineConfig) *fixture {
	t.Helper()
	f := &fixture{
		assignments:  feesmem.NewRepository(),
		structures:   catalogmem.NewStructureRepository(),
		scholarships: scholarshipmem.NewRepository(),
		roster:       studentsmem.NewRepository(),
	}
	service, err := NewService(
		f.assignments,
		f.structures,
		f.scholarships,
		f.roster,
		cfg,
		"school-1",
		"NGN",
		WithClock(fixedClock{now: time.Date(2026, time.January, 10, 9, 0, 0, 0, time.UTC)}),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.service = service
	return f
}

func (f *fixture) seedStructure(t *testing.T) *catalog.FeeStructure {
	t.Helper()
	structure := &catalog.FeeStructure{
		ID:           "fs-1",
		ClassID:      "class-1",
		AcademicYear: "2025/2026",
		Term:         catalog.TermFirst,
		Active:       true,
		FeeItems: []catalog.FeeItem{
			{CategoryID: "cat-tuition", CategoryName: "Tuition", FeeType: "tuition", Amount: 20000, IsMandatory: true},
			{CategoryID: "cat-feeding", CategoryName: "Feeding", FeeType: "feeding", Amount: 5000, IsOptional: true},
		},
	}
	if err := f.structures.Save(context.Background(), structure); err != nil {
		t.Fatalf("seed structure: %v", err)
	}
	return structure
}

func (f *fixture) seedStudents(t *testing.T, count int) []string {
	t.Helper()
	ids := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		id := fmt.Sprintf("stu-%d", i)
		f.roster.PutStudent(students.StudentProfile{
			ID:        id,
			SchoolID:  "school-1",
			ClassID:   "class-1",
			FirstName: fmt.Sprintf("Student%d", i),
			LastName:  "Test",
			Status:    students.StatusActive,
		})
		ids = append(ids, id)
	}
	return ids
}

func (f *fixture) seedScholarship(t *testing.T, s scholarship.Scholarship) {
	t.Helper()
	if s.StartDate == "" {
		s.StartDate = "2025-09-01"
	}
	if s.Status == "" {
		s.Status = scholarship.StatusActive
	}
	if s.CreatedBy == "" {
		s.CreatedBy = "bursar-1"
	}
	if err := f.scholarships.Save(context.Background(), &s); err != nil {
		t.Fatalf("seed scholarship: %v", err)
	}
}

// failingRepo wraps the memory repository and fails Create for one
// student id.
type failingRepo struct {
	*feesmem.Repository
	failFor string
}

func (r *failingRepo) Create(ctx context.Context, a *fees.Assignment) error {
	if a.StudentID == r.failFor {
		return errors.New("write refused")
	}
	return r.Repository.Create(ctx, a)
}

func TestBulkAssign_PartialFailureAccounting(t *testing.T) {
	f := newFixture(t, EngineConfig{DiscountScope: DiscountScopeFull})
	f.seedStructure(t)
	ids := f.seedStudents(t, 12)
	ctx := context.Background()

	// Two students already hold assignments for the term.
	for _, id := range ids[:2] {
		_, err := f.service.AssignStudent(ctx, IndividualRequest{
			StudentID:    id,
			ClassID:      "class-1",
			AcademicYear: "2025/2026",
			Term:         fees.TermFirst,
		})
		if err != nil {
			t.Fatalf("seed assignment for %s: %v", id, err)
		}
	}

	failing := &failingRepo{Repository: f.assignments, failFor: "stu-7"}
	service, err := NewService(failing, f.structures, f.scholarships, f.roster,
		EngineConfig{DiscountScope: DiscountScopeFull}, "school-1", "NGN")
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	summary, err := service.BulkAssign(ctx, BulkRequest{
		ClassID:      "class-1",
		AcademicYear: "2025/2026",
		Term:         fees.TermFirst,
		StudentIDs:   ids,
	})
	if err != nil {
		t.Fatalf("bulk assign: %v", err)
	}

	if summary.DuplicateCount != 2 {
		t.Fatalf("expected 2 duplicates, got %d", summary.DuplicateCount)
	}
	if summary.SuccessCount != 9 {
		t.Fatalf("expected 9 successes, got %d", summary.SuccessCount)
	}
	if len(summary.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(summary.Errors))
	}
	if summary.Errors[0].StudentID != "stu-7" {
		t.Fatalf("expected error for stu-7, got %s", summary.Errors[0].StudentID)
	}
	total := summary.SuccessCount + summary.DuplicateCount + len(summary.Errors)
	if total != len(ids) {
		t.Fatalf("expected accounting to cover %d candidates, got %d", len(ids), total)
	}
}

func TestBulkAssign_MandatoryItemsAlwaysSelected(t *testing.T) {
	f := newFixture(t, EngineConfig{DiscountScope: DiscountScopeFull})
	f.seedStructure(t)
	f.seedStudents(t, 1)
	ctx := context.Background()

	summary, err := f.service.BulkAssign(ctx, BulkRequest{
		ClassID:      "class-1",
		AcademicYear: "2025/2026",
		Term:         fees.TermFirst,
		StudentIDs:   []string{"stu-1"},
	})
	if err != nil {
		t.Fatalf("bulk assign: %v", err)
	}
	if summary.SuccessCount != 1 {
		t.Fatalf("expected 1 success, got %d", summary.SuccessCount)
	}

	stored, err := f.assignments.Get(ctx, fees.BuildAssignmentID("stu-1", "class-1", "2025/2026", fees.TermFirst))
	if err != nil || stored == nil {
		t.Fatalf("expected stored assignment, got %v %v", stored, err)
	}
	for _, item := range stored.FeeItems {
		if item.IsMandatory && !item.IsSelected {
			t.Fatalf("mandatory item %s not selected", item.CategoryID)
		}
	}
	if stored.TotalAmount != 20000 {
		t.Fatalf("expected total 20000 with no optional selection, got %v", stored.TotalAmount)
	}
}

func TestBulkAssign_PerStudentSelectionsWinOverShared(t *testing.T) {
	f := newFixture(t, EngineConfig{DiscountScope: DiscountScopeFull})
	f.seedStructure(t)
	f.seedStudents(t, 2)
	ctx := context.Background()

	_, err := f.service.BulkAssign(ctx, BulkRequest{
		ClassID:           "class-1",
		AcademicYear:      "2025/2026",
		Term:              fees.TermFirst,
		StudentIDs:        []string{"stu-1", "stu-2"},
		SharedSelections:  []string{"cat-feeding"},
		StudentSelections: map[string][]string{"stu-2": {}},
	})
	if err != nil {
		t.Fatalf("bulk assign: %v", err)
	}

	first, _ := f.assignments.Get(ctx, fees.BuildAssignmentID("stu-1", "class-1", "2025/2026", fees.TermFirst))
	if first.TotalAmount != 25000 {
		t.Fatalf("expected stu-1 billed 25000 via shared selection, got %v", first.TotalAmount)
	}
	second, _ := f.assignments.Get(ctx, fees.BuildAssignmentID("stu-2", "class-1", "2025/2026", fees.TermFirst))
	if second.TotalAmount != 20000 {
		t.Fatalf("expected stu-2 billed 20000 via empty per-student selection, got %v", second.TotalAmount)
	}
}

func TestBulkAssign_UnknownSelectionIsPerStudentError(t *testing.T) {
	f := newFixture(t, EngineConfig{DiscountScope: DiscountScopeFull})
	f.seedStructure(t)
	f.seedStudents(t, 2)
	ctx := context.Background()

	summary, err := f.service.BulkAssign(ctx, BulkRequest{
		ClassID:           "class-1",
		AcademicYear:      "2025/2026",
		Term:              fees.TermFirst,
		StudentIDs:        []string{"stu-1", "stu-2"},
		StudentSelections: map[string][]string{"stu-2": {"cat-missing"}},
	})
	if err != nil {
		t.Fatalf("bulk assign: %v", err)
	}
	if summary.SuccessCount != 1 || len(summary.Errors) != 1 {
		t.Fatalf("expected 1 success and 1 error, got %d and %d", summary.SuccessCount, len(summary.Errors))
	}
}

func TestBulkAssign_ScholarshipNotFoundFailsUpfront(t *testing.T) {
	f := newFixture(t, EngineConfig{DiscountScope: DiscountScopeFull})
	f.seedStructure(t)
	f.seedStudents(t, 3)

	_, err := f.service.BulkAssign(context.Background(), BulkRequest{
		ClassID:       "class-1",
		AcademicYear:  "2025/2026",
		Term:          fees.TermFirst,
		StudentIDs:    []string{"stu-1", "stu-2", "stu-3"},
		ScholarshipID: "sch-missing",
	})
	if !errors.Is(err, fees.ErrScholarshipNotFound) {
		t.Fatalf("expected ErrScholarshipNotFound, got %v", err)
	}
}

func TestBulkAssign_EmptyCandidatesRejected(t *testing.T) {
	f := newFixture(t, EngineConfig{DiscountScope: DiscountScopeFull})
	f.seedStructure(t)

	_, err := f.service.BulkAssign(context.Background(), BulkRequest{
		ClassID:      "class-1",
		AcademicYear: "2025/2026",
		Term:         fees.TermFirst,
	})
	if !errors.Is(err, fees.ErrEmptyCandidates) {
		t.Fatalf("expected ErrEmptyCandidates, got %v", err)
	}
}

func TestAssignStudent_DuplicateSurfaced(t *testing.T) {
	f := newFixture(t, EngineConfig{DiscountScope: DiscountScopeFull})
	f.seedStructure(t)
	f.seedStudents(t, 1)
	ctx := context.Background()

	req := IndividualRequest{
		StudentID:    "stu-1",
		ClassID:      "class-1",
		AcademicYear: "2025/2026",
		Term:         fees.TermFirst,
	}
	if _, err := f.service.AssignStudent(ctx, req); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	if _, err := f.service.AssignStudent(ctx, req); !errors.Is(err, fees.ErrDuplicateAssignment) {
		t.Fatalf("expected ErrDuplicateAssignment, got %v", err)
	}
}

func TestAssignStudent_ScholarshipRestrictedToOtherStudent(t *testing.T) {
	f := newFixture(t, EngineConfig{DiscountScope: DiscountScopeFull})
	f.seedStructure(t)
	f.seedStudents(t, 1)
	f.seedScholarship(t, scholarship.Scholarship{
		ID:            "sch-1",
		Name:          "Board Scholarship",
		Type:          scholarship.TypePercentage,
		PercentageOff: 50,
		ApplicableTo:  scholarship.ApplicableStudents,
		StudentIDs:    []string{"stu-999"},
	})

	_, err := f.service.AssignStudent(context.Background(), IndividualRequest{
		StudentID:     "stu-1",
		ClassID:       "class-1",
		AcademicYear:  "2025/2026",
		Term:          fees.TermFirst,
		ScholarshipID: "sch-1",
	})
	if !errors.Is(err, fees.ErrScholarshipNotApplicable) {
		t.Fatalf("expected ErrScholarshipNotApplicable, got %v", err)
	}
}

func TestAssignStudent_ScholarshipOutsideValidityWindow(t *testing.T) {
	f := newFixture(t, EngineConfig{DiscountScope: DiscountScopeFull})
	f.seedStructure(t)
	f.seedStudents(t, 1)
	// The fixture clock reads 2026-01-10, past this end date.
	f.seedScholarship(t, scholarship.Scholarship{
		ID:            "sch-expired",
		Name:          "Last Year Award",
		Type:          scholarship.TypePercentage,
		PercentageOff: 25,
		ApplicableTo:  scholarship.ApplicableAll,
		EndDate:       "2025-12-31",
	})

	_, err := f.service.AssignStudent(context.Background(), IndividualRequest{
		StudentID:     "stu-1",
		ClassID:       "class-1",
		AcademicYear:  "2025/2026",
		Term:          fees.TermFirst,
		ScholarshipID: "sch-expired",
	})
	if !errors.Is(err, fees.ErrScholarshipNotApplicable) {
		t.Fatalf("expected ErrScholarshipNotApplicable, got %v", err)
	}
}

func TestBulkAssign_ScholarshipAppliesPerStudent(t *testing.T) {
	f := newFixture(t, EngineConfig{DiscountScope: DiscountScopeFull})
	f.seedStructure(t)
	f.seedStudents(t, 3)
	f.seedScholarship(t, scholarship.Scholarship{
		ID:            "sch-half",
		Name:          "Half Tuition",
		Type:          scholarship.TypePercentage,
		PercentageOff: 50,
		ApplicableTo:  scholarship.ApplicableStudents,
		StudentIDs:    []string{"stu-2"},
	})
	ctx := context.Background()

	summary, err := f.service.BulkAssign(ctx, BulkRequest{
		ClassID:       "class-1",
		AcademicYear:  "2025/2026",
		Term:          fees.TermFirst,
		StudentIDs:    []string{"stu-1", "stu-2", "stu-3"},
		ScholarshipID: "sch-half",
	})
	if err != nil {
		t.Fatalf("bulk assign: %v", err)
	}
	if summary.SuccessCount != 1 {
		t.Fatalf("expected 1 success, got %d", summary.SuccessCount)
	}
	if len(summary.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(summary.Errors))
	}
	for _, e := range summary.Errors {
		if e.StudentID == "stu-2" {
			t.Fatalf("covered student stu-2 reported as error: %s", e.Reason)
		}
	}

	covered, _ := f.assignments.Get(ctx, fees.BuildAssignmentID("stu-2", "class-1", "2025/2026", fees.TermFirst))
	if covered == nil {
		t.Fatalf("expected assignment for covered student")
	}
	if covered.DiscountAmount != 10000 || covered.TotalAmount != 10000 {
		t.Fatalf("expected discount 10000 and total 10000, got %v and %v", covered.DiscountAmount, covered.TotalAmount)
	}
	uncovered, _ := f.assignments.Get(ctx, fees.BuildAssignmentID("stu-1", "class-1", "2025/2026", fees.TermFirst))
	if uncovered != nil {
		t.Fatalf("expected no assignment for uncovered student, got %v", uncovered.ID)
	}
}

func TestAssignStudent_MalformedScholarshipClampedToZero(t *testing.T) {
	f := newFixture(t, EngineConfig{DiscountScope: DiscountScopeFull})
	f.seedStructure(t)
	f.seedStudents(t, 1)
	// Stored record with a negative percentage, bypassing validation.
	f.scholarships.PutRaw(scholarship.Scholarship{
		ID:            "sch-bad",
		Name:          "Corrupt Record",
		Type:          scholarship.TypePercentage,
		PercentageOff: -10,
		ApplicableTo:  scholarship.ApplicableAll,
		StartDate:     "2025-09-01",
		Status:        scholarship.StatusActive,
	})

	assignment, err := f.service.AssignStudent(context.Background(), IndividualRequest{
		StudentID:     "stu-1",
		ClassID:       "class-1",
		AcademicYear:  "2025/2026",
		Term:          fees.TermFirst,
		ScholarshipID: "sch-bad",
	})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if assignment.DiscountAmount != 0 {
		t.Fatalf("expected discount clamped to 0, got %v", assignment.DiscountAmount)
	}
	if assignment.TotalAmount != 20000 {
		t.Fatalf("expected full total 20000, got %v", assignment.TotalAmount)
	}
}

func TestAssignClass_UsesActiveRoster(t *testing.T) {
	f := newFixture(t, EngineConfig{DiscountScope: DiscountScopeFull})
	f.seedStructure(t)
	f.seedStudents(t, 3)
	f.roster.PutStudent(students.StudentProfile{
		ID:        "stu-gone",
		SchoolID:  "school-1",
		ClassID:   "class-1",
		FirstName: "Withdrawn",
		LastName:  "Test",
		Status:    students.StatusInactive,
	})
	ctx := context.Background()

	summary, err := f.service.AssignClass(ctx, BulkRequest{
		ClassID:      "class-1",
		AcademicYear: "2025/2026",
		Term:         fees.TermFirst,
	})
	if err != nil {
		t.Fatalf("assign class: %v", err)
	}
	if summary.SuccessCount != 3 {
		t.Fatalf("expected 3 successes, got %d", summary.SuccessCount)
	}
	skipped, _ := f.assignments.Get(ctx, fees.BuildAssignmentID("stu-gone", "class-1", "2025/2026", fees.TermFirst))
	if skipped != nil {
		t.Fatalf("expected no assignment for inactive student")
	}
}

func TestFindDuplicates(t *testing.T) {
	f := newFixture(t, EngineConfig{DiscountScope: DiscountScopeFull})
	f.seedStructure(t)
	f.seedStudents(t, 3)
	ctx := context.Background()

	_, err := f.service.AssignStudent(ctx, IndividualRequest{
		StudentID:    "stu-2",
		ClassID:      "class-1",
		AcademicYear: "2025/2026",
		Term:         fees.TermFirst,
	})
	if err != nil {
		t.Fatalf("seed assignment: %v", err)
	}

	duplicates, err := f.service.FindDuplicates(ctx, "class-1", "2025/2026", fees.TermFirst, []string{"stu-1", "stu-2", "stu-3"})
	if err != nil {
		t.Fatalf("find duplicates: %v", err)
	}
	if len(duplicates) != 1 || duplicates[0] != "stu-2" {
		t.Fatalf("expected [stu-2], got %v", duplicates)
	}
}
