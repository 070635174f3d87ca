package application

import (
	"context"
	"errors"
	"log"
	"time"

	catalog "schoolfin-cloud/internal/catalog/domain"
	fees "schoolfin-cloud/internal/fees/domain"
	scholarship "schoolfin-cloud/internal/scholarship/domain"
	students "schoolfin-cloud/internal/students/domain"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// StructureReader resolves fee structures.
type StructureReader interface {
	Get(ctx context.Context, id string) (*catalog.FeeStructure, error)
	GetByClassAndTerm(ctx context.Context, classID, academicYear, term string) (*catalog.FeeStructure, error)
}

// ScholarshipReader resolves scholarships.
type ScholarshipReader interface {
	Get(ctx context.Context, id string) (*scholarship.Scholarship, error)
}

// StudentReader resolves the student roster.
type StudentReader interface {
	Get(ctx context.Context, id string) (*students.StudentProfile, error)
	ListActiveByClass(ctx context.Context, classID string) ([]students.StudentProfile, error)
}

// Service drives fee assignment and reconciliation workflows.
type Service struct {
	assignments  fees.Repository
	structures   StructureReader
	scholarships ScholarshipReader
	roster       StudentReader
	clock        Clock
	cfg          EngineConfig
	schoolID     string
	currency     string
	logger       *log.Logger
}

// ServiceOption configures the service.
type ServiceOption func(*Service)

// WithClock overrides the clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *log.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService constructs a fee engine service.
func NewService(
	assignments fees.Repository,
	structures StructureReader,
	scholarships ScholarshipReader,
	roster StudentReader,
	cfg EngineConfig,
	schoolID, currency string,
	opts ...ServiceOption,
) (*Service, error) {
	if assignments == nil {
		return nil, errors.New("fee service: nil assignment repo")
	}
	if structures == nil {
		return nil, errors.New("fee service: nil structure reader")
	}
	if scholarships == nil {
		return nil, errors.New("fee service: nil scholarship reader")
	}
	if roster == nil {
		return nil, errors.New("fee service: nil student reader")
	}
	s := &Service{
		assignments:  assignments,
		structures:   structures,
		scholarships: scholarships,
		roster:       roster,
		clock:        systemClock{},
		cfg:          cfg,
		schoolID:     schoolID,
		currency:     currency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

// discountRule maps a scholarship onto the calculator's rule and filter.
func (s *Service) discountRule(sch *scholarship.Scholarship) (*fees.DiscountRule, fees.ItemFilter) {
	if sch == nil {
		return nil, nil
	}
	rule := &fees.DiscountRule{
		Type:                  sch.Type,
		PercentageOff:         sch.PercentageOff,
		FixedAmountOff:        sch.FixedAmountOff,
		MaxDiscountPerStudent: sch.MaxDiscountPerStudent,
	}
	var filter fees.ItemFilter
	if s.cfg.DiscountScope == DiscountScopeFiltered {
		filter = fees.TypeItemFilter(sch.FeeTypeInclude, sch.FeeTypeExclude)
	}
	return rule, filter
}

// scholarshipValue is the headline value stored on the assignment.
func scholarshipValue(sch *scholarship.Scholarship) float64 {
	if sch == nil {
		return 0
	}
	switch sch.Type {
	case scholarship.TypePercentage:
		return sch.PercentageOff
	case scholarship.TypeFixedAmount:
		return sch.FixedAmountOff
	}
	return 0
}

// buildAssignment fabricates an assignment for one student. Nothing is
// persisted here.
func (s *Service) buildAssignment(
	student *students.StudentProfile,
	structure *catalog.FeeStructure,
	sch *scholarship.Scholarship,
	selectedOptional []string,
	dueDate string,
) (*fees.Assignment, error) {
	now := s.clock.Now()
	if sch != nil {
		today := now.Format("2006-01-02")
		if !sch.AppliesTo(student.ID, student.ClassID, structure.AcademicYear, structure.Term, today) {
			return nil, fees.ErrScholarshipNotApplicable
		}
	}

	mandatory, optional := structure.Partition()

	selected := make(map[string]bool, len(selectedOptional))
	for _, id := range selectedOptional {
		selected[id] = true
	}
	known := make(map[string]bool, len(optional))
	for _, item := range optional {
		known[item.CategoryID] = true
	}
	for id := range selected {
		if !known[id] {
			return nil, fees.ErrUnknownSelection
		}
	}

	var selectedItems []catalog.FeeItem
	selectedItems = append(selectedItems, mandatory...)
	for _, item := range optional {
		if selected[item.CategoryID] {
			selectedItems = append(selectedItems, item)
		}
	}

	rule, filter := s.discountRule(sch)
	result := fees.CalculateDiscount(selectedItems, rule, filter)

	items := make([]fees.StudentFeeItem, 0, len(structure.FeeItems))
	for _, item := range structure.FeeItems {
		isSelected := item.IsMandatory || selected[item.CategoryID]
		items = append(items, fees.StudentFeeItem{
			CategoryID:   item.CategoryID,
			CategoryName: item.CategoryName,
			FeeType:      item.FeeType,
			Amount:       item.Amount,
			Balance:      item.Amount,
			IsMandatory:  item.IsMandatory,
			IsOptional:   item.IsOptional,
			IsSelected:   isSelected,
		})
	}

	if dueDate == "" && s.cfg.DefaultDueDays > 0 {
		dueDate = now.AddDate(0, 0, s.cfg.DefaultDueDays).Format("2006-01-02")
	}

	assignment := &fees.Assignment{
		ID:             fees.BuildAssignmentID(student.ID, structure.ClassID, structure.AcademicYear, structure.Term),
		SchoolID:       s.schoolID,
		StudentID:      student.ID,
		StudentName:    student.FullName(),
		ClassID:        structure.ClassID,
		FeeStructureID: structure.ID,
		AcademicYear:   structure.AcademicYear,
		Term:           structure.Term,
		FeeItems:       items,
		OriginalAmount: result.OriginalAmount,
		DiscountAmount: result.DiscountAmount,
		TotalAmount:    result.TotalAmount,
		AmountPaid:     0,
		Balance:        result.TotalAmount,
		Status:         fees.DeriveStatus(result.TotalAmount, 0),
		Currency:       s.currency,
		DueDate:        dueDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if sch != nil {
		assignment.ScholarshipID = sch.ID
		assignment.ScholarshipName = sch.Name
		assignment.ScholarshipType = sch.Type
		assignment.ScholarshipValue = scholarshipValue(sch)
	}
	if err := assignment.Validate(); err != nil {
		return nil, err
	}
	return assignment, nil
}

// resolveSelections returns the optional category ids for a student,
// preferring the per-student map over the shared list.
func resolveSelections(studentID string, perStudent map[string][]string, shared []string) []string {
	if perStudent != nil {
		if sel, ok := perStudent[studentID]; ok {
			return sel
		}
	}
	return shared
}
