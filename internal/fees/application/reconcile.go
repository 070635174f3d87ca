package application

import (
	"context"
	"time"

	catalog "schoolfin-cloud/internal/catalog/domain"
	fees "schoolfin-cloud/internal/fees/domain"
	"schoolfin-cloud/internal/observability/metrics"
	scholarship "schoolfin-cloud/internal/scholarship/domain"
	students "schoolfin-cloud/internal/students/domain"
)

// AffectedStudent is one assignment's before/after view when a fee
// structure changes.
type AffectedStudent struct {
	AssignmentID string  `json:"assignment_id"`
	StudentID    string  `json:"student_id"`
	StudentName  string  `json:"student_name"`
	CurrentTotal float64 `json:"current_total"`
	NewTotal     float64 `json:"new_total"`
	Difference   float64 `json:"difference"`
	HasPaid      bool    `json:"has_paid"`
	AmountPaid   float64 `json:"amount_paid"`
}

// ReconcilePreview lists the students a structure edit would touch.
type ReconcilePreview struct {
	FeeStructureID string            `json:"fee_structure_id"`
	Affected       []AffectedStudent `json:"affected"`
	Errors         []StudentError    `json:"errors,omitempty"`
}

// ApplyRequest commits a reconciliation for a selected subset. An empty
// StudentIDs list selects every affected student with no payment yet.
type ApplyRequest struct {
	FeeStructureID string
	StudentIDs     []string
	IncludePaid    bool
}

// ApplyResult is the complete accounting of a reconciliation commit.
type ApplyResult struct {
	Updated int            `json:"updated"`
	Skipped int            `json:"skipped"`
	Errors  []StudentError `json:"errors"`
}

// IncludePaidDefault reports the engine policy for touching paid
// assignments when a reconcile request leaves include_paid unset.
func (s *Service) IncludePaidDefault() bool {
	return s.cfg.IncludePaidByDefault
}

// recompute replays one assignment's stored selections and scholarship
// against the current structure definition.
func (s *Service) recompute(ctx context.Context, assignment fees.Assignment, structure *catalog.FeeStructure, cache map[string]*scholarship.Scholarship) (*fees.Assignment, error) {
	var sch *scholarship.Scholarship
	if assignment.ScholarshipID != "" {
		cached, ok := cache[assignment.ScholarshipID]
		if !ok {
			loaded, err := s.scholarships.Get(ctx, assignment.ScholarshipID)
			if err != nil {
				return nil, err
			}
			if loaded == nil {
				return nil, fees.ErrScholarshipNotFound
			}
			cache[assignment.ScholarshipID] = loaded
			cached = loaded
		}
		sch = cached
	}

	// Selections that no longer exist in the edited structure are
	// dropped rather than failing the whole student.
	selections := assignment.SelectedCategoryIDs()
	_, optional := structure.Partition()
	known := make(map[string]bool, len(optional))
	for _, item := range optional {
		known[item.CategoryID] = true
	}
	var kept []string
	for _, id := range selections {
		if known[id] {
			kept = append(kept, id)
		}
	}

	student := &students.StudentProfile{
		ID:        assignment.StudentID,
		ClassID:   assignment.ClassID,
		FirstName: assignment.StudentName,
	}
	rebuilt, err := s.buildAssignment(student, structure, sch, kept, assignment.DueDate)
	if err != nil {
		return nil, err
	}
	return rebuilt, nil
}

// PreviewReconciliation computes the affected set for a structure edit.
// Paid students are excluded unless includePaid is set.
func (s *Service) PreviewReconciliation(ctx context.Context, feeStructureID string, includePaid bool) (*ReconcilePreview, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveReconcilePreview(result, time.Since(start))
	}()

	if feeStructureID == "" {
		result = metrics.ResultError
		return nil, fees.ErrEmptyStructureID
	}
	structure, err := s.structures.Get(ctx, feeStructureID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if structure == nil {
		result = metrics.ResultError
		return nil, fees.ErrStructureNotFound
	}

	assignments, err := s.assignments.ListByStructure(ctx, feeStructureID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}

	preview := &ReconcilePreview{FeeStructureID: feeStructureID}
	cache := make(map[string]*scholarship.Scholarship)
	for _, assignment := range assignments {
		hasPaid := assignment.AmountPaid > 0
		if hasPaid && !includePaid {
			continue
		}
		rebuilt, err := s.recompute(ctx, assignment, structure, cache)
		if err != nil {
			preview.Errors = append(preview.Errors, StudentError{
				StudentID:   assignment.StudentID,
				StudentName: assignment.StudentName,
				Reason:      err.Error(),
			})
			continue
		}
		preview.Affected = append(preview.Affected, AffectedStudent{
			AssignmentID: assignment.ID,
			StudentID:    assignment.StudentID,
			StudentName:  assignment.StudentName,
			CurrentTotal: assignment.TotalAmount,
			NewTotal:     rebuilt.TotalAmount,
			Difference:   rebuilt.TotalAmount - assignment.TotalAmount,
			HasPaid:      hasPaid,
			AmountPaid:   assignment.AmountPaid,
		})
	}
	if len(preview.Errors) > 0 {
		result = metrics.ResultError
	}
	return preview, nil
}

// ApplyReconciliation commits recomputed totals for the selected
// students. amountPaid is never touched, the balance absorbs the change
// and may go negative, which reads as overpaid.
func (s *Service) ApplyReconciliation(ctx context.Context, req ApplyRequest) (*ApplyResult, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveReconcileApply(result, time.Since(start))
	}()

	if req.FeeStructureID == "" {
		result = metrics.ResultError
		return nil, fees.ErrEmptyStructureID
	}
	structure, err := s.structures.Get(ctx, req.FeeStructureID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if structure == nil {
		result = metrics.ResultError
		return nil, fees.ErrStructureNotFound
	}

	assignments, err := s.assignments.ListByStructure(ctx, req.FeeStructureID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}

	selected := make(map[string]bool, len(req.StudentIDs))
	for _, id := range req.StudentIDs {
		selected[id] = true
	}
	defaultSelection := len(req.StudentIDs) == 0

	summary := &ApplyResult{}
	cache := make(map[string]*scholarship.Scholarship)
	for _, assignment := range assignments {
		hasPaid := assignment.AmountPaid > 0
		if hasPaid && !req.IncludePaid {
			continue
		}
		include := selected[assignment.StudentID]
		if defaultSelection {
			include = !hasPaid
		}
		if !include {
			summary.Skipped++
			continue
		}

		rebuilt, err := s.recompute(ctx, assignment, structure, cache)
		if err != nil {
			summary.Errors = append(summary.Errors, StudentError{
				StudentID:   assignment.StudentID,
				StudentName: assignment.StudentName,
				Reason:      err.Error(),
			})
			continue
		}

		updated := assignment.Clone()
		updated.FeeStructureID = structure.ID
		updated.FeeItems = rebuilt.FeeItems
		updated.ScholarshipID = rebuilt.ScholarshipID
		updated.ScholarshipName = rebuilt.ScholarshipName
		updated.ScholarshipType = rebuilt.ScholarshipType
		updated.ScholarshipValue = rebuilt.ScholarshipValue
		updated.OriginalAmount = rebuilt.OriginalAmount
		updated.DiscountAmount = rebuilt.DiscountAmount
		updated.TotalAmount = rebuilt.TotalAmount
		updated.Balance = rebuilt.TotalAmount - updated.AmountPaid
		updated.Status = fees.DeriveStatus(rebuilt.TotalAmount, updated.AmountPaid)
		updated.UpdatedAt = s.clock.Now()

		if err := s.assignments.Update(ctx, &updated); err != nil {
			summary.Errors = append(summary.Errors, StudentError{
				StudentID:   assignment.StudentID,
				StudentName: assignment.StudentName,
				Reason:      err.Error(),
			})
			continue
		}
		summary.Updated++
	}

	s.logf("reconcile apply structure=%s updated=%d skipped=%d errors=%d",
		req.FeeStructureID, summary.Updated, summary.Skipped, len(summary.Errors))
	if len(summary.Errors) > 0 {
		result = metrics.ResultError
	}
	return summary, nil
}
