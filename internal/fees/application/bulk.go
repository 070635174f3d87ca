package application

import (
	"context"
	"errors"
	"time"

	fees "schoolfin-cloud/internal/fees/domain"
	"schoolfin-cloud/internal/observability/metrics"
	scholarship "schoolfin-cloud/internal/scholarship/domain"
)

// BulkRequest describes one bulk assignment run. Selections are passed
// explicitly, the per-student map wins over the shared list.
type BulkRequest struct {
	ClassID           string
	AcademicYear      string
	Term              string
	StudentIDs        []string
	ScholarshipID     string
	StudentSelections map[string][]string
	SharedSelections  []string
	DueDate           string
}

// StudentError records a per-student failure inside a batch.
type StudentError struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name,omitempty"`
	Reason      string `json:"reason"`
}

// BulkResult is the complete accounting of a bulk run. For every run
// SuccessCount + DuplicateCount + len(Errors) equals the candidate count.
type BulkResult struct {
	SuccessCount   int            `json:"success_count"`
	DuplicateCount int            `json:"duplicate_count"`
	Errors         []StudentError `json:"errors"`
}

// FindDuplicates returns the candidate students that already hold an
// assignment for the class, academic year and term. One batch lookup,
// then set membership.
func (s *Service) FindDuplicates(ctx context.Context, classID, academicYear, term string, studentIDs []string) ([]string, error) {
	existing, err := s.assignments.ListByClassTerm(ctx, classID, academicYear, term)
	if err != nil {
		return nil, err
	}
	assigned := make(map[string]bool, len(existing))
	for _, a := range existing {
		assigned[a.StudentID] = true
	}
	var duplicates []string
	for _, id := range studentIDs {
		if assigned[id] {
			duplicates = append(duplicates, id)
		}
	}
	return duplicates, nil
}

// BulkAssign builds and persists assignments for a set of students,
// skipping duplicates and continuing past per-student failures.
func (s *Service) BulkAssign(ctx context.Context, req BulkRequest) (*BulkResult, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveAssignBulk(result, time.Since(start))
	}()

	if req.ClassID == "" {
		result = metrics.ResultError
		return nil, fees.ErrEmptyClassID
	}
	if req.AcademicYear == "" {
		result = metrics.ResultError
		return nil, fees.ErrEmptyAcademicYear
	}
	if !fees.ValidTerm(req.Term) {
		result = metrics.ResultError
		return nil, fees.ErrInvalidTerm
	}
	if len(req.StudentIDs) == 0 {
		result = metrics.ResultError
		return nil, fees.ErrEmptyCandidates
	}

	structure, err := s.structures.GetByClassAndTerm(ctx, req.ClassID, req.AcademicYear, req.Term)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if structure == nil {
		result = metrics.ResultError
		return nil, fees.ErrStructureNotFound
	}

	var sch *scholarship.Scholarship
	if req.ScholarshipID != "" {
		sch, err = s.scholarships.Get(ctx, req.ScholarshipID)
		if err != nil {
			result = metrics.ResultError
			return nil, err
		}
		if sch == nil {
			result = metrics.ResultError
			return nil, fees.ErrScholarshipNotFound
		}
	}

	duplicates, err := s.FindDuplicates(ctx, req.ClassID, req.AcademicYear, req.Term, req.StudentIDs)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	duplicateSet := make(map[string]bool, len(duplicates))
	for _, id := range duplicates {
		duplicateSet[id] = true
	}

	summary := &BulkResult{DuplicateCount: len(duplicates)}
	metrics.AddDuplicatesSkipped(len(duplicates))

	for _, studentID := range req.StudentIDs {
		if duplicateSet[studentID] {
			continue
		}

		student, err := s.roster.Get(ctx, studentID)
		if err == nil && student == nil {
			err = fees.ErrStudentNotFound
		}
		if err != nil {
			summary.Errors = append(summary.Errors, StudentError{StudentID: studentID, Reason: err.Error()})
			metrics.IncAssignStudent(metrics.ResultError)
			continue
		}

		selections := resolveSelections(studentID, req.StudentSelections, req.SharedSelections)
		assignment, err := s.buildAssignment(student, structure, sch, selections, req.DueDate)
		if err != nil {
			summary.Errors = append(summary.Errors, StudentError{
				StudentID:   studentID,
				StudentName: student.FullName(),
				Reason:      err.Error(),
			})
			metrics.IncAssignStudent(metrics.ResultError)
			continue
		}

		if err := s.assignments.Create(ctx, assignment); err != nil {
			// A concurrent writer can beat the up-front guard.
			if errors.Is(err, fees.ErrDuplicateAssignment) {
				summary.DuplicateCount++
				metrics.AddDuplicatesSkipped(1)
				continue
			}
			summary.Errors = append(summary.Errors, StudentError{
				StudentID:   studentID,
				StudentName: student.FullName(),
				Reason:      err.Error(),
			})
			metrics.IncAssignStudent(metrics.ResultError)
			continue
		}
		summary.SuccessCount++
		metrics.IncAssignStudent(metrics.ResultSuccess)
	}

	s.logf("bulk assign class=%s year=%s term=%s success=%d duplicates=%d errors=%d",
		req.ClassID, req.AcademicYear, req.Term, summary.SuccessCount, summary.DuplicateCount, len(summary.Errors))
	if len(summary.Errors) > 0 {
		result = metrics.ResultError
	}
	return summary, nil
}

// AssignClass runs a bulk assignment over every active student in the
// class roster. The request's StudentIDs are ignored.
func (s *Service) AssignClass(ctx context.Context, req BulkRequest) (*BulkResult, error) {
	if req.ClassID == "" {
		return nil, fees.ErrEmptyClassID
	}
	roster, err := s.roster.ListActiveByClass(ctx, req.ClassID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(roster))
	for _, student := range roster {
		ids = append(ids, student.ID)
	}
	req.StudentIDs = ids
	return s.BulkAssign(ctx, req)
}

// IndividualRequest describes a single-student assignment.
type IndividualRequest struct {
	StudentID     string
	ClassID       string
	AcademicYear  string
	Term          string
	ScholarshipID string
	Selections    []string
	DueDate       string
}

// AssignStudent builds and persists one assignment. A duplicate is
// surfaced as fees.ErrDuplicateAssignment, the caller decides what to
// do with it.
func (s *Service) AssignStudent(ctx context.Context, req IndividualRequest) (*fees.Assignment, error) {
	if req.StudentID == "" {
		return nil, fees.ErrEmptyStudentID
	}
	if req.ClassID == "" {
		return nil, fees.ErrEmptyClassID
	}
	if req.AcademicYear == "" {
		return nil, fees.ErrEmptyAcademicYear
	}
	if !fees.ValidTerm(req.Term) {
		return nil, fees.ErrInvalidTerm
	}

	structure, err := s.structures.GetByClassAndTerm(ctx, req.ClassID, req.AcademicYear, req.Term)
	if err != nil {
		return nil, err
	}
	if structure == nil {
		return nil, fees.ErrStructureNotFound
	}

	var sch *scholarship.Scholarship
	if req.ScholarshipID != "" {
		sch, err = s.scholarships.Get(ctx, req.ScholarshipID)
		if err != nil {
			return nil, err
		}
		if sch == nil {
			return nil, fees.ErrScholarshipNotFound
		}
	}

	student, err := s.roster.Get(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, fees.ErrStudentNotFound
	}

	assignment, err := s.buildAssignment(student, structure, sch, req.Selections, req.DueDate)
	if err != nil {
		metrics.IncAssignStudent(metrics.ResultError)
		return nil, err
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		metrics.IncAssignStudent(metrics.ResultError)
		return nil, err
	}
	metrics.IncAssignStudent(metrics.ResultSuccess)
	return assignment, nil
}

// ListAssignments returns the assignments for a class, year and term.
func (s *Service) ListAssignments(ctx context.Context, classID, academicYear, term string) ([]fees.Assignment, error) {
	if classID == "" {
		return nil, fees.ErrEmptyClassID
	}
	if academicYear == "" {
		return nil, fees.ErrEmptyAcademicYear
	}
	if !fees.ValidTerm(term) {
		return nil, fees.ErrInvalidTerm
	}
	return s.assignments.ListByClassTerm(ctx, classID, academicYear, term)
}

// GetAssignment loads one assignment by id.
func (s *Service) GetAssignment(ctx context.Context, id string) (*fees.Assignment, error) {
	if id == "" {
		return nil, fees.ErrAssignmentNotFound
	}
	return s.assignments.Get(ctx, id)
}
