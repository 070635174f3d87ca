// Package memory provides an in-memory assignment store for tests and
// local runs. It enforces the same composite uniqueness the Postgres
// index does.
package memory

import (
	"context"
	"sort"
	"sync"

	fees "schoolfin-cloud/internal/fees/domain"
)

// Repository is an in-memory assignment store.
type Repository struct {
	mu          sync.RWMutex
	assignments map[string]fees.Assignment
}

// NewRepository constructs an empty store.
func NewRepository() *Repository {
	return &Repository{assignments: make(map[string]fees.Assignment)}
}

// Get loads an assignment by id. Returns (nil, nil) when not found.
func (r *Repository) Get(_ context.Context, id string) (*fees.Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.assignments[id]
	if !ok {
		return nil, nil
	}
	clone := a.Clone()
	return &clone, nil
}

// ListByClassTerm returns assignments for a class, year and term
// ordered by student name.
func (r *Repository) ListByClassTerm(_ context.Context, classID, academicYear, term string) ([]fees.Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []fees.Assignment
	for _, a := range r.assignments {
		if a.ClassID == classID && a.AcademicYear == academicYear && a.Term == term {
			result = append(result, a.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StudentName < result[j].StudentName })
	return result, nil
}

// ListByStructure returns assignments referencing a fee structure.
func (r *Repository) ListByStructure(_ context.Context, feeStructureID string) ([]fees.Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []fees.Assignment
	for _, a := range r.assignments {
		if a.FeeStructureID == feeStructureID {
			result = append(result, a.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StudentName < result[j].StudentName })
	return result, nil
}

// Create stores a new assignment, rejecting duplicates on the
// (student, class, academic year, term) key.
func (r *Repository) Create(_ context.Context, a *fees.Assignment) error {
	if a == nil {
		return fees.ErrNilAssignment
	}
	if err := a.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assignments[a.ID]; ok {
		return fees.ErrDuplicateAssignment
	}
	for _, existing := range r.assignments {
		if existing.StudentID == a.StudentID &&
			existing.ClassID == a.ClassID &&
			existing.AcademicYear == a.AcademicYear &&
			existing.Term == a.Term {
			return fees.ErrDuplicateAssignment
		}
	}
	r.assignments[a.ID] = a.Clone()
	return nil
}

// Replace stores a record verbatim, including amountPaid. Tests use it
// to simulate payment recording, which lives outside the fee engine.
func (r *Repository) Replace(a fees.Assignment) error {
	if err := a.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assignments[a.ID]; !ok {
		return fees.ErrAssignmentNotFound
	}
	r.assignments[a.ID] = a.Clone()
	return nil
}

// Update overwrites an existing assignment. The stored amountPaid is
// kept, mirroring the SQL repository's column list.
func (r *Repository) Update(_ context.Context, a *fees.Assignment) error {
	if a == nil {
		return fees.ErrNilAssignment
	}
	if err := a.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.assignments[a.ID]
	if !ok {
		return fees.ErrAssignmentNotFound
	}
	updated := a.Clone()
	updated.AmountPaid = existing.AmountPaid
	updated.CreatedAt = existing.CreatedAt
	r.assignments[a.ID] = updated
	return nil
}
