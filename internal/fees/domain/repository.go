package fees

import "context"

// Repository reads and writes student fee assignments. Create must fail
// with ErrDuplicateAssignment when a row already exists for the same
// (student, class, academic year, term).
type Repository interface {
	Get(ctx context.Context, id string) (*Assignment, error)
	ListByClassTerm(ctx context.Context, classID, academicYear, term string) ([]Assignment, error)
	ListByStructure(ctx context.Context, feeStructureID string) ([]Assignment, error)
	Create(ctx context.Context, assignment *Assignment) error
	Update(ctx context.Context, assignment *Assignment) error
}
