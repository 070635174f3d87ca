package catalog

import "context"

// StructureRepository reads and writes fee structures.
type StructureRepository interface {
	Get(ctx context.Context, id string) (*FeeStructure, error)
	GetByClassAndTerm(ctx context.Context, classID, academicYear, term string) (*FeeStructure, error)
	Save(ctx context.Context, structure *FeeStructure) error
}

// CategoryRepository reads and writes fee categories.
type CategoryRepository interface {
	Get(ctx context.Context, id string) (*FeeCategory, error)
	ListActive(ctx context.Context) ([]FeeCategory, error)
	Save(ctx context.Context, category *FeeCategory) error
}
