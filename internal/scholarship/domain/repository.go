package scholarship

import "context"

// Repository reads and writes scholarships.
type Repository interface {
	Get(ctx context.Context, id string) (*Scholarship, error)
	ListActive(ctx context.Context) ([]Scholarship, error)
	Save(ctx context.Context, s *Scholarship) error
}
