package students

import "context"

// Repository reads the student roster.
type Repository interface {
	Get(ctx context.Context, id string) (*StudentProfile, error)
	ListActiveByClass(ctx context.Context, classID string) ([]StudentProfile, error)
}
