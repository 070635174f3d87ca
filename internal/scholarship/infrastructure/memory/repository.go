// Package memory provides an in-memory scholarship store for tests and
// local runs.
package memory

import (
	"context"
	"sort"
	"sync"

	scholarship "schoolfin-cloud/internal/scholarship/domain"
)

// Repository is an in-memory scholarship store.
type Repository struct {
	mu           sync.RWMutex
	scholarships map[string]scholarship.Scholarship
}

// NewRepository constructs an empty store.
func NewRepository() *Repository {
	return &Repository{scholarships: make(map[string]scholarship.Scholarship)}
}

// Get loads a scholarship by id. Returns (nil, nil) when not found.
func (r *Repository) Get(_ context.Context, id string) (*scholarship.Scholarship, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scholarships[id]
	if !ok {
		return nil, nil
	}
	clone := s.Clone()
	return &clone, nil
}

// ListActive returns active scholarships ordered by name.
func (r *Repository) ListActive(_ context.Context) ([]scholarship.Scholarship, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []scholarship.Scholarship
	for _, s := range r.scholarships {
		if s.Status == scholarship.StatusActive {
			result = append(result, s.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Save upserts a scholarship after strict validation.
func (r *Repository) Save(_ context.Context, s *scholarship.Scholarship) error {
	if s == nil || s.ID == "" {
		return scholarship.ErrEmptyName
	}
	if err := s.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scholarships[s.ID] = s.Clone()
	return nil
}

// PutRaw stores a scholarship without validation. Tests use this to
// seed malformed records the calculator must tolerate.
func (r *Repository) PutRaw(s scholarship.Scholarship) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scholarships[s.ID] = s.Clone()
}
