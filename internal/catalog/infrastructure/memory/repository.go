// Package memory provides in-memory catalog repositories for tests and
// local runs.
package memory

import (
	"context"
	"sort"
	"sync"

	catalog "schoolfin-cloud/internal/catalog/domain"
)

// StructureRepository is an in-memory fee structure store.
type StructureRepository struct {
	mu         sync.RWMutex
	structures map[string]catalog.FeeStructure
}

// NewStructureRepository constructs an empty store.
func NewStructureRepository() *StructureRepository {
	return &StructureRepository{structures: make(map[string]catalog.FeeStructure)}
}

// Get loads a structure by id. Returns (nil, nil) when not found.
func (r *StructureRepository) Get(_ context.Context, id string) (*catalog.FeeStructure, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.structures[id]
	if !ok {
		return nil, nil
	}
	clone := s.Clone()
	return &clone, nil
}

// GetByClassAndTerm loads the active structure for a class, year and term.
func (r *StructureRepository) GetByClassAndTerm(_ context.Context, classID, academicYear, term string) (*catalog.FeeStructure, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.structures {
		if s.Active && s.ClassID == classID && s.AcademicYear == academicYear && s.Term == term {
			clone := s.Clone()
			return &clone, nil
		}
	}
	return nil, nil
}

// Save upserts a structure.
func (r *StructureRepository) Save(_ context.Context, structure *catalog.FeeStructure) error {
	if structure == nil {
		return catalog.ErrNilStructure
	}
	if err := structure.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.structures[structure.ID] = structure.Clone()
	return nil
}

// CategoryRepository is an in-memory fee category store.
type CategoryRepository struct {
	mu         sync.RWMutex
	categories map[string]catalog.FeeCategory
}

// NewCategoryRepository constructs an empty store.
func NewCategoryRepository() *CategoryRepository {
	return &CategoryRepository{categories: make(map[string]catalog.FeeCategory)}
}

// Get loads a category by id. Returns (nil, nil) when not found.
func (r *CategoryRepository) Get(_ context.Context, id string) (*catalog.FeeCategory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.categories[id]
	if !ok {
		return nil, nil
	}
	copy := c
	return &copy, nil
}

// ListActive returns active categories ordered by name.
func (r *CategoryRepository) ListActive(_ context.Context) ([]catalog.FeeCategory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []catalog.FeeCategory
	for _, c := range r.categories {
		if c.Active {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Save upserts a category.
func (r *CategoryRepository) Save(_ context.Context, category *catalog.FeeCategory) error {
	if category == nil {
		return catalog.ErrEmptyCategoryID
	}
	if err := category.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[category.ID] = *category
	return nil
}
