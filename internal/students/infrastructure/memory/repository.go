// Package memory provides an in-memory roster for tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"

	students "schoolfin-cloud/internal/students/domain"
)

// Repository is an in-memory student roster.
type Repository struct {
	mu       sync.RWMutex
	students map[string]students.StudentProfile
	classes  map[string]students.Class
}

// NewRepository constructs an empty roster.
func NewRepository() *Repository {
	return &Repository{
		students: make(map[string]students.StudentProfile),
		classes:  make(map[string]students.Class),
	}
}

// PutStudent stores or replaces a student.
func (r *Repository) PutStudent(s students.StudentProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.students[s.ID] = s
}

// PutClass stores or replaces a class.
func (r *Repository) PutClass(c students.Class) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[c.ID] = c
}

// Get loads a student by id. Returns (nil, nil) when not found.
func (r *Repository) Get(_ context.Context, id string) (*students.StudentProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.students[id]
	if !ok {
		return nil, nil
	}
	copy := s
	return &copy, nil
}

// ListActiveByClass returns active students of a class ordered by name.
func (r *Repository) ListActiveByClass(_ context.Context, classID string) ([]students.StudentProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []students.StudentProfile
	for _, s := range r.students {
		if s.ClassID == classID && s.Status == students.StatusActive {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].LastName != result[j].LastName {
			return result[i].LastName < result[j].LastName
		}
		return result[i].FirstName < result[j].FirstName
	})
	return result, nil
}

// GetClass loads a class by id. Returns (nil, nil) when not found.
func (r *Repository) GetClass(_ context.Context, id string) (*students.Class, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.classes[id]
	if !ok {
		return nil, nil
	}
	copy := c
	return &copy, nil
}
