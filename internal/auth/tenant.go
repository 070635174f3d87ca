package auth

import (
	"context"
	"database/sql"
	"errors"

	studentsrepo "schoolfin-cloud/internal/students/infrastructure/postgres"
)

var (
	// ErrSchoolMismatch indicates resource belongs to a different school.
	ErrSchoolMismatch = errors.New("school mismatch")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("resource not found")
)

// ClassSchoolChecker validates class ownership by school.
type ClassSchoolChecker interface {
	EnsureClassSchool(ctx context.Context, schoolID, classID string) error
}

// ClassChecker checks class ownership using the class roster.
type ClassChecker struct {
	repo *studentsrepo.ClassRepository
}

// NewClassChecker constructs a ClassChecker.
func NewClassChecker(db *sql.DB) *ClassChecker {
	if db == nil {
		return nil
	}
	return &ClassChecker{repo: studentsrepo.NewClassRepository(db)}
}

// EnsureClassSchool verifies the class belongs to the school.
func (c *ClassChecker) EnsureClassSchool(ctx context.Context, schoolID, classID string) error {
	if c == nil || c.repo == nil {
		return nil
	}
	if schoolID == "" || classID == "" {
		return nil
	}
	class, err := c.repo.Get(ctx, classID)
	if err != nil {
		return err
	}
	if class == nil {
		return ErrNotFound
	}
	if class.SchoolID != schoolID {
		return ErrSchoolMismatch
	}
	return nil
}
