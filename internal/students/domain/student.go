package students

import (
	"errors"
	"time"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// StudentProfile is the roster view of a student used for billing.
type StudentProfile struct {
	ID        string
	SchoolID  string
	ClassID   string
	FirstName string
	LastName  string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName returns the display name for reports and errors.
func (s StudentProfile) FullName() string {
	if s.FirstName == "" {
		return s.LastName
	}
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// Validate checks required roster fields.
func (s StudentProfile) Validate() error {
	if s.ID == "" {
		return errors.New("students: empty id")
	}
	if s.ClassID == "" {
		return errors.New("students: empty class id")
	}
	if s.FirstName == "" && s.LastName == "" {
		return errors.New("students: empty name")
	}
	return nil
}

// Class is the school class a student belongs to.
type Class struct {
	ID        string
	SchoolID  string
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
