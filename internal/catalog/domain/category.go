package catalog

import "time"

// FeeCategory is a named, typed fee heading. Once a structure copies a
// category into one of its items, the copy stays frozen even if the
// category record changes.
type FeeCategory struct {
	ID        string
	Name      string
	FeeType   string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks required category fields.
func (c FeeCategory) Validate() error {
	if c.ID == "" {
		return ErrEmptyCategoryID
	}
	if c.Name == "" {
		return ErrEmptyCategoryName
	}
	return nil
}
