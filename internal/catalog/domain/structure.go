package catalog

import "time"

const (
	TermFirst  = "first"
	TermSecond = "second"
	TermThird  = "third"
)

// ValidTerm reports whether term is one of the three school terms.
func ValidTerm(term string) bool {
	switch term {
	case TermFirst, TermSecond, TermThird:
		return true
	}
	return false
}

// FeeItem is one line of a fee structure. The category name and type are
// copied in at creation time, not referenced live.
type FeeItem struct {
	CategoryID   string
	CategoryName string
	FeeType      string
	Amount       float64
	IsMandatory  bool
	IsOptional   bool
}

// Validate checks a single fee item.
func (i FeeItem) Validate() error {
	if i.CategoryID == "" {
		return ErrEmptyCategoryID
	}
	if i.Amount < 0 {
		return ErrNegativeAmount
	}
	if i.IsMandatory == i.IsOptional {
		return ErrItemFlagConflict
	}
	return nil
}

// FeeStructure is the declared set of chargeable items for a class, term
// and academic year. At most one active structure exists per
// (class, academic year, term).
type FeeStructure struct {
	ID           string
	ClassID      string
	AcademicYear string
	Term         string
	FeeItems     []FeeItem
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TotalAmount sums every item, mandatory and optional. Display only,
// the billed amount depends on each student's selections.
func (s FeeStructure) TotalAmount() float64 {
	var total float64
	for _, item := range s.FeeItems {
		total += item.Amount
	}
	return total
}

// Partition splits the items into mandatory and optional, preserving order.
func (s FeeStructure) Partition() (mandatory, optional []FeeItem) {
	for _, item := range s.FeeItems {
		if item.IsMandatory {
			mandatory = append(mandatory, item)
		} else {
			optional = append(optional, item)
		}
	}
	return mandatory, optional
}

// Validate checks structure identity, term and every item.
func (s FeeStructure) Validate() error {
	if s.ID == "" {
		return ErrEmptyStructureID
	}
	if s.ClassID == "" {
		return ErrEmptyClassID
	}
	if s.AcademicYear == "" {
		return ErrEmptyAcademicYear
	}
	if !ValidTerm(s.Term) {
		return ErrInvalidTerm
	}
	if len(s.FeeItems) == 0 {
		return ErrNoFeeItems
	}
	for _, item := range s.FeeItems {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of the structure.
func (s FeeStructure) Clone() FeeStructure {
	out := s
	out.FeeItems = make([]FeeItem, len(s.FeeItems))
	copy(out.FeeItems, s.FeeItems)
	return out
}
