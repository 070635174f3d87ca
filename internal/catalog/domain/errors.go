package catalog

import "errors"

var (
	// ErrEmptyStructureID is returned when a structure id is empty.
	ErrEmptyStructureID = errors.New("catalog: empty structure id")
	// ErrEmptyClassID is returned when a class id is empty.
	ErrEmptyClassID = errors.New("catalog: empty class id")
	// ErrEmptyAcademicYear is returned when the academic year is empty.
	ErrEmptyAcademicYear = errors.New("catalog: empty academic year")
	// ErrInvalidTerm is returned when a term is not first, second or third.
	ErrInvalidTerm = errors.New("catalog: invalid term")
	// ErrNoFeeItems is returned when a structure has no fee items.
	ErrNoFeeItems = errors.New("catalog: structure has no fee items")
	// ErrNegativeAmount is returned when a fee item amount is negative.
	ErrNegativeAmount = errors.New("catalog: negative fee item amount")
	// ErrItemFlagConflict is returned when an item is neither or both of mandatory and optional.
	ErrItemFlagConflict = errors.New("catalog: fee item must be mandatory or optional")
	// ErrEmptyCategoryID is returned when a category id is empty.
	ErrEmptyCategoryID = errors.New("catalog: empty category id")
	// ErrEmptyCategoryName is returned when a category name is empty.
	ErrEmptyCategoryName = errors.New("catalog: empty category name")
	// ErrStructureNotFound is returned when a structure is not found.
	ErrStructureNotFound = errors.New("catalog: structure not found")
	// ErrNilStructure is returned when saving a nil structure.
	ErrNilStructure = errors.New("catalog: nil structure")
)
