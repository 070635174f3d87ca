package fees

import "errors"

var (
	// ErrEmptyStudentID is returned when a student id is empty.
	ErrEmptyStudentID = errors.New("fees: empty student id")
	// ErrEmptyStudentName is returned when a student name is empty.
	ErrEmptyStudentName = errors.New("fees: empty student name")
	// ErrEmptyClassID is returned when a class id is empty.
	ErrEmptyClassID = errors.New("fees: empty class id")
	// ErrEmptyStructureID is returned when a fee structure id is empty.
	ErrEmptyStructureID = errors.New("fees: empty fee structure id")
	// ErrEmptyAcademicYear is returned when the academic year is empty.
	ErrEmptyAcademicYear = errors.New("fees: empty academic year")
	// ErrInvalidTerm is returned when a term is not first, second or third.
	ErrInvalidTerm = errors.New("fees: invalid term")
	// ErrNoFeeItems is returned when an assignment has no fee items.
	ErrNoFeeItems = errors.New("fees: assignment has no fee items")
	// ErrNegativeAmount is returned when a monetary field is negative.
	ErrNegativeAmount = errors.New("fees: negative amount")
	// ErrEmptyCategoryID is returned when a fee item has no category id.
	ErrEmptyCategoryID = errors.New("fees: fee item missing category id")
	// ErrItemFlagConflict is returned when an item is both mandatory and optional.
	ErrItemFlagConflict = errors.New("fees: fee item cannot be both mandatory and optional")
	// ErrAmountMismatch is returned when total, discount and balance do not reconcile.
	ErrAmountMismatch = errors.New("fees: amounts do not reconcile")
	// ErrStatusMismatch is returned when status contradicts the amounts.
	ErrStatusMismatch = errors.New("fees: status does not match amounts")
	// ErrInvalidDueDate is returned when the due date is not YYYY-MM-DD.
	ErrInvalidDueDate = errors.New("fees: invalid due date, expected YYYY-MM-DD")
	// ErrUnknownSelection is returned when a selection references a category
	// absent from the structure.
	ErrUnknownSelection = errors.New("fees: selection references unknown category")
	// ErrDuplicateAssignment is returned when an assignment already exists
	// for the student, class, academic year and term.
	ErrDuplicateAssignment = errors.New("fees: duplicate assignment")
	// ErrAssignmentNotFound is returned when an assignment is not found.
	ErrAssignmentNotFound = errors.New("fees: assignment not found")
	// ErrStructureNotFound is returned when a fee structure is not found.
	ErrStructureNotFound = errors.New("fees: fee structure not found")
	// ErrStudentNotFound is returned when a student is not found.
	ErrStudentNotFound = errors.New("fees: student not found")
	// ErrScholarshipNotFound is returned when a scholarship is not found.
	ErrScholarshipNotFound = errors.New("fees: scholarship not found")
	// ErrScholarshipNotApplicable is returned when a scholarship does not
	// cover the student, class, academic year, term or date.
	ErrScholarshipNotApplicable = errors.New("fees: scholarship not applicable")
	// ErrNilAssignment is returned when persisting a nil assignment.
	ErrNilAssignment = errors.New("fees: nil assignment")
	// ErrEmptyCandidates is returned when a batch is invoked with no students.
	ErrEmptyCandidates = errors.New("fees: empty candidate set")
)
