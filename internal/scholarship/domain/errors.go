package scholarship

import "errors"

var (
	// ErrEmptyName is returned when the scholarship name is empty.
	ErrEmptyName = errors.New("scholarship: empty name")
	// ErrInvalidType is returned when the scholarship type is unknown.
	ErrInvalidType = errors.New("scholarship: invalid type")
	// ErrPercentageRange is returned when percentageOff is outside 0-100.
	ErrPercentageRange = errors.New("scholarship: percentageOff must be between 0 and 100")
	// ErrFixedAmountRange is returned when fixedAmountOff is not positive.
	ErrFixedAmountRange = errors.New("scholarship: fixedAmountOff must be greater than 0")
	// ErrInvalidApplicability is returned when applicableTo is unknown.
	ErrInvalidApplicability = errors.New("scholarship: invalid applicableTo")
	// ErrEmptyClassIDs is returned when specific_classes carries no class ids.
	ErrEmptyClassIDs = errors.New("scholarship: classIds required for specific_classes")
	// ErrEmptyStudentIDs is returned when specific_students carries no student ids.
	ErrEmptyStudentIDs = errors.New("scholarship: studentIds required for specific_students")
	// ErrInvalidDate is returned when a date is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("scholarship: invalid date, expected YYYY-MM-DD")
	// ErrEndBeforeStart is returned when endDate is not after startDate.
	ErrEndBeforeStart = errors.New("scholarship: endDate must be after startDate")
	// ErrBeneficiaryLimit is returned when beneficiary counts are inconsistent.
	ErrBeneficiaryLimit = errors.New("scholarship: inconsistent beneficiary limits")
	// ErrInvalidStatus is returned when the status is unknown.
	ErrInvalidStatus = errors.New("scholarship: invalid status")
	// ErrEmptyCreatedBy is returned when createdBy is empty.
	ErrEmptyCreatedBy = errors.New("scholarship: empty createdBy")
	// ErrScholarshipNotFound is returned when a scholarship is not found.
	ErrScholarshipNotFound = errors.New("scholarship: not found")
)
