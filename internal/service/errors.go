package service

import "errors"

var (
	// ErrStudentNotFound indicates the student ID does not exist.
	ErrStudentNotFound = errors.New("student not found")
	// ErrEnrollmentNotFound indicates the enrollment does not exist.
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	// ErrDuplicateStudent indicates the ID number is already registered.
	ErrDuplicateStudent = errors.New("student id already exists")
	// ErrDuplicateEmail indicates the account email is taken.
	ErrDuplicateEmail = errors.New("email already exists")
	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnknownCategory indicates a log category without a collection.
	ErrUnknownCategory = errors.New("invalid log category")
)

// ValidationError reports input that failed a domain rule.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
