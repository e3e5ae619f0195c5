package grading

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Status is the enrollment state derived from a grade.
type Status string

// Enrollment statuses.
const (
	StatusActive Status = "Active"
	StatusPassed Status = "Passed"
	StatusFailed Status = "Failed"
)

// Ongoing marks an enrollment that has not been graded yet.
const Ongoing = "(Ongoing)"

// MaxLength mirrors the VARCHAR(9) grade column.
const MaxLength = 9

// PassingGrade is the lowest numeric grade that passes.
const PassingGrade = 70

var (
	numericPattern = regexp.MustCompile(`^([1-9][0-9]?|100)$`)
	inputPattern   = regexp.MustCompile(`^(\(Ongoing\)|R|F|([1-9][0-9]?|100))$`)
)

var (
	// ErrGradeTooLong indicates the grade exceeds the storage column.
	ErrGradeTooLong = errors.New("grade cannot exceed 9 characters")
	// ErrGradeInvalid indicates the grade is outside the allow-list.
	ErrGradeInvalid = errors.New("invalid grade, allowed: (Ongoing), R, F, or 1-100")
)

// DeriveStatus maps a raw grade onto its status. It never fails: input that
// matches no rule is treated as not yet graded.
func DeriveStatus(raw string) Status {
	grade := strings.TrimSpace(raw)
	switch {
	case grade == "" || grade == Ongoing:
		return StatusActive
	case grade == "F" || grade == "R":
		return StatusFailed
	case numericPattern.MatchString(grade):
		value, _ := strconv.Atoi(grade)
		if value >= PassingGrade {
			return StatusPassed
		}
		return StatusFailed
	default:
		return StatusActive
	}
}

// Normalize trims the grade and substitutes (Ongoing) for blank input.
func Normalize(raw string) string {
	grade := strings.TrimSpace(raw)
	if grade == "" {
		return Ongoing
	}
	return grade
}

// Validate checks a grade against the column width and the allow-list.
func Validate(raw string) error {
	grade := Normalize(raw)
	if len(grade) > MaxLength {
		return ErrGradeTooLong
	}
	if !inputPattern.MatchString(grade) {
		return fmt.Errorf("%w: %q", ErrGradeInvalid, grade)
	}
	return nil
}

// Mark is a validated grade together with the status it implies. The only
// way to obtain one is NewMark, so the two cannot drift apart.
type Mark struct {
	grade  string
	status Status
}

// NewMark validates and normalizes raw, deriving the status from it.
func NewMark(raw string) (Mark, error) {
	if err := Validate(raw); err != nil {
		return Mark{}, err
	}
	grade := Normalize(raw)
	return Mark{grade: grade, status: DeriveStatus(grade)}, nil
}

// Grade returns the normalized grade.
func (m Mark) Grade() string { return m.grade }

// Status returns the derived status.
func (m Mark) Status() Status { return m.status }

// GradePoint converts a numeric grade to the 4.00 scale used for GWA. The
// second result is false for grades that do not count (ongoing, unknown).
func GradePoint(raw string) (float64, bool) {
	grade := strings.TrimSpace(raw)
	if grade == "F" || grade == "R" {
		return 0, true
	}
	if !numericPattern.MatchString(grade) {
		return 0, false
	}

	value, _ := strconv.Atoi(grade)
	switch {
	case value >= 97:
		return 4.0, true
	case value >= 93:
		return 3.5, true
	case value >= 89:
		return 3.0, true
	case value >= 85:
		return 2.5, true
	case value >= 80:
		return 2.0, true
	case value >= 75:
		return 1.5, true
	case value >= PassingGrade:
		return 1.0, true
	default:
		return 0, true
	}
}

// Dean's list thresholds.
const (
	DeansListMinGWA   = 3.50
	DeansListMinUnits = 15
)

// Credit is one course load counted towards a GWA.
type Credit struct {
	Grade string
	Units int
}

// GWA returns the unit-weighted grade point average over the credits that
// count, together with the number of units counted. Ongoing and unknown
// grades are skipped.
func GWA(credits []Credit) (float64, int) {
	var weighted float64
	units := 0
	for _, credit := range credits {
		point, ok := GradePoint(credit.Grade)
		if !ok || credit.Units <= 0 {
			continue
		}
		weighted += point * float64(credit.Units)
		units += credit.Units
	}
	if units == 0 {
		return 0, 0
	}
	return weighted / float64(units), units
}

// DeansListEligible reports whether a GWA over the given units qualifies.
func DeansListEligible(gwa float64, units int) bool {
	return gwa >= DeansListMinGWA && units >= DeansListMinUnits
}
