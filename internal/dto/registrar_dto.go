package dto

import (
	"time"

	"github.com/noah-isme/sao-registrar-api/internal/grading"
	"github.com/noah-isme/sao-registrar-api/internal/models"
)

// StudentCreateRequest is the payload for registering a student.
type StudentCreateRequest struct {
	IDNumber  string `json:"idNumber" validate:"required,len=8,alphanum"`
	FirstName string `json:"firstName" validate:"required,max=30"`
	LastName  string `json:"lastName" validate:"required,max=30"`
	Section   string `json:"section" validate:"required,max=45"`
}

// StudentUpdateRequest replaces a student's editable fields. The ID number
// comes from the path and cannot change.
type StudentUpdateRequest struct {
	FirstName       string `json:"firstName" validate:"required,max=30"`
	LastName        string `json:"lastName" validate:"required,max=30"`
	Section         string `json:"section" validate:"required,max=45"`
	CurrentYear     int    `json:"currentYear" validate:"required,min=1,max=5"`
	CurrentSemester int    `json:"currentSemester" validate:"required,min=1,max=3"`
}

// StudentListRequest filters the student table.
type StudentListRequest struct {
	Archived bool   `query:"archived"`
	Search   string `query:"search" validate:"max=61"`
}

// StudentResponse is the wire shape of a student.
type StudentResponse struct {
	IDNumber        string               `json:"idNumber"`
	FirstName       string               `json:"firstName"`
	LastName        string               `json:"lastName"`
	FullName        string               `json:"fullName"`
	Section         string               `json:"section"`
	CurrentYear     int                  `json:"currentYear"`
	CurrentSemester int                  `json:"currentSemester"`
	IsDeleted       bool                 `json:"isDeleted"`
	DeletedAt       *time.Time           `json:"deletedAt"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
	Enrollments     []EnrollmentResponse `json:"enrollments,omitempty"`
}

// NewStudentResponse maps a student model, including any loaded enrollments.
func NewStudentResponse(student models.Student) StudentResponse {
	response := StudentResponse{
		IDNumber:        student.IDNumber,
		FirstName:       student.FirstName,
		LastName:        student.LastName,
		FullName:        student.FullName(),
		Section:         student.Section,
		CurrentYear:     student.CurrentYear,
		CurrentSemester: student.CurrentSemester,
		IsDeleted:       student.IsDeleted,
		DeletedAt:       student.DeletedAt,
		CreatedAt:       student.CreatedAt,
		UpdatedAt:       student.UpdatedAt,
	}
	if len(student.Enrollments) > 0 {
		response.Enrollments = NewEnrollmentResponses(student.Enrollments)
	}
	return response
}

// NewStudentResponses maps a slice of students.
func NewStudentResponses(students []models.Student) []StudentResponse {
	responses := make([]StudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, NewStudentResponse(student))
	}
	return responses
}

// EnrollRequest enrolls a student, identified by ID number or full name,
// into a curriculum slot.
type EnrollRequest struct {
	StudentID   string `json:"studentId" validate:"omitempty,len=8,alphanum"`
	FullName    string `json:"fullName" validate:"required_without=StudentID,max=61"`
	CourseCode  string `json:"courseCode" validate:"required,max=7"`
	ProgramName string `json:"programName" validate:"required,max=45"`
	YearID      int    `json:"yearId" validate:"required,min=1,max=5"`
	SemesterID  int    `json:"semesterId" validate:"required,min=1,max=3"`
}

// EnrollmentResponse is the wire shape of an enrollment.
type EnrollmentResponse struct {
	ID          uint           `json:"id"`
	StudentID   string         `json:"studentId"`
	CourseCode  string         `json:"courseCode"`
	CourseName  string         `json:"courseName"`
	Units       int            `json:"units"`
	ProgramName string         `json:"programName"`
	Year        int            `json:"year"`
	Semester    int            `json:"semester"`
	Grade       string         `json:"grade"`
	Status      grading.Status `json:"status"`
	IsArchived  bool           `json:"isArchived"`
	ArchivedAt  *time.Time     `json:"archivedAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// NewEnrollmentResponse maps an enrollment. Status is derived from the grade
// here as well so no caller can present a stale value.
func NewEnrollmentResponse(enrollment models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:          enrollment.ID,
		StudentID:   enrollment.StudentID,
		CourseCode:  enrollment.Curriculum.Course.Code,
		CourseName:  enrollment.Curriculum.Course.Name,
		Units:       enrollment.Curriculum.Course.Units,
		ProgramName: enrollment.Curriculum.Program.Name,
		Year:        enrollment.Curriculum.Year,
		Semester:    enrollment.Curriculum.Semester,
		Grade:       enrollment.Grade,
		Status:      grading.DeriveStatus(enrollment.Grade),
		IsArchived:  enrollment.IsArchived,
		ArchivedAt:  enrollment.ArchivedAt,
		UpdatedAt:   enrollment.UpdatedAt,
	}
}

// NewEnrollmentResponses maps a slice of enrollments.
func NewEnrollmentResponses(enrollments []models.Enrollment) []EnrollmentResponse {
	responses := make([]EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		responses = append(responses, NewEnrollmentResponse(enrollment))
	}
	return responses
}

// GradeUpdateRequest sets a grade on an enrollment chosen by ID or by
// student full name and course code. A blank grade resets it to ongoing.
type GradeUpdateRequest struct {
	EnrollmentID uint   `json:"enrollmentId"`
	FullName     string `json:"fullname" validate:"required_without=EnrollmentID,max=61"`
	CourseCode   string `json:"courseCode" validate:"required_without=EnrollmentID,max=7"`
	RawGrade     string `json:"rawGrade" validate:"max=9"`
}

// ProgramCreateRequest adds a degree program.
type ProgramCreateRequest struct {
	Name string `json:"name" validate:"required,max=45"`
}

// CourseCreateRequest adds a course to the catalog.
type CourseCreateRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Code  string `json:"code" validate:"required,max=7"`
	Units int    `json:"units" validate:"required,min=1,max=10"`
}

// CurriculumCreateRequest places a course in a program term.
type CurriculumCreateRequest struct {
	ProgramName string `json:"programName" validate:"required,max=45"`
	Year        int    `json:"year" validate:"required,min=1,max=5"`
	Semester    int    `json:"semester" validate:"required,min=1,max=3"`
	CourseCode  string `json:"courseCode" validate:"required,max=7"`
}

// CurriculumResponse is the wire shape of a curriculum slot.
type CurriculumResponse struct {
	ID          uint   `json:"id"`
	ProgramName string `json:"programName"`
	Year        int    `json:"year"`
	Semester    int    `json:"semester"`
	CourseCode  string `json:"courseCode"`
	CourseName  string `json:"courseName"`
	Units       int    `json:"units"`
}

// NewCurriculumResponse maps a curriculum model with its program and course.
func NewCurriculumResponse(curriculum models.Curriculum) CurriculumResponse {
	return CurriculumResponse{
		ID:          curriculum.ID,
		ProgramName: curriculum.Program.Name,
		Year:        curriculum.Year,
		Semester:    curriculum.Semester,
		CourseCode:  curriculum.Course.Code,
		CourseName:  curriculum.Course.Name,
		Units:       curriculum.Course.Units,
	}
}
