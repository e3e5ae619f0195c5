package models

import (
	"strings"
	"time"
)

// StudentIDLength is the fixed width of a student ID number.
const StudentIDLength = 8

// Student is a registrar record. Removal is a soft delete through IsDeleted.
type Student struct {
	IDNumber        string       `gorm:"column:id_number;primaryKey;size:8" json:"idNumber"`
	FirstName       string       `gorm:"size:30;not null" json:"firstName"`
	LastName        string       `gorm:"size:30;not null" json:"lastName"`
	Section         string       `gorm:"size:45;not null" json:"section"`
	CurrentYear     int          `gorm:"not null;default:1" json:"currentYear"`
	CurrentSemester int          `gorm:"not null;default:1" json:"currentSemester"`
	IsDeleted       bool         `gorm:"index;not null;default:false" json:"isDeleted"`
	DeletedAt       *time.Time   `json:"deletedAt"`
	CreatedBy       string       `gorm:"size:255" json:"createdBy"`
	UpdatedBy       string       `gorm:"size:255" json:"updatedBy"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
	Enrollments     []Enrollment `gorm:"foreignKey:StudentID;references:IDNumber" json:"enrollments,omitempty"`
}

// FullName joins first and last name the way the enrollment procedures expect.
func (s Student) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(s.FirstName) + " " + strings.TrimSpace(s.LastName))
}
