package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/sao-registrar-api/internal/grading"
)

// Enrollment ties a student to one curriculum entry. Status is never written
// directly: BeforeSave recomputes it from Grade on every insert and update.
type Enrollment struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	StudentID    string         `gorm:"size:8;not null;index" json:"studentId"`
	CurriculumID uint           `gorm:"not null;index" json:"curriculumId"`
	Grade        string         `gorm:"size:9;not null;default:'(Ongoing)'" json:"grade"`
	Status       grading.Status `gorm:"size:16;not null;default:'Active'" json:"status"`
	IsArchived   bool           `gorm:"index;not null;default:false" json:"isArchived"`
	ArchivedAt   *time.Time     `json:"archivedAt"`
	CreatedBy    string         `gorm:"size:255" json:"createdBy"`
	UpdatedBy    string         `gorm:"size:255" json:"updatedBy"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	Curriculum   Curriculum     `gorm:"foreignKey:CurriculumID" json:"curriculum"`
}

// BeforeSave keeps Status a pure function of Grade.
func (e *Enrollment) BeforeSave(tx *gorm.DB) error {
	e.Grade = grading.Normalize(e.Grade)
	e.Status = grading.DeriveStatus(e.Grade)
	return nil
}

// AfterFind re-derives Status so rows written outside the ORM read the same way.
func (e *Enrollment) AfterFind(tx *gorm.DB) error {
	e.Status = grading.DeriveStatus(e.Grade)
	return nil
}

// ApplyMark copies a validated mark onto the enrollment.
func (e *Enrollment) ApplyMark(mark grading.Mark) {
	e.Grade = mark.Grade()
	e.Status = mark.Status()
}
