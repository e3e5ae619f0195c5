package models

import "time"

// Program is a degree program such as BSCS.
type Program struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:45;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Course is a unit-bearing subject identified by its code.
type Course struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"size:7;uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Units     int       `gorm:"not null" json:"units"`
	CreatedAt time.Time `json:"createdAt"`
}

// Curriculum places a course in a program's year and semester.
type Curriculum struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProgramID uint      `gorm:"not null;uniqueIndex:idx_curriculum_slot" json:"programId"`
	Year      int       `gorm:"not null;uniqueIndex:idx_curriculum_slot" json:"year"`
	Semester  int       `gorm:"not null;uniqueIndex:idx_curriculum_slot" json:"semester"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_curriculum_slot" json:"courseId"`
	CreatedAt time.Time `json:"createdAt"`
	Program   Program   `gorm:"foreignKey:ProgramID" json:"program"`
	Course    Course    `gorm:"foreignKey:CourseID" json:"course"`
}

// TableName keeps the singular table name used by the registrar schema.
func (Curriculum) TableName() string {
	return "curriculum"
}
