package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/sao-registrar-api/internal/models"
)

// CatalogRepository manages programs, courses and curriculum slots.
type CatalogRepository interface {
	AddProgram(ctx context.Context, name string) (models.Program, error)
	AddCourse(ctx context.Context, name, code string, units int) (models.Course, error)
	AddCurriculum(ctx context.Context, programName string, year, semester int, courseCode string) (models.Curriculum, error)
}

type catalogRepository struct {
	db   *gorm.DB
	opts Options
}

// NewCatalogRepository constructs the catalog repository.
func NewCatalogRepository(db *gorm.DB, opts Options) CatalogRepository {
	return &catalogRepository{db: db, opts: opts}
}

func (r *catalogRepository) AddProgram(ctx context.Context, name string) (models.Program, error) {
	if r.opts.StoredProcedures {
		if err := r.db.WithContext(ctx).Exec("CALL AddProgram(?)", name).Error; err != nil {
			return models.Program{}, classify(err)
		}
	} else {
		program := models.Program{Name: name}
		if err := r.db.WithContext(ctx).Create(&program).Error; err != nil {
			return models.Program{}, classify(err)
		}
	}

	var program models.Program
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&program).Error; err != nil {
		return models.Program{}, classify(err)
	}
	return program, nil
}

func (r *catalogRepository) AddCourse(ctx context.Context, name, code string, units int) (models.Course, error) {
	if r.opts.StoredProcedures {
		if err := r.db.WithContext(ctx).Exec("CALL AddCourse(?, ?, ?)", name, code, units).Error; err != nil {
			return models.Course{}, classify(err)
		}
	} else {
		course := models.Course{Name: name, Code: code, Units: units}
		if err := r.db.WithContext(ctx).Create(&course).Error; err != nil {
			return models.Course{}, classify(err)
		}
	}

	var course models.Course
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&course).Error; err != nil {
		return models.Course{}, classify(err)
	}
	return course, nil
}

func (r *catalogRepository) AddCurriculum(ctx context.Context, programName string, year, semester int, courseCode string) (models.Curriculum, error) {
	if r.opts.StoredProcedures {
		err := r.db.WithContext(ctx).
			Exec("CALL AddCurriculum(?, ?, ?, ?)", programName, year, semester, courseCode).
			Error
		if err != nil {
			return models.Curriculum{}, classify(err)
		}

		var curriculum models.Curriculum
		err = r.db.WithContext(ctx).
			Joins("JOIN programs ON programs.id = curriculum.program_id").
			Joins("JOIN courses ON courses.id = curriculum.course_id").
			Where("programs.name = ? AND curriculum.year = ? AND curriculum.semester = ? AND courses.code = ?",
				programName, year, semester, courseCode).
			Preload("Program").
			Preload("Course").
			Take(&curriculum).Error
		if err != nil {
			return models.Curriculum{}, classify(err)
		}
		return curriculum, nil
	}

	var curriculum models.Curriculum
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var program models.Program
		if err := tx.Where("name = ?", programName).First(&program).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return rejected(fmt.Sprintf("program %s not found", programName))
			}
			return classify(err)
		}

		var course models.Course
		if err := tx.Where("code = ?", courseCode).First(&course).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return rejected(fmt.Sprintf("course %s not found", courseCode))
			}
			return classify(err)
		}

		curriculum = models.Curriculum{ProgramID: program.ID, Year: year, Semester: semester, CourseID: course.ID}
		if err := tx.Omit(clause.Associations).Create(&curriculum).Error; err != nil {
			return classify(err)
		}
		curriculum.Program = program
		curriculum.Course = course
		return nil
	})
	if err != nil {
		return models.Curriculum{}, err
	}
	return curriculum, nil
}
