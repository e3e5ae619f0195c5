package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/sao-registrar-api/internal/grading"
	"github.com/noah-isme/sao-registrar-api/internal/models"
)

// EnrollParams identifies the student and curriculum slot to enroll into.
// Either StudentID or FullName must be set.
type EnrollParams struct {
	StudentID   string
	FullName    string
	CourseCode  string
	ProgramName string
	Year        int
	Semester    int
	Performer   string
}

// GradeParams identifies an enrollment by ID, or by student full name and
// course code, and carries the validated mark to store.
type GradeParams struct {
	EnrollmentID uint
	FullName     string
	CourseCode   string
	Mark         grading.Mark
	Performer    string
}

// EnrollmentRepository persists enrollments and their grades.
type EnrollmentRepository interface {
	Enroll(ctx context.Context, params EnrollParams) (uint, error)
	SetArchived(ctx context.Context, id uint, archived bool, performer string) (models.Enrollment, error)
	UpdateGrade(ctx context.Context, params GradeParams) (models.Enrollment, error)
	Get(ctx context.Context, id uint) (models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID string, includeArchived bool) ([]models.Enrollment, error)
	FindActive(ctx context.Context, fullName, courseCode string) (models.Enrollment, error)
}

type enrollmentRepository struct {
	db   *gorm.DB
	opts Options
}

// NewEnrollmentRepository constructs the enrollment repository.
func NewEnrollmentRepository(db *gorm.DB, opts Options) EnrollmentRepository {
	return &enrollmentRepository{db: db, opts: opts}
}

type insertResult struct {
	NewInsertID uint `gorm:"column:newInsertId"`
}

func (r *enrollmentRepository) Enroll(ctx context.Context, params EnrollParams) (uint, error) {
	if r.opts.StoredProcedures {
		fullName := params.FullName
		if fullName == "" {
			student, err := r.student(ctx, r.db, params)
			if err != nil {
				return 0, err
			}
			fullName = student.FullName()
		}

		var result insertResult
		err := r.db.WithContext(ctx).
			Raw("CALL StudentEnroll(?, ?, ?, ?, ?)", fullName, params.CourseCode, params.ProgramName, params.Year, params.Semester).
			Scan(&result).Error
		if err != nil {
			return 0, classify(err)
		}
		return result.NewInsertID, nil
	}

	var id uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		student, err := r.student(ctx, tx, params)
		if err != nil {
			return err
		}
		if student.IsDeleted {
			return rejected("student is archived")
		}

		curriculum, err := findCurriculum(tx, params.ProgramName, params.Year, params.Semester, params.CourseCode)
		if err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.Enrollment{}).
			Where("student_id = ? AND curriculum_id = ? AND is_archived = ?", student.IDNumber, curriculum.ID, false).
			Count(&existing).Error; err != nil {
			return classify(err)
		}
		if existing > 0 {
			return rejected(fmt.Sprintf("%s is already enrolled in %s", student.FullName(), params.CourseCode))
		}

		enrollment := models.Enrollment{
			StudentID:    student.IDNumber,
			CurriculumID: curriculum.ID,
			Grade:        grading.Ongoing,
			CreatedBy:    params.Performer,
			UpdatedBy:    params.Performer,
		}
		if err := tx.Omit(clause.Associations).Create(&enrollment).Error; err != nil {
			return classify(err)
		}
		id = enrollment.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *enrollmentRepository) SetArchived(ctx context.Context, id uint, archived bool, performer string) (models.Enrollment, error) {
	if r.opts.StoredProcedures {
		flag := 0
		if archived {
			flag = 1
		}
		if err := r.db.WithContext(ctx).Exec("CALL SetEnrollmentArchived(?, ?)", id, flag).Error; err != nil {
			return models.Enrollment{}, classify(err)
		}
		return r.Get(ctx, id)
	}

	updates := map[string]interface{}{
		"is_archived": archived,
		"archived_at": nil,
		"updated_by":  performer,
		"updated_at":  time.Now().UTC(),
	}
	if archived {
		updates["archived_at"] = time.Now().UTC()
	}

	update := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("id = ?", id).
		Where("is_archived = ?", !archived).
		UpdateColumns(updates)
	if update.Error != nil {
		return models.Enrollment{}, classify(update.Error)
	}
	if update.RowsAffected == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return models.Enrollment{}, err
		}
		if archived {
			return models.Enrollment{}, rejected("enrollment is already archived")
		}
		return models.Enrollment{}, rejected("enrollment is not archived")
	}

	return r.Get(ctx, id)
}

func (r *enrollmentRepository) UpdateGrade(ctx context.Context, params GradeParams) (models.Enrollment, error) {
	target, err := r.locate(ctx, params)
	if err != nil {
		return models.Enrollment{}, err
	}
	if target.IsArchived {
		return models.Enrollment{}, rejected("archived enrollments cannot be graded")
	}

	if r.opts.StoredProcedures {
		fullName := params.FullName
		courseCode := params.CourseCode
		if params.EnrollmentID != 0 {
			var student models.Student
			if err := r.db.WithContext(ctx).Where("id_number = ?", target.StudentID).First(&student).Error; err != nil {
				return models.Enrollment{}, classify(err)
			}
			fullName = student.FullName()
			courseCode = target.Curriculum.Course.Code
		}

		err := r.db.WithContext(ctx).
			Exec("CALL GradeUpdate(?, ?, ?)", fullName, courseCode, params.Mark.Grade()).
			Error
		if err != nil {
			return models.Enrollment{}, classify(err)
		}
		return r.Get(ctx, target.ID)
	}

	target.ApplyMark(params.Mark)
	target.UpdatedBy = params.Performer
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(&target).Error; err != nil {
		return models.Enrollment{}, classify(err)
	}
	return r.Get(ctx, target.ID)
}

func (r *enrollmentRepository) Get(ctx context.Context, id uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Curriculum.Course").
		Preload("Curriculum.Program").
		Where("id = ?", id).
		First(&enrollment).Error
	if err != nil {
		return models.Enrollment{}, classify(err)
	}
	return enrollment, nil
}

func (r *enrollmentRepository) ListByStudent(ctx context.Context, studentID string, includeArchived bool) ([]models.Enrollment, error) {
	query := r.db.WithContext(ctx).
		Preload("Curriculum.Course").
		Preload("Curriculum.Program").
		Where("student_id = ?", studentID)
	if !includeArchived {
		query = query.Where("is_archived = ?", false)
	}

	var enrollments []models.Enrollment
	if err := query.Order("id ASC").Find(&enrollments).Error; err != nil {
		return nil, classify(err)
	}
	return enrollments, nil
}

func (r *enrollmentRepository) FindActive(ctx context.Context, fullName, courseCode string) (models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.db.WithContext(ctx).
		Joins("JOIN students ON students.id_number = enrollments.student_id").
		Joins("JOIN curriculum ON curriculum.id = enrollments.curriculum_id").
		Joins("JOIN courses ON courses.id = curriculum.course_id").
		Where(fullNameExpr(r.db, "students")+" = ?", fullName).
		Where("courses.code = ?", courseCode).
		Where("enrollments.is_archived = ?", false).
		Preload("Curriculum.Course").
		Preload("Curriculum.Program").
		Order("enrollments.id DESC").
		Take(&enrollment).Error
	if err != nil {
		return models.Enrollment{}, classify(err)
	}
	return enrollment, nil
}

func (r *enrollmentRepository) locate(ctx context.Context, params GradeParams) (models.Enrollment, error) {
	if params.EnrollmentID != 0 {
		return r.Get(ctx, params.EnrollmentID)
	}

	enrollment, err := r.FindActive(ctx, params.FullName, params.CourseCode)
	if errors.Is(err, ErrNotFound) {
		return models.Enrollment{}, newDBError(ErrNotFound, fmt.Sprintf("no active enrollment for %s in %s", params.FullName, params.CourseCode), nil)
	}
	return enrollment, err
}

func (r *enrollmentRepository) student(ctx context.Context, db *gorm.DB, params EnrollParams) (models.Student, error) {
	var student models.Student
	query := db.WithContext(ctx)
	if params.StudentID != "" {
		query = query.Where("id_number = ?", params.StudentID)
	} else {
		query = query.Where(fullNameExpr(db, "students")+" = ?", params.FullName)
	}

	if err := query.First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Student{}, rejected("student not found")
		}
		return models.Student{}, classify(err)
	}
	return student, nil
}

func findCurriculum(tx *gorm.DB, programName string, year, semester int, courseCode string) (models.Curriculum, error) {
	var program models.Program
	if err := tx.Where("name = ?", programName).First(&program).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Curriculum{}, rejected(fmt.Sprintf("program %s not found", programName))
		}
		return models.Curriculum{}, classify(err)
	}

	var course models.Course
	if err := tx.Where("code = ?", courseCode).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Curriculum{}, rejected(fmt.Sprintf("course %s not found", courseCode))
		}
		return models.Curriculum{}, classify(err)
	}

	var curriculum models.Curriculum
	err := tx.
		Where("program_id = ? AND year = ? AND semester = ? AND course_id = ?", program.ID, year, semester, course.ID).
		First(&curriculum).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Curriculum{}, rejected(fmt.Sprintf("%s is not offered in %s year %d semester %d", courseCode, programName, year, semester))
		}
		return models.Curriculum{}, classify(err)
	}

	curriculum.Program = program
	curriculum.Course = course
	return curriculum, nil
}
