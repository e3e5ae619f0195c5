package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/sao-registrar-api/internal/models"
)

// StudentFilter narrows student listings.
type StudentFilter struct {
	Archived bool
	Search   string
}

// StudentRepository persists registrar student records.
type StudentRepository interface {
	Create(ctx context.Context, student models.Student) (models.Student, error)
	Update(ctx context.Context, student models.Student, performer string) (models.Student, error)
	SetArchived(ctx context.Context, id string, archived bool, performer string) (models.Student, error)
	Get(ctx context.Context, id string) (models.Student, error)
	List(ctx context.Context, filter StudentFilter) ([]models.Student, error)
}

type studentRepository struct {
	db   *gorm.DB
	opts Options
}

// NewStudentRepository constructs the student repository.
func NewStudentRepository(db *gorm.DB, opts Options) StudentRepository {
	return &studentRepository{db: db, opts: opts}
}

func (r *studentRepository) Create(ctx context.Context, student models.Student) (models.Student, error) {
	if r.opts.StoredProcedures {
		err := r.db.WithContext(ctx).
			Exec("CALL AddStudent(?, ?, ?, ?)", student.IDNumber, student.LastName, student.FirstName, student.Section).
			Error
		if err != nil {
			return models.Student{}, classify(err)
		}
		return r.Get(ctx, student.IDNumber)
	}

	if student.CurrentYear == 0 {
		student.CurrentYear = 1
	}
	if student.CurrentSemester == 0 {
		student.CurrentSemester = 1
	}
	if err := r.db.WithContext(ctx).Create(&student).Error; err != nil {
		return models.Student{}, classify(err)
	}
	return r.Get(ctx, student.IDNumber)
}

func (r *studentRepository) Update(ctx context.Context, student models.Student, performer string) (models.Student, error) {
	if r.opts.StoredProcedures {
		err := r.db.WithContext(ctx).
			Exec("CALL UpdateStudent(?, ?, ?, ?, ?, ?, ?)",
				student.IDNumber, student.LastName, student.FirstName, student.Section,
				student.CurrentYear, student.CurrentSemester, performer).
			Error
		if err != nil {
			return models.Student{}, classify(err)
		}
		return r.Get(ctx, student.IDNumber)
	}

	update := r.db.WithContext(ctx).Model(&models.Student{}).
		Where("id_number = ?", student.IDNumber).
		Where("is_deleted = ?", false).
		Updates(map[string]interface{}{
			"first_name":       student.FirstName,
			"last_name":        student.LastName,
			"section":          student.Section,
			"current_year":     student.CurrentYear,
			"current_semester": student.CurrentSemester,
			"updated_by":       performer,
		})
	if update.Error != nil {
		return models.Student{}, classify(update.Error)
	}
	if update.RowsAffected == 0 {
		if _, err := r.Get(ctx, student.IDNumber); err != nil {
			return models.Student{}, err
		}
		return models.Student{}, rejected("archived students cannot be updated")
	}

	return r.Get(ctx, student.IDNumber)
}

func (r *studentRepository) SetArchived(ctx context.Context, id string, archived bool, performer string) (models.Student, error) {
	if r.opts.StoredProcedures {
		err := r.db.WithContext(ctx).
			Exec("CALL SetStudentArchived(?, ?, ?)", id, archived, performer).
			Error
		if err != nil {
			return models.Student{}, classify(err)
		}
		return r.Get(ctx, id)
	}

	updates := map[string]interface{}{
		"is_deleted": archived,
		"deleted_at": nil,
		"updated_by": performer,
	}
	if archived {
		updates["deleted_at"] = time.Now().UTC()
	}

	update := r.db.WithContext(ctx).Model(&models.Student{}).
		Where("id_number = ?", id).
		Where("is_deleted = ?", !archived).
		Updates(updates)
	if update.Error != nil {
		return models.Student{}, classify(update.Error)
	}
	if update.RowsAffected == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return models.Student{}, err
		}
		if archived {
			return models.Student{}, rejected("student is already archived")
		}
		return models.Student{}, rejected("student is not archived")
	}

	return r.Get(ctx, id)
}

func (r *studentRepository) Get(ctx context.Context, id string) (models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Preload("Enrollments", func(db *gorm.DB) *gorm.DB {
			return db.Order("enrollments.id ASC")
		}).
		Preload("Enrollments.Curriculum.Course").
		Preload("Enrollments.Curriculum.Program").
		Where("id_number = ?", id).
		First(&student).Error
	if err != nil {
		return models.Student{}, classify(err)
	}
	return student, nil
}

func (r *studentRepository) List(ctx context.Context, filter StudentFilter) ([]models.Student, error) {
	query := r.db.WithContext(ctx).Model(&models.Student{}).Where("is_deleted = ?", filter.Archived)

	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(id_number) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", like, like, like)
	}

	var students []models.Student
	if err := query.Order("last_name ASC, first_name ASC").Find(&students).Error; err != nil {
		return nil, classify(err)
	}
	return students, nil
}
