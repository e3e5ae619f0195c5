package repository

import (
	"context"
	"database/sql"
	"sort"

	"gorm.io/gorm"

	"github.com/noah-isme/sao-registrar-api/internal/grading"
)

// TranscriptRow is one course line of a student's transcript. The
// studenttranscripts view exposes the same columns.
type TranscriptRow struct {
	StudentID   string         `gorm:"column:student_id" json:"studentId"`
	StudentName string         `gorm:"column:student_name" json:"studentName"`
	ProgramName string         `gorm:"column:program_name" json:"program"`
	Year        int            `gorm:"column:year" json:"year"`
	Semester    int            `gorm:"column:semester" json:"semester"`
	CourseCode  string         `gorm:"column:course_code" json:"courseCode"`
	CourseName  string         `gorm:"column:course_name" json:"courseName"`
	Units       int            `gorm:"column:units" json:"units"`
	Grade       string         `gorm:"column:grade" json:"grade"`
	Status      grading.Status `gorm:"-" json:"status"`
}

// DeansListRow is a qualifying student as exposed by the deanslist view.
type DeansListRow struct {
	StudentID   string  `gorm:"column:student_id" json:"studentId"`
	StudentName string  `gorm:"column:student_name" json:"studentName"`
	GWA         float64 `gorm:"column:gwa" json:"gwa"`
	TotalUnits  int     `gorm:"column:total_units" json:"totalUnits"`
}

// ReportRepository reads the registrar's derived reports.
type ReportRepository interface {
	Transcript(ctx context.Context, studentID string) ([]TranscriptRow, error)
	GWA(ctx context.Context, studentID string) (float64, error)
	DeansList(ctx context.Context) ([]DeansListRow, error)
}

type reportRepository struct {
	db   *gorm.DB
	opts Options
}

// NewReportRepository constructs the report repository.
func NewReportRepository(db *gorm.DB, opts Options) ReportRepository {
	return &reportRepository{db: db, opts: opts}
}

func (r *reportRepository) Transcript(ctx context.Context, studentID string) ([]TranscriptRow, error) {
	rows := make([]TranscriptRow, 0)
	var err error
	if r.opts.StoredProcedures {
		err = r.db.WithContext(ctx).
			Raw("SELECT * FROM studenttranscripts WHERE student_id = ?", studentID).
			Scan(&rows).Error
	} else {
		err = r.transcriptQuery(ctx).
			Where("enrollments.student_id = ?", studentID).
			Scan(&rows).Error
	}
	if err != nil {
		return nil, classify(err)
	}

	for i := range rows {
		rows[i].Status = grading.DeriveStatus(rows[i].Grade)
	}
	return rows, nil
}

func (r *reportRepository) GWA(ctx context.Context, studentID string) (float64, error) {
	if r.opts.StoredProcedures {
		var result struct {
			GWA sql.NullFloat64 `gorm:"column:gwa"`
		}
		if err := r.db.WithContext(ctx).Raw("SELECT calcGWA(?) AS gwa", studentID).Scan(&result).Error; err != nil {
			return 0, classify(err)
		}
		return result.GWA.Float64, nil
	}

	rows, err := r.Transcript(ctx, studentID)
	if err != nil {
		return 0, err
	}
	gwa, _ := grading.GWA(credits(rows))
	return gwa, nil
}

func (r *reportRepository) DeansList(ctx context.Context) ([]DeansListRow, error) {
	list := make([]DeansListRow, 0)
	if r.opts.StoredProcedures {
		if err := r.db.WithContext(ctx).Raw("SELECT * FROM deanslist").Scan(&list).Error; err != nil {
			return nil, classify(err)
		}
		return list, nil
	}

	var rows []TranscriptRow
	if err := r.transcriptQuery(ctx).Where("students.is_deleted = ?", false).Scan(&rows).Error; err != nil {
		return nil, classify(err)
	}

	byStudent := make(map[string][]TranscriptRow)
	order := make([]string, 0)
	for _, row := range rows {
		if _, seen := byStudent[row.StudentID]; !seen {
			order = append(order, row.StudentID)
		}
		byStudent[row.StudentID] = append(byStudent[row.StudentID], row)
	}

	for _, id := range order {
		lines := byStudent[id]
		gwa, units := grading.GWA(credits(lines))
		if !grading.DeansListEligible(gwa, units) {
			continue
		}
		list = append(list, DeansListRow{
			StudentID:   id,
			StudentName: lines[0].StudentName,
			GWA:         gwa,
			TotalUnits:  units,
		})
	}

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].GWA != list[j].GWA {
			return list[i].GWA > list[j].GWA
		}
		return list[i].StudentName < list[j].StudentName
	})
	return list, nil
}

func (r *reportRepository) transcriptQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("enrollments").
		Select("students.id_number AS student_id, "+
			fullNameExpr(r.db, "students")+" AS student_name, "+
			"programs.name AS program_name, curriculum.year AS year, curriculum.semester AS semester, "+
			"courses.code AS course_code, courses.name AS course_name, courses.units AS units, enrollments.grade AS grade").
		Joins("JOIN students ON students.id_number = enrollments.student_id").
		Joins("JOIN curriculum ON curriculum.id = enrollments.curriculum_id").
		Joins("JOIN courses ON courses.id = curriculum.course_id").
		Joins("JOIN programs ON programs.id = curriculum.program_id").
		Where("enrollments.is_archived = ?", false).
		Order("students.id_number ASC, curriculum.year ASC, curriculum.semester ASC, courses.code ASC")
}

func credits(rows []TranscriptRow) []grading.Credit {
	out := make([]grading.Credit, 0, len(rows))
	for _, row := range rows {
		out = append(out, grading.Credit{Grade: row.Grade, Units: row.Units})
	}
	return out
}
