package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/sao-registrar-api/internal/auditlog"
	"github.com/noah-isme/sao-registrar-api/internal/dto"
	"github.com/noah-isme/sao-registrar-api/internal/repository"
	"github.com/noah-isme/sao-registrar-api/internal/utils"
	"github.com/noah-isme/sao-registrar-api/pkg/audit"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

var registrar = Actor{ID: 1, Email: "admin@sao.edu", Name: "Admin User", Role: "registrar"}

type testEnv struct {
	db          *gorm.DB
	router      *auditlog.Router
	redis       *miniredis.Miniredis
	students    StudentService
	enrollments EnrollmentService
	grades      GradeService
	catalog     CatalogService
	reports     ReportService
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(ctx, db, repository.Options{}))

	store := auditlog.NewGormStore(db)
	require.NoError(t, store.Migrate(ctx))
	router := auditlog.NewRouter(store, store, testLogger())

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	validate := utils.NewValidator()
	opts := repository.Options{}
	studentRepo := repository.NewStudentRepository(db, opts)
	enrollmentRepo := repository.NewEnrollmentRepository(db, opts)

	reports := NewReportService(repository.NewReportRepository(db, opts), studentRepo, cache, time.Minute, router, testLogger())

	return testEnv{
		db:          db,
		router:      router,
		redis:       mr,
		students:    NewStudentService(studentRepo, reports, validate, router, testLogger()),
		enrollments: NewEnrollmentService(enrollmentRepo, reports, validate, router, testLogger()),
		grades:      NewGradeService(enrollmentRepo, reports, validate, router, testLogger()),
		catalog:     NewCatalogService(repository.NewCatalogRepository(db, opts), validate, router, testLogger()),
		reports:     reports,
	}
}

// seedCatalog adds BSCS with the given three-unit courses in year 1 semester 1.
func (e testEnv) seedCatalog(t *testing.T, codes ...string) {
	t.Helper()
	ctx := context.Background()

	_, err := e.catalog.CreateProgram(ctx, dto.ProgramCreateRequest{Name: "BSCS"}, registrar)
	require.NoError(t, err)
	for _, code := range codes {
		_, err := e.catalog.CreateCourse(ctx, dto.CourseCreateRequest{Name: "Course " + code, Code: code, Units: 3}, registrar)
		require.NoError(t, err)
		_, err = e.catalog.CreateCurriculum(ctx, dto.CurriculumCreateRequest{ProgramName: "BSCS", Year: 1, Semester: 1, CourseCode: code}, registrar)
		require.NoError(t, err)
	}
}

func (e testEnv) seedStudent(t *testing.T, id, first, last string) dto.StudentResponse {
	t.Helper()
	student, err := e.students.Create(context.Background(), dto.StudentCreateRequest{
		IDNumber:  id,
		FirstName: first,
		LastName:  last,
		Section:   "CS-1A",
	}, registrar)
	require.NoError(t, err)
	return student
}

func (e testEnv) enroll(t *testing.T, studentID, code string) dto.EnrollmentResponse {
	t.Helper()
	enrollment, err := e.enrollments.Enroll(context.Background(), dto.EnrollRequest{
		StudentID:   studentID,
		CourseCode:  code,
		ProgramName: "BSCS",
		YearID:      1,
		SemesterID:  1,
	}, registrar)
	require.NoError(t, err)
	return enrollment
}

func (e testEnv) logs(t *testing.T, category audit.Category) []auditlog.Document {
	t.Helper()
	docs, err := e.router.Find(context.Background(), category)
	require.NoError(t, err)
	return docs
}

func findAction(docs []auditlog.Document, action string) (auditlog.Document, bool) {
	for _, doc := range docs {
		if doc.Action == action {
			return doc, true
		}
	}
	return auditlog.Document{}, false
}
