package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/sao-registrar-api/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, Migrate(context.Background(), db, Options{}))
	return db
}

type catalogFixture struct {
	program models.Program
	courses []models.Course
}

// seedCatalog creates BSCS with count three-unit courses in year 1 semester 1.
func seedCatalog(t *testing.T, db *gorm.DB, count int) catalogFixture {
	t.Helper()
	repo := NewCatalogRepository(db, Options{})
	ctx := context.Background()

	program, err := repo.AddProgram(ctx, "BSCS")
	require.NoError(t, err)

	fixture := catalogFixture{program: program}
	for i := 0; i < count; i++ {
		code := []string{"CS101", "CS102", "MATH101", "ENG101", "PE101", "HIST101"}[i]
		course, err := repo.AddCourse(ctx, "Course "+code, code, 3)
		require.NoError(t, err)
		_, err = repo.AddCurriculum(ctx, "BSCS", 1, 1, code)
		require.NoError(t, err)
		fixture.courses = append(fixture.courses, course)
	}
	return fixture
}

func seedStudent(t *testing.T, db *gorm.DB, id, first, last string) models.Student {
	t.Helper()
	student, err := NewStudentRepository(db, Options{}).Create(context.Background(), models.Student{
		IDNumber:  id,
		FirstName: first,
		LastName:  last,
		Section:   "CS-1A",
		CreatedBy: "admin@sao.edu",
	})
	require.NoError(t, err)
	return student
}

func newUser(email string) models.User {
	return models.User{
		Name:         "Admin User",
		Email:        email,
		PasswordHash: "hash",
		Permissions:  datatypes.NewJSONType(models.AdminPermissions),
	}
}
