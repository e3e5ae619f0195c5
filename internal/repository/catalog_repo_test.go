package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCatalogRepositoryAddsEntries(t *testing.T) {
	db := newTestDB(t)
	repo := NewCatalogRepository(db, Options{})
	ctx := context.Background()

	program, err := repo.AddProgram(ctx, "BSIT")
	require.NoError(t, err)
	require.NotZero(t, program.ID)

	course, err := repo.AddCourse(ctx, "Data Structures", "IT201", 3)
	require.NoError(t, err)
	require.Equal(t, 3, course.Units)

	curriculum, err := repo.AddCurriculum(ctx, "BSIT", 2, 1, "IT201")
	require.NoError(t, err)
	require.Equal(t, program.ID, curriculum.ProgramID)
	require.Equal(t, "IT201", curriculum.Course.Code)

	_, err = repo.AddProgram(ctx, "BSIT")
	require.ErrorIs(t, err, ErrDuplicate)

	_, err = repo.AddCurriculum(ctx, "BSIT", 2, 1, "IT201")
	require.ErrorIs(t, err, ErrDuplicate)

	_, err = repo.AddCurriculum(ctx, "BSCE", 1, 1, "IT201")
	require.ErrorIs(t, err, ErrProcedureRejected)
}

func TestUserRepositoryNormalizesEmail(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, total)

	user := newUser("Admin@SAO.edu ")
	require.NoError(t, repo.Create(ctx, &user))

	found, err := repo.FindByEmail(ctx, "admin@sao.edu")
	require.NoError(t, err)
	require.Equal(t, user.ID, found.ID)

	dup := newUser("admin@sao.edu")
	require.ErrorIs(t, repo.Create(ctx, &dup), ErrDuplicate)

	_, err = repo.FindByEmail(ctx, "missing@sao.edu")
	require.ErrorIs(t, err, ErrNotFound)
}
