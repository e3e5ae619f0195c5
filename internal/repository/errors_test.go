package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestClassifyMySQLSignals(t *testing.T) {
	signal := &mysql.MySQLError{Number: 1644, SQLState: [5]byte{'4', '5', '0', '0', '0'}, Message: "Student ID already exists"}
	err := classify(fmt.Errorf("call: %w", signal))
	require.ErrorIs(t, err, ErrProcedureRejected)
	require.Equal(t, "Student ID already exists", err.Error())

	var dbErr *DBError
	require.True(t, errors.As(err, &dbErr))
	require.ErrorAs(t, err, &signal)

	require.ErrorIs(t, classify(&mysql.MySQLError{Number: 1062}), ErrDuplicate)
	require.ErrorIs(t, classify(&mysql.MySQLError{Number: 1452}), ErrReferenceMissing)
}

func TestClassifyPostgresCodes(t *testing.T) {
	require.ErrorIs(t, classify(&pgconn.PgError{Code: "23505"}), ErrDuplicate)
	require.ErrorIs(t, classify(&pgconn.PgError{Code: "23503"}), ErrReferenceMissing)

	err := classify(&pgconn.PgError{Code: "P0001", Message: "Course not offered"})
	require.ErrorIs(t, err, ErrProcedureRejected)
	require.Equal(t, "Course not offered", err.Error())
}

func TestClassifyGormAndSQLite(t *testing.T) {
	require.ErrorIs(t, classify(gorm.ErrRecordNotFound), ErrNotFound)
	require.ErrorIs(t, classify(errors.New("UNIQUE constraint failed: students.id_number")), ErrDuplicate)
	require.NoError(t, classify(nil))

	plain := errors.New("connection reset")
	require.Equal(t, plain, classify(plain))
}
