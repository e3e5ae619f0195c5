package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Classified persistence failures. Driver errors are translated into one of
// these so callers never depend on a specific database.
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicate         = errors.New("record already exists")
	ErrReferenceMissing  = errors.New("referenced record does not exist")
	ErrProcedureRejected = errors.New("rejected by database")
)

const (
	mysqlSignal         = 1644
	mysqlDuplicateEntry = 1062
	mysqlRowReferenced  = 1451
	mysqlNoReferenced   = 1452
)

// DBError pairs a classified failure with the message the database gave.
type DBError struct {
	Kind    error
	Message string
	Err     error
}

func (e *DBError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

func (e *DBError) Is(target error) bool {
	return target == e.Kind
}

func (e *DBError) Unwrap() error {
	return e.Err
}

func newDBError(kind error, message string, err error) error {
	return &DBError{Kind: kind, Message: message, Err: err}
}

// classify maps a driver error onto the repository's error kinds. Unknown
// errors are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newDBError(ErrNotFound, "", err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return newDBError(ErrDuplicate, "", err)
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return newDBError(ErrReferenceMissing, "", err)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch {
		case myErr.Number == mysqlSignal || string(myErr.SQLState[:]) == "45000":
			return newDBError(ErrProcedureRejected, myErr.Message, err)
		case myErr.Number == mysqlDuplicateEntry:
			return newDBError(ErrDuplicate, "", err)
		case myErr.Number == mysqlNoReferenced || myErr.Number == mysqlRowReferenced:
			return newDBError(ErrReferenceMissing, "", err)
		}
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "P0001":
			return newDBError(ErrProcedureRejected, pgErr.Message, err)
		case "23505":
			return newDBError(ErrDuplicate, "", err)
		case "23503":
			return newDBError(ErrReferenceMissing, "", err)
		}
		return err
	}

	message := err.Error()
	switch {
	case strings.Contains(message, "UNIQUE constraint failed"):
		return newDBError(ErrDuplicate, "", err)
	case strings.Contains(message, "FOREIGN KEY constraint failed"):
		return newDBError(ErrReferenceMissing, "", err)
	}

	return err
}

// rejected builds a procedure-style rejection raised by the ORM code path so
// both paths surface the same error kind.
func rejected(message string) error {
	return newDBError(ErrProcedureRejected, message, nil)
}
