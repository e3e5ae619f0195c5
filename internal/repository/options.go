package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/sao-registrar-api/internal/models"
)

// Options selects how mutations reach the database.
type Options struct {
	// StoredProcedures routes writes through the registrar's MySQL
	// procedures. When false the repositories perform the same checks with
	// plain ORM statements.
	StoredProcedures bool
}

// Migrate creates the tables the API owns. With stored procedures enabled
// the registrar schema already exists and only the account table is managed.
func Migrate(ctx context.Context, db *gorm.DB, opts Options) error {
	if opts.StoredProcedures {
		return db.WithContext(ctx).AutoMigrate(&models.User{})
	}

	return db.WithContext(ctx).AutoMigrate(
		&models.Program{},
		&models.Course{},
		&models.Curriculum{},
		&models.Student{},
		&models.Enrollment{},
		&models.User{},
	)
}

// fullNameExpr renders "first last" for the active dialect.
func fullNameExpr(db *gorm.DB, table string) string {
	if db.Dialector.Name() == "mysql" {
		return "CONCAT(" + table + ".first_name, ' ', " + table + ".last_name)"
	}
	return table + ".first_name || ' ' || " + table + ".last_name"
}
