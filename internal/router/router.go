package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sao-registrar-api/internal/config"
	"github.com/noah-isme/sao-registrar-api/internal/handler"
	"github.com/noah-isme/sao-registrar-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	StudentHandler    *handler.StudentHandler
	EnrollmentHandler *handler.EnrollmentHandler
	GradeHandler      *handler.GradeHandler
	CatalogHandler    *handler.CatalogHandler
	ReportHandler     *handler.ReportHandler
	LogHandler        *handler.LogHandler
	AuditQueue        handler.QueueDepth
	Gates             handler.Gates
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.AuditQueue))
	api.Get("/metrics", observability.MetricsHandler())

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth"), deps.Gates)
	}

	// Students, enrollments and the per-student transcript
	if deps.StudentHandler != nil || deps.EnrollmentHandler != nil {
		students := api.Group("/students")
		if deps.EnrollmentHandler != nil {
			deps.EnrollmentHandler.Register(students, deps.Gates)
		}
		if deps.StudentHandler != nil {
			deps.StudentHandler.Register(students, deps.Gates)
		}
	}

	if deps.GradeHandler != nil {
		deps.GradeHandler.Register(api.Group("/grades"), deps.Gates)
	}

	if deps.CatalogHandler != nil {
		deps.CatalogHandler.Register(api.Group("/admin"), deps.Gates)
	}

	if deps.ReportHandler != nil || deps.LogHandler != nil {
		reports := api.Group("/reports")
		if deps.ReportHandler != nil {
			deps.ReportHandler.Register(reports, deps.Gates)
		}
		if deps.LogHandler != nil {
			deps.LogHandler.RegisterReportAlias(reports, deps.Gates)
		}
	}

	if deps.LogHandler != nil {
		deps.LogHandler.Register(api.Group("/logs"), deps.Gates)
	}
}
