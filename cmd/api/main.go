package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/noah-isme/sao-registrar-api/internal/auditlog"
	"github.com/noah-isme/sao-registrar-api/internal/auth"
	"github.com/noah-isme/sao-registrar-api/internal/config"
	"github.com/noah-isme/sao-registrar-api/internal/database"
	"github.com/noah-isme/sao-registrar-api/internal/handler"
	"github.com/noah-isme/sao-registrar-api/internal/middleware"
	"github.com/noah-isme/sao-registrar-api/internal/models"
	"github.com/noah-isme/sao-registrar-api/internal/observability"
	"github.com/noah-isme/sao-registrar-api/internal/repository"
	"github.com/noah-isme/sao-registrar-api/internal/router"
	"github.com/noah-isme/sao-registrar-api/internal/service"
	"github.com/noah-isme/sao-registrar-api/internal/utils"
)

type backends struct {
	db    *gorm.DB
	mongo *mongo.Client
	redis *redis.Client
	nats  *nats.Conn
}

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "sao-registrar-api").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.AppEnv == "development" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	observability.RegisterMetrics()

	ctx := context.Background()
	conns := backends{}

	conns.db, err = database.Retry(ctx, logger, cfg.DatabaseDriver, cfg.ConnectRetries, cfg.ConnectDelay, func(context.Context) (*gorm.DB, error) {
		return database.ConnectSQL(database.SQLOptions{
			Driver:       cfg.DatabaseDriver,
			DSN:          cfg.DatabaseURL,
			MaxOpenConns: cfg.DatabaseMaxConns,
		})
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	repoOpts := repository.Options{StoredProcedures: cfg.StoredProcedures}
	if err := repository.Migrate(ctx, conns.db, repoOpts); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var store auditlog.Store
	if cfg.MongoURI != "" {
		conns.mongo, err = database.Retry(ctx, logger, "mongo", cfg.ConnectRetries, cfg.ConnectDelay, func(ctx context.Context) (*mongo.Client, error) {
			return database.ConnectMongo(ctx, cfg.MongoURI)
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to mongo")
		}
		mongoStore := auditlog.NewMongoStore(conns.mongo.Database(cfg.MongoDatabase))
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to create audit indexes")
		}
		store = mongoStore
	} else {
		gormStore := auditlog.NewGormStore(conns.db)
		if err := gormStore.Migrate(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate audit table")
		}
		store = gormStore
		logger.Warn().Msg("mongo uri not set, audit logs are kept in the relational store")
	}

	if cfg.RedisURL != "" {
		conns.redis, err = database.Retry(ctx, logger, "redis", cfg.ConnectRetries, cfg.ConnectDelay, func(ctx context.Context) (*redis.Client, error) {
			return database.ConnectRedis(ctx, cfg.RedisURL)
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
	}

	hub := auditlog.NewHub()
	mirrors := []auditlog.Sink{hub}
	if cfg.NATSURL != "" {
		conns.nats, err = database.Retry(ctx, logger, "nats", cfg.ConnectRetries, cfg.ConnectDelay, func(context.Context) (*nats.Conn, error) {
			return database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		mirrors = append(mirrors, auditlog.NewNATSPublisher(conns.nats, cfg.NATSSubject))
	}

	fanout := auditlog.NewFanout(store, logger, mirrors...)
	queue := auditlog.NewQueue(fanout, cfg.AuditQueueSize, cfg.AuditWriteTimeout, logger)
	auditRouter := auditlog.NewRouter(queue, fanout, logger)

	validate := utils.NewValidator()
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTExpiry)

	studentRepo := repository.NewStudentRepository(conns.db, repoOpts)
	enrollmentRepo := repository.NewEnrollmentRepository(conns.db, repoOpts)
	catalogRepo := repository.NewCatalogRepository(conns.db, repoOpts)
	reportRepo := repository.NewReportRepository(conns.db, repoOpts)
	userRepo := repository.NewUserRepository(conns.db)

	reportService := service.NewReportService(reportRepo, studentRepo, conns.redis, cfg.ReportCacheTTL, auditRouter, logger)
	authService := service.NewAuthService(userRepo, issuer, validate, auditRouter, logger)
	studentService := service.NewStudentService(studentRepo, reportService, validate, auditRouter, logger)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, reportService, validate, auditRouter, logger)
	gradeService := service.NewGradeService(enrollmentRepo, reportService, validate, auditRouter, logger)
	catalogService := service.NewCatalogService(catalogRepo, validate, auditRouter, logger)
	auditService := service.NewAuditService(auditRouter, validate, logger)

	if err := authService.SeedAdmin(ctx, cfg.SeedAdminName, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed admin account")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		ErrorHandler: handler.ErrorHandler(logger),
	})

	middleware.Register(app, middleware.Config{
		Logger:        &logger,
		AllowedOrigin: cfg.FrontendURL,
		AccessLog:     cfg.AppEnv == "development",
	})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, logger),
		StudentHandler:    handler.NewStudentHandler(studentService, reportService, logger),
		EnrollmentHandler: handler.NewEnrollmentHandler(enrollmentService, logger),
		GradeHandler:      handler.NewGradeHandler(gradeService, logger),
		CatalogHandler:    handler.NewCatalogHandler(catalogService, logger),
		ReportHandler:     handler.NewReportHandler(reportService, logger),
		LogHandler:        handler.NewLogHandler(auditService, hub, logger),
		AuditQueue:        queue,
		Gates: handler.Gates{
			Authenticated: middleware.Protect(issuer),
			Staff:         middleware.Protect(issuer, models.RoleRegistrar, models.RoleFaculty),
			Registrar:     middleware.Protect(issuer, models.RoleRegistrar),
			Optional:      middleware.OptionalAuth(issuer),
			Ingest:        middleware.RateLimit("logs", cfg.LogRateLimit, time.Minute),
		},
	})

	go func() {
		logger.Info().Str("address", cfg.HTTPAddress()).Bool("stored_procedures", cfg.StoredProcedures).Msg("server starting")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, queue, conns, logger)
}

func waitForShutdown(app *fiber.App, queue *auditlog.Queue, conns backends, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	// Drain pending audit documents while the stores are still open.
	if err := queue.Close(ctx); err != nil {
		logger.Warn().Err(err).Msg("audit queue did not drain")
	}

	if conns.nats != nil {
		if err := conns.nats.Drain(); err != nil {
			logger.Warn().Err(err).Msg("failed to drain nats connection")
		}
	}
	if conns.mongo != nil {
		if err := conns.mongo.Disconnect(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to disconnect mongo")
		}
	}
	if conns.redis != nil {
		if err := conns.redis.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close redis")
		}
	}
	if err := database.CloseSQL(conns.db); err != nil {
		logger.Warn().Err(err).Msg("failed to close database")
	}

	logger.Info().Msg("server stopped")
}
