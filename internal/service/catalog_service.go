package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/sao-registrar-api/internal/auditlog"
	"github.com/noah-isme/sao-registrar-api/internal/dto"
	"github.com/noah-isme/sao-registrar-api/internal/models"
	"github.com/noah-isme/sao-registrar-api/internal/repository"
	"github.com/noah-isme/sao-registrar-api/pkg/audit"
)

// CatalogService maintains programs, courses and curriculum slots.
type CatalogService interface {
	CreateProgram(ctx context.Context, payload dto.ProgramCreateRequest, actor Actor) (models.Program, error)
	CreateCourse(ctx context.Context, payload dto.CourseCreateRequest, actor Actor) (models.Course, error)
	CreateCurriculum(ctx context.Context, payload dto.CurriculumCreateRequest, actor Actor) (dto.CurriculumResponse, error)
}

type catalogService struct {
	repo      repository.CatalogRepository
	validator *validator.Validate
	audit     trail
	logger    zerolog.Logger
}

// NewCatalogService constructs the catalog service.
func NewCatalogService(repo repository.CatalogRepository, validator *validator.Validate, recorder AuditRecorder, logger zerolog.Logger) CatalogService {
	return &catalogService{
		repo:      repo,
		validator: validator,
		audit:     trail{recorder: recorder, category: audit.CategorySystem},
		logger:    logger.With().Str("component", "catalog_service").Logger(),
	}
}

func (s *catalogService) CreateProgram(ctx context.Context, payload dto.ProgramCreateRequest, actor Actor) (models.Program, error) {
	ctx, span := otel.Tracer("github.com/noah-isme/sao-registrar-api/internal/service/catalog").Start(ctx, "catalog.create_program")
	defer span.End()

	payload.Name = strings.TrimSpace(payload.Name)
	doc := auditlog.Document{Performer: actor.Performer(), Details: payload}

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		s.audit.record(ctx, actionAddProgram, doc, err)
		return models.Program{}, err
	}

	program, err := s.repo.AddProgram(ctx, payload.Name)
	s.audit.record(ctx, actionAddProgram, doc, err)
	if err != nil {
		span.RecordError(err)
		return models.Program{}, err
	}
	return program, nil
}

func (s *catalogService) CreateCourse(ctx context.Context, payload dto.CourseCreateRequest, actor Actor) (models.Course, error) {
	ctx, span := otel.Tracer("github.com/noah-isme/sao-registrar-api/internal/service/catalog").Start(ctx, "catalog.create_course")
	defer span.End()

	payload.Name = strings.TrimSpace(payload.Name)
	payload.Code = strings.TrimSpace(payload.Code)
	doc := auditlog.Document{Performer: actor.Performer(), Course: payload.Code, Details: payload}

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		s.audit.record(ctx, actionAddCourse, doc, err)
		return models.Course{}, err
	}

	course, err := s.repo.AddCourse(ctx, payload.Name, payload.Code, payload.Units)
	s.audit.record(ctx, actionAddCourse, doc, err)
	if err != nil {
		span.RecordError(err)
		return models.Course{}, err
	}
	return course, nil
}

func (s *catalogService) CreateCurriculum(ctx context.Context, payload dto.CurriculumCreateRequest, actor Actor) (dto.CurriculumResponse, error) {
	ctx, span := otel.Tracer("github.com/noah-isme/sao-registrar-api/internal/service/catalog").Start(ctx, "catalog.create_curriculum")
	defer span.End()

	payload.ProgramName = strings.TrimSpace(payload.ProgramName)
	payload.CourseCode = strings.TrimSpace(payload.CourseCode)
	doc := auditlog.Document{Performer: actor.Performer(), Course: payload.CourseCode, Details: payload}

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		s.audit.record(ctx, actionAddCurriculum, doc, err)
		return dto.CurriculumResponse{}, err
	}

	curriculum, err := s.repo.AddCurriculum(ctx, payload.ProgramName, payload.Year, payload.Semester, payload.CourseCode)
	s.audit.record(ctx, actionAddCurriculum, doc, err)
	if err != nil {
		span.RecordError(err)
		return dto.CurriculumResponse{}, err
	}

	s.logger.Info().
		Str("program", payload.ProgramName).
		Str("course", payload.CourseCode).
		Int("year", payload.Year).
		Int("semester", payload.Semester).
		Msg("curriculum slot added")
	return dto.NewCurriculumResponse(curriculum), nil
}
