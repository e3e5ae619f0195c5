package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/sao-registrar-api/internal/auditlog"
	"github.com/noah-isme/sao-registrar-api/internal/dto"
	"github.com/noah-isme/sao-registrar-api/internal/models"
	"github.com/noah-isme/sao-registrar-api/internal/repository"
	"github.com/noah-isme/sao-registrar-api/pkg/audit"
)

// StudentService manages the registrar's student records.
type StudentService interface {
	Create(ctx context.Context, payload dto.StudentCreateRequest, actor Actor) (dto.StudentResponse, error)
	Update(ctx context.Context, id string, payload dto.StudentUpdateRequest, actor Actor) (dto.StudentResponse, error)
	Archive(ctx context.Context, id string, actor Actor) (dto.StudentResponse, error)
	Restore(ctx context.Context, id string, actor Actor) (dto.StudentResponse, error)
	Get(ctx context.Context, id string) (dto.StudentResponse, error)
	List(ctx context.Context, req dto.StudentListRequest) ([]dto.StudentResponse, error)
}

type studentService struct {
	repo      repository.StudentRepository
	reports   ReportInvalidator
	validator *validator.Validate
	audit     trail
	logger    zerolog.Logger
}

// NewStudentService constructs the student service. reports may be nil.
func NewStudentService(repo repository.StudentRepository, reports ReportInvalidator, validator *validator.Validate, recorder AuditRecorder, logger zerolog.Logger) StudentService {
	return &studentService{
		repo:      repo,
		reports:   reports,
		validator: validator,
		audit:     trail{recorder: recorder, category: audit.CategorySystem},
		logger:    logger.With().Str("component", "student_service").Logger(),
	}
}

func (s *studentService) Create(ctx context.Context, payload dto.StudentCreateRequest, actor Actor) (dto.StudentResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/sao-registrar-api/internal/service/student")
	ctx, span := tracer.Start(ctx, "students.create")
	defer span.End()

	payload.IDNumber = strings.TrimSpace(payload.IDNumber)
	payload.FirstName = strings.TrimSpace(payload.FirstName)
	payload.LastName = strings.TrimSpace(payload.LastName)
	payload.Section = strings.TrimSpace(payload.Section)
	span.SetAttributes(attribute.String("student.id", payload.IDNumber))

	doc := auditlog.Document{
		Performer: actor.Performer(),
		Student:   payload.IDNumber,
		Details:   payload,
	}

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		s.audit.record(ctx, actionAddStudent, doc, err)
		return dto.StudentResponse{}, err
	}

	created, err := s.repo.Create(ctx, models.Student{
		IDNumber:  payload.IDNumber,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Section:   payload.Section,
		CreatedBy: actor.Performer(),
		UpdatedBy: actor.Performer(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			err = ErrDuplicateStudent
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "create_failed")
		s.audit.record(ctx, actionAddStudent, doc, err)
		return dto.StudentResponse{}, err
	}

	s.audit.record(ctx, actionAddStudent, doc, nil)
	s.logger.Info().Str("student_id", created.IDNumber).Str("performer", actor.Performer()).Msg("student created")
	return dto.NewStudentResponse(created), nil
}

func (s *studentService) Update(ctx context.Context, id string, payload dto.StudentUpdateRequest, actor Actor) (dto.StudentResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/sao-registrar-api/internal/service/student")
	ctx, span := tracer.Start(ctx, "students.update")
	defer span.End()

	id = strings.TrimSpace(id)
	span.SetAttributes(attribute.String("student.id", id))

	payload.FirstName = strings.TrimSpace(payload.FirstName)
	payload.LastName = strings.TrimSpace(payload.LastName)
	payload.Section = strings.TrimSpace(payload.Section)

	doc := auditlog.Document{
		Performer: actor.Performer(),
		Student:   id,
		Details:   payload,
	}

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		s.audit.record(ctx, actionUpdateStudent, doc, err)
		return dto.StudentResponse{}, err
	}

	updated, err := s.repo.Update(ctx, models.Student{
		IDNumber:        id,
		FirstName:       payload.FirstName,
		LastName:        payload.LastName,
		Section:         payload.Section,
		CurrentYear:     payload.CurrentYear,
		CurrentSemester: payload.CurrentSemester,
	}, actor.Performer())
	if err != nil {
		err = studentError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "update_failed")
		s.audit.record(ctx, actionUpdateStudent, doc, err)
		return dto.StudentResponse{}, err
	}

	s.invalidate(ctx, id)
	s.audit.record(ctx, actionUpdateStudent, doc, nil)
	return dto.NewStudentResponse(updated), nil
}

func (s *studentService) Archive(ctx context.Context, id string, actor Actor) (dto.StudentResponse, error) {
	return s.setArchived(ctx, id, true, actor)
}

func (s *studentService) Restore(ctx context.Context, id string, actor Actor) (dto.StudentResponse, error) {
	return s.setArchived(ctx, id, false, actor)
}

func (s *studentService) setArchived(ctx context.Context, id string, archived bool, actor Actor) (dto.StudentResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/sao-registrar-api/internal/service/student")
	ctx, span := tracer.Start(ctx, "students.set_archived")
	defer span.End()

	id = strings.TrimSpace(id)
	span.SetAttributes(attribute.String("student.id", id), attribute.Bool("student.archived", archived))

	action := actionRestoreStudent
	if archived {
		action = actionArchiveStudent
	}
	doc := auditlog.Document{Performer: actor.Performer(), Student: id}

	student, err := s.repo.SetArchived(ctx, id, archived, actor.Performer())
	if err != nil {
		err = studentError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "set_archived_failed")
		s.audit.record(ctx, action, doc, err)
		return dto.StudentResponse{}, err
	}

	s.invalidate(ctx, id)
	s.audit.record(ctx, action, doc, nil)
	s.logger.Info().Str("student_id", id).Bool("archived", archived).Msg("student archive state changed")
	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Get(ctx context.Context, id string) (dto.StudentResponse, error) {
	student, err := s.repo.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		return dto.StudentResponse{}, studentError(err)
	}
	return dto.NewStudentResponse(student), nil
}

func (s *studentService) List(ctx context.Context, req dto.StudentListRequest) ([]dto.StudentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	students, err := s.repo.List(ctx, repository.StudentFilter{Archived: req.Archived, Search: req.Search})
	if err != nil {
		return nil, err
	}
	return dto.NewStudentResponses(students), nil
}

// invalidate drops cached reports that show the student's name or
// archive state.
func (s *studentService) invalidate(ctx context.Context, id string) {
	if s.reports != nil {
		s.reports.Invalidate(ctx, id)
	}
}

func studentError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrStudentNotFound
	}
	return err
}
