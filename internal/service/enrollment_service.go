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
	"github.com/noah-isme/sao-registrar-api/internal/repository"
	"github.com/noah-isme/sao-registrar-api/pkg/audit"
)

// ReportInvalidator drops cached reports affected by a student's records.
type ReportInvalidator interface {
	Invalidate(ctx context.Context, studentID string)
}

// EnrollmentService enrolls students into curriculum slots.
type EnrollmentService interface {
	Enroll(ctx context.Context, payload dto.EnrollRequest, actor Actor) (dto.EnrollmentResponse, error)
	Archive(ctx context.Context, id uint, actor Actor) (dto.EnrollmentResponse, error)
	Restore(ctx context.Context, id uint, actor Actor) (dto.EnrollmentResponse, error)
}

type enrollmentService struct {
	repo      repository.EnrollmentRepository
	reports   ReportInvalidator
	validator *validator.Validate
	audit     trail
	logger    zerolog.Logger
}

// NewEnrollmentService constructs the enrollment service. reports may be nil.
func NewEnrollmentService(repo repository.EnrollmentRepository, reports ReportInvalidator, validator *validator.Validate, recorder AuditRecorder, logger zerolog.Logger) EnrollmentService {
	return &enrollmentService{
		repo:      repo,
		reports:   reports,
		validator: validator,
		audit:     trail{recorder: recorder, category: audit.CategoryEnrollment},
		logger:    logger.With().Str("component", "enrollment_service").Logger(),
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, payload dto.EnrollRequest, actor Actor) (dto.EnrollmentResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/sao-registrar-api/internal/service/enrollment")
	ctx, span := tracer.Start(ctx, "enrollments.create")
	defer span.End()

	payload.StudentID = strings.TrimSpace(payload.StudentID)
	payload.FullName = strings.Join(strings.Fields(payload.FullName), " ")
	payload.CourseCode = strings.TrimSpace(payload.CourseCode)
	payload.ProgramName = strings.TrimSpace(payload.ProgramName)
	span.SetAttributes(
		attribute.String("enrollment.course", payload.CourseCode),
		attribute.String("enrollment.program", payload.ProgramName),
	)

	student := payload.StudentID
	if student == "" {
		student = payload.FullName
	}
	doc := auditlog.Document{
		Performer: actor.Performer(),
		Student:   student,
		Course:    payload.CourseCode,
		Details:   payload,
	}

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		s.audit.record(ctx, actionEnroll, doc, err)
		return dto.EnrollmentResponse{}, err
	}

	id, err := s.repo.Enroll(ctx, repository.EnrollParams{
		StudentID:   payload.StudentID,
		FullName:    payload.FullName,
		CourseCode:  payload.CourseCode,
		ProgramName: payload.ProgramName,
		Year:        payload.YearID,
		Semester:    payload.SemesterID,
		Performer:   actor.Performer(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "enroll_failed")
		s.audit.record(ctx, actionEnroll, doc, err)
		return dto.EnrollmentResponse{}, err
	}

	enrollment, err := s.repo.Get(ctx, id)
	if err != nil {
		err = enrollmentError(err)
		span.RecordError(err)
		s.audit.record(ctx, actionEnroll, doc, err)
		return dto.EnrollmentResponse{}, err
	}

	doc.Student = enrollment.StudentID
	s.audit.record(ctx, actionEnroll, doc, nil)
	s.invalidate(ctx, enrollment.StudentID)
	s.logger.Info().
		Uint("enrollment_id", enrollment.ID).
		Str("student_id", enrollment.StudentID).
		Str("course", payload.CourseCode).
		Msg("student enrolled")
	return dto.NewEnrollmentResponse(enrollment), nil
}

func (s *enrollmentService) Archive(ctx context.Context, id uint, actor Actor) (dto.EnrollmentResponse, error) {
	return s.setArchived(ctx, id, true, actor)
}

func (s *enrollmentService) Restore(ctx context.Context, id uint, actor Actor) (dto.EnrollmentResponse, error) {
	return s.setArchived(ctx, id, false, actor)
}

func (s *enrollmentService) setArchived(ctx context.Context, id uint, archived bool, actor Actor) (dto.EnrollmentResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/sao-registrar-api/internal/service/enrollment")
	ctx, span := tracer.Start(ctx, "enrollments.set_archived")
	span.SetAttributes(attribute.Int64("enrollment.id", int64(id)), attribute.Bool("enrollment.archived", archived))
	defer span.End()

	action := actionRestoreEnrollment
	if archived {
		action = actionArchiveEnrollment
	}
	doc := auditlog.Document{Performer: actor.Performer(), Details: map[string]any{"enrollmentId": id}}

	enrollment, err := s.repo.SetArchived(ctx, id, archived, actor.Performer())
	if err != nil {
		err = enrollmentError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "set_archived_failed")
		s.audit.record(ctx, action, doc, err)
		return dto.EnrollmentResponse{}, err
	}

	doc.Student = enrollment.StudentID
	doc.Course = enrollment.Curriculum.Course.Code
	s.audit.record(ctx, action, doc, nil)
	s.invalidate(ctx, enrollment.StudentID)
	return dto.NewEnrollmentResponse(enrollment), nil
}

func (s *enrollmentService) invalidate(ctx context.Context, studentID string) {
	if s.reports != nil {
		s.reports.Invalidate(ctx, studentID)
	}
}

func enrollmentError(err error) error {
	var dbErr *repository.DBError
	if errors.As(err, &dbErr) && dbErr.Message != "" {
		return err
	}
	if errors.Is(err, repository.ErrNotFound) {
		return ErrEnrollmentNotFound
	}
	return err
}
