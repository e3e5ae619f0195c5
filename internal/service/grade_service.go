package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/sao-registrar-api/internal/auditlog"
	"github.com/noah-isme/sao-registrar-api/internal/dto"
	"github.com/noah-isme/sao-registrar-api/internal/grading"
	"github.com/noah-isme/sao-registrar-api/internal/repository"
	"github.com/noah-isme/sao-registrar-api/pkg/audit"
)

// GradeService records grades on enrollments.
type GradeService interface {
	Update(ctx context.Context, payload dto.GradeUpdateRequest, actor Actor) (dto.EnrollmentResponse, error)
}

type gradeService struct {
	repo      repository.EnrollmentRepository
	reports   ReportInvalidator
	validator *validator.Validate
	audit     trail
	logger    zerolog.Logger
}

// NewGradeService constructs the grade service. reports may be nil.
func NewGradeService(repo repository.EnrollmentRepository, reports ReportInvalidator, validator *validator.Validate, recorder AuditRecorder, logger zerolog.Logger) GradeService {
	return &gradeService{
		repo:      repo,
		reports:   reports,
		validator: validator,
		audit:     trail{recorder: recorder, category: audit.CategoryGrade},
		logger:    logger.With().Str("component", "grade_service").Logger(),
	}
}

func (s *gradeService) Update(ctx context.Context, payload dto.GradeUpdateRequest, actor Actor) (dto.EnrollmentResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/sao-registrar-api/internal/service/grade")
	ctx, span := tracer.Start(ctx, "grades.update")
	defer span.End()

	payload.FullName = strings.Join(strings.Fields(payload.FullName), " ")
	payload.CourseCode = strings.TrimSpace(payload.CourseCode)
	payload.RawGrade = strings.TrimSpace(payload.RawGrade)
	span.SetAttributes(
		attribute.Int64("grade.enrollment_id", int64(payload.EnrollmentID)),
		attribute.String("grade.course", payload.CourseCode),
	)

	doc := auditlog.Document{
		Performer: actor.Performer(),
		Student:   payload.FullName,
		Course:    payload.CourseCode,
		Grade:     grading.Normalize(payload.RawGrade),
		Details:   payload,
	}

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		s.audit.record(ctx, actionUpdateGrade, doc, err)
		return dto.EnrollmentResponse{}, err
	}

	mark, err := grading.NewMark(payload.RawGrade)
	if err != nil {
		err = &ValidationError{Message: err.Error()}
		span.SetStatus(codes.Error, "invalid_grade")
		s.audit.record(ctx, actionUpdateGrade, doc, err)
		return dto.EnrollmentResponse{}, err
	}

	enrollment, err := s.repo.UpdateGrade(ctx, repository.GradeParams{
		EnrollmentID: payload.EnrollmentID,
		FullName:     payload.FullName,
		CourseCode:   payload.CourseCode,
		Mark:         mark,
		Performer:    actor.Performer(),
	})
	if err != nil {
		err = enrollmentError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "update_failed")
		s.audit.record(ctx, actionUpdateGrade, doc, err)
		return dto.EnrollmentResponse{}, err
	}

	doc.Student = enrollment.StudentID
	doc.Course = enrollment.Curriculum.Course.Code
	s.audit.record(ctx, actionUpdateGrade, doc, nil)
	if s.reports != nil {
		s.reports.Invalidate(ctx, enrollment.StudentID)
	}

	response := dto.NewEnrollmentResponse(enrollment)
	s.logger.Info().
		Uint("enrollment_id", enrollment.ID).
		Str("grade", response.Grade).
		Str("status", string(response.Status)).
		Msg("grade updated")
	return response, nil
}
