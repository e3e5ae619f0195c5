package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/sao-registrar-api/internal/auditlog"
	"github.com/noah-isme/sao-registrar-api/internal/dto"
	"github.com/noah-isme/sao-registrar-api/internal/observability"
	"github.com/noah-isme/sao-registrar-api/internal/repository"
	"github.com/noah-isme/sao-registrar-api/pkg/audit"
)

const (
	reportKeyPrefix  = "reports:"
	deansListKey     = reportKeyPrefix + "deans-list"
	defaultReportTTL = 2 * time.Minute
)

// ReportService serves transcripts, GWA and the dean's list.
type ReportService interface {
	Transcript(ctx context.Context, studentID string, actor Actor) (dto.TranscriptResponse, error)
	GWA(ctx context.Context, studentID string, actor Actor) (dto.GWAResponse, error)
	DeansList(ctx context.Context, actor Actor) (dto.DeansListResponse, error)
	Invalidate(ctx context.Context, studentID string)
}

type reportService struct {
	repo     repository.ReportRepository
	students repository.StudentRepository
	cache    *redis.Client
	cacheTTL time.Duration
	audit    trail
	tracer   trace.Tracer
	logger   zerolog.Logger
}

// NewReportService constructs the report service. cache may be nil.
func NewReportService(repo repository.ReportRepository, students repository.StudentRepository, cache *redis.Client, ttl time.Duration, recorder AuditRecorder, logger zerolog.Logger) ReportService {
	if ttl <= 0 {
		ttl = defaultReportTTL
	}
	return &reportService{
		repo:     repo,
		students: students,
		cache:    cache,
		cacheTTL: ttl,
		audit:    trail{recorder: recorder, category: audit.CategorySystem},
		tracer:   otel.Tracer("github.com/noah-isme/sao-registrar-api/internal/service/report"),
		logger:   logger.With().Str("component", "report_service").Logger(),
	}
}

func transcriptKey(studentID string) string {
	return reportKeyPrefix + "transcript:" + studentID
}

func gwaKey(studentID string) string {
	return reportKeyPrefix + "gwa:" + studentID
}

func (s *reportService) Transcript(ctx context.Context, studentID string, actor Actor) (dto.TranscriptResponse, error) {
	studentID = strings.TrimSpace(studentID)
	ctx, span := s.tracer.Start(ctx, "reports.transcript", trace.WithAttributes(attribute.String("report.student_id", studentID)))
	defer span.End()

	doc := auditlog.Document{Performer: actor.Performer(), Student: studentID}

	var response dto.TranscriptResponse
	if s.readCache(ctx, "transcript", transcriptKey(studentID), &response) {
		s.audit.record(ctx, actionViewTranscript, doc, nil)
		return response, nil
	}

	if err := s.ensureStudent(ctx, studentID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "student_lookup_failed")
		s.audit.record(ctx, actionViewTranscript, doc, err)
		return dto.TranscriptResponse{}, err
	}

	rows, err := s.repo.Transcript(ctx, studentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transcript_failed")
		s.audit.record(ctx, actionViewTranscript, doc, err)
		return dto.TranscriptResponse{}, err
	}

	response = dto.TranscriptResponse{StudentID: studentID, Rows: rows}
	s.writeCache(ctx, transcriptKey(studentID), response)
	s.audit.record(ctx, actionViewTranscript, doc, nil)
	return response, nil
}

func (s *reportService) GWA(ctx context.Context, studentID string, actor Actor) (dto.GWAResponse, error) {
	studentID = strings.TrimSpace(studentID)
	ctx, span := s.tracer.Start(ctx, "reports.gwa", trace.WithAttributes(attribute.String("report.student_id", studentID)))
	defer span.End()

	doc := auditlog.Document{Performer: actor.Performer(), Student: studentID}

	var response dto.GWAResponse
	if s.readCache(ctx, "gwa", gwaKey(studentID), &response) {
		s.audit.record(ctx, actionCheckGWA, doc, nil)
		return response, nil
	}

	if err := s.ensureStudent(ctx, studentID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "student_lookup_failed")
		s.audit.record(ctx, actionCheckGWA, doc, err)
		return dto.GWAResponse{}, err
	}

	gwa, err := s.repo.GWA(ctx, studentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gwa_failed")
		s.audit.record(ctx, actionCheckGWA, doc, err)
		return dto.GWAResponse{}, err
	}

	response = dto.GWAResponse{StudentID: studentID, GWA: fmt.Sprintf("%.2f", gwa)}
	doc.Details = map[string]any{"gwa": response.GWA}
	s.writeCache(ctx, gwaKey(studentID), response)
	s.audit.record(ctx, actionCheckGWA, doc, nil)
	return response, nil
}

func (s *reportService) DeansList(ctx context.Context, actor Actor) (dto.DeansListResponse, error) {
	ctx, span := s.tracer.Start(ctx, "reports.deans_list")
	defer span.End()

	doc := auditlog.Document{Performer: actor.Performer()}

	var response dto.DeansListResponse
	if s.readCache(ctx, "deans_list", deansListKey, &response) {
		s.audit.record(ctx, actionViewDeansList, doc, nil)
		return response, nil
	}

	rows, err := s.repo.DeansList(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "deans_list_failed")
		s.audit.record(ctx, actionViewDeansList, doc, err)
		return dto.DeansListResponse{}, err
	}

	response = dto.DeansListResponse{Count: len(rows), Students: rows}
	doc.Details = map[string]any{"count": response.Count}
	s.writeCache(ctx, deansListKey, response)
	s.audit.record(ctx, actionViewDeansList, doc, nil)
	return response, nil
}

// Invalidate drops the student's cached reports and the dean's list.
func (s *reportService) Invalidate(ctx context.Context, studentID string) {
	if s.cache == nil {
		return
	}

	keys := []string{deansListKey}
	if studentID = strings.TrimSpace(studentID); studentID != "" {
		keys = append(keys, transcriptKey(studentID), gwaKey(studentID))
	}
	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn().Err(err).Str("student_id", studentID).Msg("failed to invalidate report cache")
	}
}

func (s *reportService) ensureStudent(ctx context.Context, studentID string) error {
	if studentID == "" {
		return ErrStudentNotFound
	}
	if _, err := s.students.Get(ctx, studentID); err != nil {
		return studentError(err)
	}
	return nil
}

func (s *reportService) readCache(ctx context.Context, report, key string, target any) bool {
	if s.cache == nil {
		return false
	}

	cached, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to read report cache")
		}
		observability.ReportCacheLookups().WithLabelValues(report, "miss").Inc()
		return false
	}

	if err := json.Unmarshal([]byte(cached), target); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("discarding malformed report cache entry")
		observability.ReportCacheLookups().WithLabelValues(report, "miss").Inc()
		return false
	}

	observability.ReportCacheLookups().WithLabelValues(report, "hit").Inc()
	return true
}

func (s *reportService) writeCache(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to encode report cache entry")
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to write report cache")
	}
}
