package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sao-registrar-api/internal/auditlog"
	"github.com/noah-isme/sao-registrar-api/internal/dto"
	"github.com/noah-isme/sao-registrar-api/pkg/audit"
)

// AuditRouter is the router surface the audit service needs.
type AuditRouter interface {
	AuditRecorder
	Find(ctx context.Context, category audit.Category) ([]auditlog.Document, error)
}

// LogReceipt acknowledges an accepted client entry.
type LogReceipt struct {
	ID         string `json:"id"`
	ClientID   string `json:"clientId,omitempty"`
	Category   string `json:"category"`
	Collection string `json:"collection"`
}

// AuditService ingests client-side entries and reads the server timelines.
type AuditService interface {
	Create(ctx context.Context, payload dto.LogCreateRequest, actor Actor) (LogReceipt, error)
	List(ctx context.Context, category string) (dto.LogListResponse, error)
}

type auditService struct {
	router    AuditRouter
	validator *validator.Validate
	policy    *bluemonday.Policy
	logger    zerolog.Logger
}

// NewAuditService constructs the audit service.
func NewAuditService(router AuditRouter, validator *validator.Validate, logger zerolog.Logger) AuditService {
	return &auditService{
		router:    router,
		validator: validator,
		policy:    bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "audit_service").Logger(),
	}
}

func (s *auditService) Create(ctx context.Context, payload dto.LogCreateRequest, actor Actor) (LogReceipt, error) {
	payload.Action = s.sanitize(payload.Action)
	payload.Details = s.sanitize(payload.Details)
	payload.User = s.sanitize(payload.User)
	payload.Status = strings.TrimSpace(payload.Status)

	if err := s.validator.Struct(payload); err != nil {
		return LogReceipt{}, err
	}

	performer := actor.Performer()
	if performer == UnknownPerformer && payload.User != "" {
		performer = payload.User
	}

	status := audit.Status(payload.Status)
	if status == "" {
		status = audit.StatusSuccess
	}

	category := audit.ParseCategory(payload.Category)
	doc := auditlog.Document{
		ID:              uuid.NewString(),
		Action:          payload.Action,
		Performer:       performer,
		Status:          status,
		ClientID:        strings.TrimSpace(payload.ID),
		ClientTimestamp: payload.Timestamp,
	}
	if payload.Details != "" {
		doc.Details = payload.Details
	}

	s.router.LogAction(ctx, category, doc)

	return LogReceipt{
		ID:         doc.ID,
		ClientID:   doc.ClientID,
		Category:   category.Canonical().String(),
		Collection: category.Collection(),
	}, nil
}

func (s *auditService) List(ctx context.Context, category string) (dto.LogListResponse, error) {
	parsed := audit.ParseCategory(category)
	if strings.TrimSpace(category) == "" || !parsed.Known() {
		return dto.LogListResponse{}, ErrUnknownCategory
	}

	logs, err := s.router.Find(ctx, parsed)
	if err != nil {
		s.logger.Error().Err(err).Str("category", parsed.String()).Msg("failed to read audit logs")
		return dto.LogListResponse{}, err
	}
	if logs == nil {
		logs = []auditlog.Document{}
	}

	return dto.LogListResponse{
		Category:   parsed.Canonical().String(),
		Collection: parsed.Collection(),
		Count:      len(logs),
		Logs:       logs,
	}, nil
}

func (s *auditService) sanitize(value string) string {
	return strings.TrimSpace(s.policy.Sanitize(value))
}
