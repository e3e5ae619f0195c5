package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"

	"github.com/noah-isme/sao-registrar-api/internal/auditlog"
	"github.com/noah-isme/sao-registrar-api/internal/dto"
	"github.com/noah-isme/sao-registrar-api/internal/models"
	"github.com/noah-isme/sao-registrar-api/internal/repository"
	"github.com/noah-isme/sao-registrar-api/pkg/audit"
)

// TokenSigner issues bearer tokens for accounts.
type TokenSigner interface {
	Sign(user models.User) (string, time.Time, error)
}

// AuthService signs accounts in and out and provisions new ones.
type AuthService interface {
	Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error)
	Register(ctx context.Context, payload dto.RegisterRequest, actor Actor) (dto.UserResponse, error)
	Logout(ctx context.Context, payload dto.LogoutRequest, actor Actor) error
	SeedAdmin(ctx context.Context, name, email, password string) error
}

type authService struct {
	users     repository.UserRepository
	signer    TokenSigner
	validator *validator.Validate
	session   trail
	failures  trail
	accounts  trail
	hashCost  int
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService constructs the auth service.
func NewAuthService(users repository.UserRepository, signer TokenSigner, validator *validator.Validate, recorder AuditRecorder, logger zerolog.Logger) AuthService {
	return &authService{
		users:     users,
		signer:    signer,
		validator: validator,
		session:   trail{recorder: recorder, category: audit.CategorySessionAuth},
		failures:  trail{recorder: recorder, category: audit.CategoryError},
		accounts:  trail{recorder: recorder, category: audit.CategoryCRUD},
		hashCost:  bcrypt.DefaultCost,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		now:       time.Now,
	}
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error) {
	ctx, span := otel.Tracer("github.com/noah-isme/sao-registrar-api/internal/service/auth").Start(ctx, "auth.login")
	defer span.End()

	payload.Email = strings.ToLower(strings.TrimSpace(payload.Email))
	doc := auditlog.Document{Performer: payload.Email}
	if doc.Performer == "" {
		doc.Performer = UnknownPerformer
	}

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		s.failures.record(ctx, actionLogin, doc, err)
		return dto.LoginResponse{}, err
	}

	user, err := s.users.FindByEmail(ctx, payload.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			span.RecordError(err)
			return dto.LoginResponse{}, err
		}
		s.logger.Warn().Str("email", payload.Email).Msg("login for unknown account")
		s.failures.record(ctx, actionLogin, doc, ErrInvalidCredentials)
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		s.logger.Warn().Str("email", payload.Email).Msg("login with wrong password")
		s.failures.record(ctx, actionLogin, doc, ErrInvalidCredentials)
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.signer.Sign(user)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sign_failed")
		s.failures.record(ctx, actionLogin, doc, err)
		return dto.LoginResponse{}, err
	}

	doc.Details = map[string]any{"role": user.DisplayRole()}
	s.session.record(ctx, actionLogin, doc, nil)
	s.logger.Info().Uint("user_id", user.ID).Msg("user signed in")

	return dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      dto.NewUserResponse(user),
	}, nil
}

func (s *authService) Register(ctx context.Context, payload dto.RegisterRequest, actor Actor) (dto.UserResponse, error) {
	ctx, span := otel.Tracer("github.com/noah-isme/sao-registrar-api/internal/service/auth").Start(ctx, "auth.register")
	defer span.End()

	payload.Name = strings.TrimSpace(payload.Name)
	payload.Email = strings.ToLower(strings.TrimSpace(payload.Email))
	doc := auditlog.Document{
		Performer: actor.Performer(),
		Details:   map[string]any{"name": payload.Name, "email": payload.Email},
	}

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		s.accounts.record(ctx, actionCreateUser, doc, err)
		return dto.UserResponse{}, err
	}

	user, err := s.createUser(ctx, payload.Name, payload.Email, payload.Password, payload.Permissions)
	if err != nil {
		span.RecordError(err)
		s.accounts.record(ctx, actionCreateUser, doc, err)
		return dto.UserResponse{}, err
	}

	s.accounts.record(ctx, actionCreateUser, doc, nil)
	return dto.NewUserResponse(user), nil
}

func (s *authService) Logout(ctx context.Context, payload dto.LogoutRequest, actor Actor) error {
	doc := auditlog.Document{Performer: actor.Performer()}
	if payload.SessionStart != nil && !payload.SessionStart.IsZero() {
		doc.Details = audit.SessionDuration(s.now().Sub(*payload.SessionStart))
	}
	s.session.record(ctx, actionLogout, doc, nil)
	return nil
}

// SeedAdmin creates the first registrar account when email is set and no
// account with that email exists yet.
func (s *authService) SeedAdmin(ctx context.Context, name, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}
	if password == "" {
		return fmt.Errorf("seed admin %s: password must be provided", email)
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	permissions := models.AdminPermissions
	if _, err := s.createUser(ctx, strings.TrimSpace(name), email, password, &permissions); err != nil {
		return fmt.Errorf("seed admin %s: %w", email, err)
	}
	s.logger.Info().Str("email", email).Msg("seeded admin account")
	return nil
}

func (s *authService) createUser(ctx context.Context, name, email, password string, permissions *models.Permissions) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	granted := models.UserPermissions
	if permissions != nil {
		granted = *permissions
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Permissions:  datatypes.NewJSONType(granted),
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return user, nil
}
