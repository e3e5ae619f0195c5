package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/sao-registrar-api/internal/auditlog"
	"github.com/noah-isme/sao-registrar-api/internal/auth"
	"github.com/noah-isme/sao-registrar-api/internal/config"
	"github.com/noah-isme/sao-registrar-api/internal/handler"
	"github.com/noah-isme/sao-registrar-api/internal/middleware"
	"github.com/noah-isme/sao-registrar-api/internal/models"
	"github.com/noah-isme/sao-registrar-api/internal/repository"
	"github.com/noah-isme/sao-registrar-api/internal/router"
	"github.com/noah-isme/sao-registrar-api/internal/service"
	"github.com/noah-isme/sao-registrar-api/internal/utils"
)

const (
	adminEmail    = "admin@sao.edu"
	adminPassword = "sup3r-secret"
)

type testApp struct {
	app          *fiber.App
	hub          *auditlog.Hub
	adminToken   string
	facultyToken string
}

func newTestApp(t *testing.T, configure ...func(*handler.Gates)) testApp {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.Nop()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(ctx, db, repository.Options{}))

	store := auditlog.NewGormStore(db)
	require.NoError(t, store.Migrate(ctx))
	hub := auditlog.NewHub()
	fanout := auditlog.NewFanout(store, logger, hub)
	auditRouter := auditlog.NewRouter(fanout, fanout, logger)

	validate := utils.NewValidator()
	issuer := auth.NewIssuer("handler-secret", time.Hour)
	opts := repository.Options{}

	studentRepo := repository.NewStudentRepository(db, opts)
	enrollmentRepo := repository.NewEnrollmentRepository(db, opts)
	reports := service.NewReportService(repository.NewReportRepository(db, opts), studentRepo, nil, time.Minute, auditRouter, logger)
	authService := service.NewAuthService(repository.NewUserRepository(db), issuer, validate, auditRouter, logger)
	require.NoError(t, authService.SeedAdmin(ctx, "Admin User", adminEmail, adminPassword))

	gates := handler.Gates{
		Authenticated: middleware.Protect(issuer),
		Staff:         middleware.Protect(issuer, models.RoleRegistrar, models.RoleFaculty),
		Registrar:     middleware.Protect(issuer, models.RoleRegistrar),
		Optional:      middleware.OptionalAuth(issuer),
	}
	for _, fn := range configure {
		fn(&gates)
	}

	app := fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler(logger)})
	router.Register(app, config.Config{AppName: "SAO Registrar API", AppEnv: "test"}, router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, logger),
		StudentHandler:    handler.NewStudentHandler(service.NewStudentService(studentRepo, reports, validate, auditRouter, logger), reports, logger),
		EnrollmentHandler: handler.NewEnrollmentHandler(service.NewEnrollmentService(enrollmentRepo, reports, validate, auditRouter, logger), logger),
		GradeHandler:      handler.NewGradeHandler(service.NewGradeService(enrollmentRepo, reports, validate, auditRouter, logger), logger),
		CatalogHandler:    handler.NewCatalogHandler(service.NewCatalogService(repository.NewCatalogRepository(db, opts), validate, auditRouter, logger), logger),
		ReportHandler:     handler.NewReportHandler(reports, logger),
		LogHandler:        handler.NewLogHandler(service.NewAuditService(auditRouter, validate, logger), hub, logger),
		Gates:             gates,
	})

	return testApp{
		app:          app,
		hub:          hub,
		adminToken:   sign(t, issuer, 1, adminEmail, models.AdminPermissions),
		facultyToken: sign(t, issuer, 2, "faculty@sao.edu", models.UserPermissions),
	}
}

func sign(t *testing.T, issuer *auth.Issuer, id uint, email string, perms models.Permissions) string {
	t.Helper()
	token, _, err := issuer.Sign(models.User{ID: id, Name: email, Email: email, Permissions: datatypes.NewJSONType(perms)})
	require.NoError(t, err)
	return token
}

type result struct {
	status int
	body   []byte
	env    utils.APIResponse
}

func (a testApp) do(t *testing.T, method, path, token string, payload any) result {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := result{status: resp.StatusCode, body: raw}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out.env), string(raw))
	}
	return out
}

func (r result) data(t *testing.T, target any) {
	t.Helper()
	raw, err := json.Marshal(r.env.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, target))
}

func requireSchema(t *testing.T, name string, body []byte) {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("testdata", name))
	require.NoError(t, err)

	schema, err := jsonschema.NewCompiler().Compile("file://" + filepath.ToSlash(path))
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload), string(body))
}

func (a testApp) seedCatalog(t *testing.T, codes ...string) {
	t.Helper()
	res := a.do(t, http.MethodPost, "/api/v1/admin/programs", a.adminToken, map[string]any{"name": "BSCS"})
	require.Equal(t, http.StatusCreated, res.status, string(res.body))
	for _, code := range codes {
		res = a.do(t, http.MethodPost, "/api/v1/admin/courses", a.adminToken, map[string]any{"name": "Course " + code, "code": code, "units": 3})
		require.Equal(t, http.StatusCreated, res.status, string(res.body))
		res = a.do(t, http.MethodPost, "/api/v1/admin/curriculum", a.adminToken, map[string]any{"programName": "BSCS", "year": 1, "semester": 1, "courseCode": code})
		require.Equal(t, http.StatusCreated, res.status, string(res.body))
	}
}

func (a testApp) seedStudent(t *testing.T, id, first, last string) {
	t.Helper()
	res := a.do(t, http.MethodPost, "/api/v1/students", a.adminToken, map[string]any{
		"idNumber":  id,
		"firstName": first,
		"lastName":  last,
		"section":   "CS-1A",
	})
	require.Equal(t, http.StatusCreated, res.status, string(res.body))
}
