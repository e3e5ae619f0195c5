package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sao-registrar-api/internal/dto"
)

func TestRegistrarWorkflow(t *testing.T) {
	app := newTestApp(t)

	login := app.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": adminEmail, "password": adminPassword})
	require.Equal(t, http.StatusOK, login.status, string(login.body))
	var session dto.LoginResponse
	login.data(t, &session)
	require.NotEmpty(t, session.Token)
	token := session.Token

	app.seedCatalog(t, "CS101")

	created := app.do(t, http.MethodPost, "/api/v1/students", token, map[string]any{
		"idNumber":  "20240001",
		"firstName": "Ana",
		"lastName":  "Cruz",
		"section":   "CS-1A",
	})
	require.Equal(t, http.StatusCreated, created.status, string(created.body))
	requireSchema(t, "student.schema.json", created.body)

	enrolled := app.do(t, http.MethodPost, "/api/v1/students/enroll", token, map[string]any{
		"studentId":   "20240001",
		"courseCode":  "CS101",
		"programName": "BSCS",
		"yearId":      1,
		"semesterId":  1,
	})
	require.Equal(t, http.StatusCreated, enrolled.status, string(enrolled.body))
	requireSchema(t, "enrollment.schema.json", enrolled.body)
	var enrollment dto.EnrollmentResponse
	enrolled.data(t, &enrollment)
	require.Equal(t, "Active", string(enrollment.Status))

	graded := app.do(t, http.MethodPost, "/api/v1/grades", token, map[string]any{
		"fullname":   "Ana Cruz",
		"courseCode": "CS101",
		"rawGrade":   "92",
	})
	require.Equal(t, http.StatusOK, graded.status, string(graded.body))
	requireSchema(t, "enrollment.schema.json", graded.body)
	graded.data(t, &enrollment)
	require.Equal(t, "92", enrollment.Grade)
	require.Equal(t, "Passed", string(enrollment.Status))

	student := app.do(t, http.MethodGet, "/api/v1/students/20240001", token, nil)
	require.Equal(t, http.StatusOK, student.status)
	requireSchema(t, "student.schema.json", student.body)

	transcript := app.do(t, http.MethodGet, "/api/v1/students/20240001/transcript", token, nil)
	require.Equal(t, http.StatusOK, transcript.status)
	var lines dto.TranscriptResponse
	transcript.data(t, &lines)
	require.Len(t, lines.Rows, 1)
	require.Equal(t, "Passed", string(lines.Rows[0].Status))

	gwa := app.do(t, http.MethodGet, "/api/v1/reports/gwa/20240001", token, nil)
	require.Equal(t, http.StatusOK, gwa.status)
	var gwaResponse dto.GWAResponse
	gwa.data(t, &gwaResponse)
	require.Equal(t, "3.00", gwaResponse.GWA)

	logs := app.do(t, http.MethodGet, "/api/v1/logs/grade", token, nil)
	require.Equal(t, http.StatusOK, logs.status)
	requireSchema(t, "log_list.schema.json", logs.body)
	var docs []map[string]any
	logs.data(t, &docs)
	require.Len(t, docs, 1)
	require.Equal(t, "UPDATE_GRADE", docs[0]["action"])
	require.Equal(t, adminEmail, docs[0]["performer"])

	alias := app.do(t, http.MethodGet, "/api/v1/reports/logs/SessionAuth", token, nil)
	require.Equal(t, http.StatusOK, alias.status)
	requireSchema(t, "log_list.schema.json", alias.body)
}

func TestGradeHandlerRejectsInvalidGrade(t *testing.T) {
	app := newTestApp(t)
	app.seedCatalog(t, "CS101")
	app.seedStudent(t, "20240001", "Ana", "Cruz")

	res := app.do(t, http.MethodPost, "/api/v1/students/enroll", app.adminToken, map[string]any{
		"fullName": "Ana Cruz", "courseCode": "CS101", "programName": "BSCS", "yearId": 1, "semesterId": 1,
	})
	require.Equal(t, http.StatusCreated, res.status, string(res.body))
	var enrollment dto.EnrollmentResponse
	res.data(t, &enrollment)

	res = app.do(t, http.MethodPost, "/api/v1/grades", app.facultyToken, map[string]any{
		"enrollmentId": enrollment.ID,
		"rawGrade":     "105",
	})
	require.Equal(t, http.StatusBadRequest, res.status)
	requireSchema(t, "envelope_error.schema.json", res.body)
	require.Contains(t, res.env.Message, "invalid grade")
}

func TestStudentHandlerValidationDetails(t *testing.T) {
	app := newTestApp(t)

	res := app.do(t, http.MethodPost, "/api/v1/students", app.adminToken, map[string]any{
		"idNumber":  "123",
		"firstName": "Ana",
		"lastName":  "Cruz",
		"section":   "CS-1A",
	})
	require.Equal(t, http.StatusBadRequest, res.status)
	requireSchema(t, "envelope_error.schema.json", res.body)
	require.Equal(t, "validation failed", res.env.Message)

	details, ok := res.env.Details.([]any)
	require.True(t, ok)
	require.Len(t, details, 1)
	require.Equal(t, "idNumber", details[0].(map[string]any)["field"])
}

func TestStudentHandlerConflictAndNotFound(t *testing.T) {
	app := newTestApp(t)
	app.seedStudent(t, "20240001", "Ana", "Cruz")

	res := app.do(t, http.MethodPost, "/api/v1/students", app.adminToken, map[string]any{
		"idNumber": "20240001", "firstName": "Ana", "lastName": "Cruz", "section": "CS-1A",
	})
	require.Equal(t, http.StatusConflict, res.status)

	res = app.do(t, http.MethodGet, "/api/v1/students/20249999", app.adminToken, nil)
	require.Equal(t, http.StatusNotFound, res.status)
	requireSchema(t, "envelope_error.schema.json", res.body)
}

func TestStudentHandlerArchiveFlow(t *testing.T) {
	app := newTestApp(t)
	app.seedStudent(t, "20240001", "Ana", "Cruz")

	res := app.do(t, http.MethodPatch, "/api/v1/students/20240001/archive", app.adminToken, nil)
	require.Equal(t, http.StatusOK, res.status, string(res.body))

	res = app.do(t, http.MethodPatch, "/api/v1/students/20240001/archive", app.adminToken, nil)
	require.Equal(t, http.StatusBadRequest, res.status)
	require.Equal(t, "student is already archived", res.env.Message)

	res = app.do(t, http.MethodGet, "/api/v1/students?archived=true", app.facultyToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	var bin []dto.StudentResponse
	res.data(t, &bin)
	require.Len(t, bin, 1)

	res = app.do(t, http.MethodPatch, "/api/v1/students/20240001/restore", app.adminToken, nil)
	require.Equal(t, http.StatusOK, res.status)
}

func TestEnrollmentHandlerArchiveRestore(t *testing.T) {
	app := newTestApp(t)
	app.seedCatalog(t, "CS101")
	app.seedStudent(t, "20240001", "Ana", "Cruz")

	res := app.do(t, http.MethodPost, "/api/v1/students/enroll", app.adminToken, map[string]any{
		"studentId": "20240001", "courseCode": "CS101", "programName": "BSCS", "yearId": 1, "semesterId": 1,
	})
	require.Equal(t, http.StatusCreated, res.status, string(res.body))
	var enrollment dto.EnrollmentResponse
	res.data(t, &enrollment)

	res = app.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/students/enrollment/%d/archive", enrollment.ID), app.adminToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	res.data(t, &enrollment)
	require.True(t, enrollment.IsArchived)

	res = app.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/students/enrollment/%d/restore", enrollment.ID), app.adminToken, nil)
	require.Equal(t, http.StatusOK, res.status)

	res = app.do(t, http.MethodPatch, "/api/v1/students/enrollment/abc/archive", app.adminToken, nil)
	require.Equal(t, http.StatusBadRequest, res.status)

	res = app.do(t, http.MethodPatch, "/api/v1/students/enrollment/999/archive", app.adminToken, nil)
	require.Equal(t, http.StatusNotFound, res.status)
}

func TestDeansListHandlerMetaCount(t *testing.T) {
	app := newTestApp(t)

	res := app.do(t, http.MethodGet, "/api/v1/reports/deans-list", app.facultyToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	meta, ok := res.env.Meta.(map[string]any)
	require.True(t, ok)
	require.EqualValues(t, 0, meta["count"])
}
