package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sao-registrar-api/internal/dto"
	"github.com/noah-isme/sao-registrar-api/internal/utils"
	"github.com/noah-isme/sao-registrar-api/pkg/audit"
)

func TestAuditServiceCreateRoutesByCategory(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAuditService(env.router, utils.NewValidator(), testLogger())
	ctx := context.Background()
	clientTime := time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC)

	receipt, err := svc.Create(ctx, dto.LogCreateRequest{
		ID:        "1706776200000-abc123",
		Timestamp: &clientTime,
		User:      "browser@sao.edu",
		Action:    "UI Interaction",
		Status:    "Success",
		Details:   "<b>Clicked</b> Save on /students",
		Category:  "Click",
	}, Actor{})
	require.NoError(t, err)
	require.Equal(t, "click_logs", receipt.Collection)
	require.Equal(t, "1706776200000-abc123", receipt.ClientID)
	require.NotEmpty(t, receipt.ID)

	docs := env.logs(t, audit.CategoryClick)
	require.Len(t, docs, 1)
	require.Equal(t, "Clicked Save on /students", docs[0].Details)
	require.Equal(t, "browser@sao.edu", docs[0].Performer)
	require.Equal(t, audit.StatusSuccess, docs[0].Status)
	require.NotNil(t, docs[0].ClientTimestamp)
	require.True(t, clientTime.Equal(*docs[0].ClientTimestamp))
}

func TestAuditServiceCreatePrefersAuthenticatedPerformer(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAuditService(env.router, utils.NewValidator(), testLogger())

	receipt, err := svc.Create(context.Background(), dto.LogCreateRequest{
		User:     "spoofed@sao.edu",
		Action:   "Login",
		Category: "Auth",
	}, registrar)
	require.NoError(t, err)
	require.Equal(t, "SessionAuth", receipt.Category)
	require.Equal(t, "session_logs", receipt.Collection)

	docs := env.logs(t, audit.CategorySession)
	require.Len(t, docs, 1)
	require.Equal(t, "admin@sao.edu", docs[0].Performer)
}

func TestAuditServiceCreateFallsBackToGeneral(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAuditService(env.router, utils.NewValidator(), testLogger())

	for _, category := range []string{"", "Telemetry"} {
		receipt, err := svc.Create(context.Background(), dto.LogCreateRequest{Action: "Something", Category: category}, Actor{})
		require.NoError(t, err)
		require.Equal(t, audit.GeneralCollection, receipt.Collection)
	}

	list, err := svc.List(context.Background(), "general")
	require.NoError(t, err)
	require.Equal(t, 2, list.Count)
	for _, doc := range list.Logs {
		require.Equal(t, UnknownPerformer, doc.Performer)
	}
}

func TestAuditServiceCreateValidates(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAuditService(env.router, utils.NewValidator(), testLogger())

	_, err := svc.Create(context.Background(), dto.LogCreateRequest{Action: "<script></script>"}, Actor{})
	require.Error(t, err)

	_, err = svc.Create(context.Background(), dto.LogCreateRequest{Action: "Save", Status: "Maybe"}, Actor{})
	require.Error(t, err)
}

func TestAuditServiceListUnknownCategory(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAuditService(env.router, utils.NewValidator(), testLogger())

	_, err := svc.List(context.Background(), "Telemetry")
	require.ErrorIs(t, err, ErrUnknownCategory)

	_, err = svc.List(context.Background(), " ")
	require.ErrorIs(t, err, ErrUnknownCategory)

	empty, err := svc.List(context.Background(), "grade")
	require.NoError(t, err)
	require.Equal(t, "grade_logs", empty.Collection)
	require.NotNil(t, empty.Logs)
	require.Zero(t, empty.Count)
}
