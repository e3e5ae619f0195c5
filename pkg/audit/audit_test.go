package audit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sao-registrar-api/pkg/audit"
)

func TestCategoryCollectionRouting(t *testing.T) {
	cases := map[audit.Category]string{
		audit.CategorySessionAuth: "session_logs",
		audit.CategoryAuth:        "session_logs",
		audit.CategorySession:     "session_logs",
		audit.CategoryClick:       "click_logs",
		audit.CategoryCRUD:        "crud_logs",
		audit.CategoryAPI:         "api_logs",
		audit.CategoryError:       "error_logs",
		audit.CategoryEnrollment:  "enrollment_logs",
		audit.CategoryGrade:       "grade_logs",
		audit.CategorySystem:      "system_logs",
		audit.CategoryGeneral:     "general_logs",
		audit.Category("System"):  "general_logs",
		audit.Category("billing"): "general_logs",
	}

	for category, want := range cases {
		require.Equal(t, want, category.Collection(), "category %q", category)
	}
}

func TestParseCategory(t *testing.T) {
	require.Equal(t, audit.CategoryGeneral, audit.ParseCategory("  "))
	require.Equal(t, audit.CategoryClick, audit.ParseCategory(" Click "))
	require.Equal(t, audit.Category("whatever"), audit.ParseCategory("whatever"))
}

func TestCategoryKnown(t *testing.T) {
	require.True(t, audit.CategoryAuth.Known())
	require.True(t, audit.CategoryGrade.Known())
	require.True(t, audit.CategoryGeneral.Known())
	require.False(t, audit.Category("grades").Known())
}

func TestCollectionsIncludesFallback(t *testing.T) {
	names := audit.Collections()
	require.Len(t, names, 9)
	require.Contains(t, names, audit.GeneralCollection)
	require.Contains(t, names, "session_logs")
}

func TestStatusValid(t *testing.T) {
	require.True(t, audit.OutcomeSuccess.Valid())
	require.True(t, audit.StatusError.Valid())
	require.False(t, audit.Status("ok").Valid())
}

func TestSessionDuration(t *testing.T) {
	require.Equal(t, "Duration: 12m 5s", audit.SessionDuration(12*time.Minute+5*time.Second+300*time.Millisecond))
	require.Equal(t, "Duration: 0m 0s", audit.SessionDuration(-time.Second))
	require.Equal(t, "Duration: 61m 0s", audit.SessionDuration(61*time.Minute))
}
