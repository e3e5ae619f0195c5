package auditclient

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sao-registrar-api/pkg/audit"
)

func TestDescribeClick(t *testing.T) {
	cases := []struct {
		name string
		el   Element
		want string
	}{
		{"button text", Element{Tag: "BUTTON", Text: "  Save\n changes "}, `Clicked "Save changes" on /students`},
		{"aria label wins", Element{Tag: "button", AriaLabel: "Archive", Text: "x"}, `Clicked "Archive" on /students`},
		{"checkbox", Element{Tag: "input", Type: "checkbox", Name: "archived"}, `Toggled checkbox "archived" on /students`},
		{"select", Element{Tag: "select", Name: "semester"}, `Opened dropdown "semester" on /students`},
		{"text input", Element{Tag: "input", Type: "text", Placeholder: "Search"}, `Focused input "Search" on /students`},
		{"submit input", Element{Tag: "input", Type: "submit", Value: "Enroll"}, `Clicked "Enroll" on /students`},
		{"label for input", Element{Tag: "input", Type: "text", ID: "first-name", ForLabel: "First Name"}, `Focused input "First Name" on /students`},
		{"id fallback", Element{Tag: "a", ID: "nav-home"}, `Clicked "nav-home" on /students`},
		{"lucide icon", Element{Tag: "button", HasIcon: true, IconClass: "lucide lucide-trash-2 h-4"}, `Clicked "trash-2 icon" on /students`},
		{"plain icon", Element{Tag: "button", HasIcon: true, IconClass: "fa fa-x"}, `Clicked "Icon Button" on /students`},
		{"bare tag", Element{Tag: "summary"}, `Clicked "<summary>" on /students`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, DescribeClick(tc.el, "/students"))
		})
	}
}

func TestDescribeClickTruncatesLabel(t *testing.T) {
	details := DescribeClick(Element{Tag: "button", Text: strings.Repeat("a", 80)}, "/")
	require.Equal(t, `Clicked "`+strings.Repeat("a", 60)+`" on /`, details)
}

func TestRecordClickDefaultsToGuest(t *testing.T) {
	store := NewMemoryStore()
	writer := NewWriter(store, nil, zerolog.Nop())

	entry := writer.RecordClick(Element{Tag: "button", Text: "Login"}, "/login", "")
	require.Equal(t, "Guest", entry.User)
	require.Equal(t, audit.CategoryClick, entry.Category)
	require.Equal(t, "UI Interaction", entry.Action)
}
