// Package audit holds the log vocabulary shared by the registrar API and its
// clients: categories, outcome statuses, the client entry shape and the single
// category-to-collection table.
package audit

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Category labels the timeline an audit entry belongs to.
type Category string

// Client-side categories.
const (
	CategoryAPI     Category = "API"
	CategoryCRUD    Category = "CRUD"
	CategoryAuth    Category = "Auth"
	CategorySession Category = "Session"
	CategoryError   Category = "Error"
	CategoryClick   Category = "Click"
)

// Server-side categories.
const (
	CategorySessionAuth Category = "SessionAuth"
	CategoryEnrollment  Category = "enrollment"
	CategoryGrade       Category = "grade"
	CategorySystem      Category = "system"
	CategoryGeneral     Category = "general"
)

// GeneralCollection receives every category without a dedicated destination.
const GeneralCollection = "general_logs"

var collections = map[Category]string{
	CategorySessionAuth: "session_logs",
	CategoryClick:       "click_logs",
	CategoryCRUD:        "crud_logs",
	CategoryAPI:         "api_logs",
	CategoryError:       "error_logs",
	CategoryEnrollment:  "enrollment_logs",
	CategoryGrade:       "grade_logs",
	CategorySystem:      "system_logs",
}

// ParseCategory converts free text into a category. Blank input maps to the
// general category; anything else is kept verbatim so routing stays total.
func ParseCategory(value string) Category {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return CategoryGeneral
	}
	return Category(trimmed)
}

// Canonical folds login/logout and session-duration events into one timeline.
func (c Category) Canonical() Category {
	switch c {
	case CategoryAuth, CategorySession:
		return CategorySessionAuth
	default:
		return c
	}
}

// Collection returns the physical destination for the category.
func (c Category) Collection() string {
	if name, ok := collections[c.Canonical()]; ok {
		return name
	}
	return GeneralCollection
}

// Known reports whether the category has a dedicated destination.
func (c Category) Known() bool {
	_, ok := collections[c.Canonical()]
	return ok || c == CategoryGeneral
}

func (c Category) String() string {
	return string(c)
}

// Collections lists every destination including the general fallback, sorted.
func Collections() []string {
	names := make([]string, 0, len(collections)+1)
	for _, name := range collections {
		names = append(names, name)
	}
	names = append(names, GeneralCollection)
	sort.Strings(names)
	return names
}

// Status is the outcome recorded on an entry.
type Status string

// Client outcomes.
const (
	StatusSuccess Status = "Success"
	StatusFailed  Status = "Failed"
	StatusError   Status = "Error"
)

// Server outcomes written by the API's own controllers.
const (
	OutcomeSuccess Status = "SUCCESS"
	OutcomeFailure Status = "FAILURE"
)

// Valid reports whether s is one of the recognised outcomes.
func (s Status) Valid() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusError, OutcomeSuccess, OutcomeFailure:
		return true
	}
	return false
}

// Entry is the client-side audit record. It is immutable once written.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	User      string    `json:"user"`
	Action    string    `json:"action"`
	Status    Status    `json:"status"`
	Details   string    `json:"details"`
	Category  Category  `json:"category"`
}

// SessionDuration renders a session length the way session-end and logout
// entries report it, e.g. "Duration: 12m 5s".
func SessionDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("Duration: %dm %ds", total/60, total%60)
}
