package dto

import (
	"time"

	"github.com/noah-isme/sao-registrar-api/internal/auditlog"
)

// LogCreateRequest is a client-side audit entry forwarded to the server.
type LogCreateRequest struct {
	ID        string     `json:"id" validate:"max=64"`
	Timestamp *time.Time `json:"timestamp"`
	User      string     `json:"user" validate:"max=255"`
	Action    string     `json:"action" validate:"required,max=128"`
	Status    string     `json:"status" validate:"omitempty,oneof=Success Failed Error SUCCESS FAILURE"`
	Details   string     `json:"details" validate:"max=4000"`
	Category  string     `json:"category" validate:"max=32"`
}

// LogListResponse returns every document of one category.
type LogListResponse struct {
	Category   string              `json:"category"`
	Collection string              `json:"collection"`
	Count      int                 `json:"count"`
	Logs       []auditlog.Document `json:"logs"`
}
