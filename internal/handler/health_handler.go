package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sao-registrar-api/internal/config"
	"github.com/noah-isme/sao-registrar-api/internal/utils"
)

// QueueDepth reports how many audit documents wait to be written.
type QueueDepth interface {
	Len() int
}

type healthPayload struct {
	Status      string    `json:"status"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
	Procedures  bool      `json:"storedProcedures"`
	AuditQueue  int       `json:"auditQueue"`
	CheckedAt   time.Time `json:"timestamp"`
}

// HealthCheck answers the liveness probe. The status turns "degraded" once
// the audit queue is at least three quarters full; queue may be nil.
func HealthCheck(cfg config.Config, queue QueueDepth) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body := healthPayload{
			Status:      "ok",
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Procedures:  cfg.StoredProcedures,
			CheckedAt:   time.Now().UTC(),
		}
		if queue != nil {
			body.AuditQueue = queue.Len()
			if cfg.AuditQueueSize > 0 && body.AuditQueue*4 >= cfg.AuditQueueSize*3 {
				body.Status = "degraded"
			}
		}
		return utils.SendSuccess(c, "service healthy", body)
	}
}
