package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sao-registrar-api/internal/utils"
)

// Gates are the auth middlewares handlers attach per route. A nil
// Authenticated, Staff or Registrar gate rejects every request with 401; a
// nil Optional or Ingest gate is skipped.
type Gates struct {
	// Authenticated admits any verified token.
	Authenticated fiber.Handler
	// Staff admits registrar and faculty tokens.
	Staff fiber.Handler
	// Registrar admits registrar tokens only.
	Registrar fiber.Handler
	// Optional attaches claims when a valid token is present.
	Optional fiber.Handler
	// Ingest throttles client log submissions.
	Ingest fiber.Handler
}

func pass(c *fiber.Ctx) error {
	return c.Next()
}

func deny(c *fiber.Ctx) error {
	return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
}

func gateOr(h, fallback fiber.Handler) fiber.Handler {
	if h == nil {
		return fallback
	}
	return h
}

func (g Gates) authenticated() fiber.Handler { return gateOr(g.Authenticated, deny) }
func (g Gates) staff() fiber.Handler         { return gateOr(g.Staff, deny) }
func (g Gates) registrar() fiber.Handler     { return gateOr(g.Registrar, deny) }
func (g Gates) optional() fiber.Handler      { return gateOr(g.Optional, pass) }
func (g Gates) ingest() fiber.Handler        { return gateOr(g.Ingest, pass) }
