package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sao-registrar-api/internal/middleware"
	"github.com/noah-isme/sao-registrar-api/internal/service"
)

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := strings.TrimSpace(c.Params(name))
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

// actorFromContext builds the acting identity from verified claims.
func actorFromContext(c *fiber.Ctx) service.Actor {
	claims := middleware.ClaimsFromCtx(c)
	if claims == nil {
		return service.Actor{}
	}
	return service.Actor{
		ID:    claims.ID,
		Email: claims.Performer(),
		Name:  claims.Name,
		Role:  claims.Role,
	}
}

func requestContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}
