package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sao-registrar-api/internal/utils"
)

// RequireRole lets a request through only when the role in its token is one
// of roles. It expects Protect to have attached the claims; without them the
// request is unauthenticated rather than forbidden.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		if role = normalizeRole(role); role != "" {
			allowed[role] = true
		}
	}

	return func(c *fiber.Ctx) error {
		role, ok := requestRole(c)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, errMissingToken.Error())
		}
		if !allowed[role] {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

func requestRole(c *fiber.Ctx) (string, bool) {
	if claims := ClaimsFromCtx(c); claims != nil {
		return normalizeRole(claims.Role), true
	}
	if role, ok := c.Locals("user_role").(string); ok {
		return normalizeRole(role), true
	}
	return "", false
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
