package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/noah-isme/sao-registrar-api/internal/auth"
	"github.com/noah-isme/sao-registrar-api/internal/utils"
)

const claimsKey = "claims"

var errMissingToken = errors.New("authentication required")

// TokenParser verifies a bearer token.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// Protect rejects requests without a valid bearer token and, when roles are
// given, requests whose token role is not among them. A missing token is
// reported before any role check runs.
func Protect(parser TokenParser, roles ...string) fiber.Handler {
	requireRole := RequireRole(roles...)

	return func(c *fiber.Ctx) error {
		claims, err := authenticate(c, parser)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		}

		attachClaims(c, claims)
		if len(roles) == 0 {
			return c.Next()
		}
		return requireRole(c)
	}
}

// OptionalAuth attaches claims when a valid token is present and lets every
// request through.
func OptionalAuth(parser TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if claims, err := authenticate(c, parser); err == nil {
			attachClaims(c, claims)
		}
		return c.Next()
	}
}

// ClaimsFromCtx returns the claims attached by Protect or OptionalAuth.
func ClaimsFromCtx(c *fiber.Ctx) *auth.Claims {
	if c == nil {
		return nil
	}
	if claims, ok := c.Locals(claimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

func authenticate(c *fiber.Ctx, parser TokenParser) (*auth.Claims, error) {
	token := bearerToken(c)
	if token == "" {
		return nil, errMissingToken
	}
	return parser.Parse(token)
}

// bearerToken reads the Authorization header. Browsers cannot set headers on
// websocket upgrades, so those may pass the token as a query parameter.
func bearerToken(c *fiber.Ctx) string {
	authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	const bearer = "bearer "
	if len(authorization) > len(bearer) && strings.EqualFold(authorization[:len(bearer)], bearer) {
		return strings.TrimSpace(authorization[len(bearer):])
	}

	if websocket.IsWebSocketUpgrade(c) {
		return strings.TrimSpace(c.Query("token"))
	}
	return ""
}

func attachClaims(c *fiber.Ctx, claims *auth.Claims) {
	c.Locals(claimsKey, claims)
	c.Locals("user_id", claims.ID)
	c.Locals("user_role", normalizeRole(claims.Role))
	c.Locals("user_email", claims.Email)
}
