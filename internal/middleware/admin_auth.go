package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/clubhub-backend/internal/services"
)

// AdminCookie carries the session token for browser clients
const AdminCookie = "clubhub_admin"

const adminLocalsKey = "admin"

// TokenValidator checks an admin session token
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*services.AdminClaims, error)
}

// RequireAdmin rejects requests without a valid admin session token,
// taken from the Authorization header or the session cookie
func RequireAdmin(auth TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			token = c.Cookies(AdminCookie)
		}
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing admin session",
			})
		}

		claims, err := auth.ValidateToken(c.UserContext(), token)
		if errors.Is(err, services.ErrInvalidToken) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired session",
			})
		}
		if err != nil {
			slog.Error("Session check failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Server configuration error",
			})
		}

		c.Locals(adminLocalsKey, claims)
		return c.Next()
	}
}

// AdminClaims returns the claims stored by RequireAdmin
func AdminClaims(c *fiber.Ctx) (*services.AdminClaims, bool) {
	claims, ok := c.Locals(adminLocalsKey).(*services.AdminClaims)
	return claims, ok
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
