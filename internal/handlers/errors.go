package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/clubhub-backend/internal/services"
)

// respondError maps service errors to status codes
func respondError(c *fiber.Ctx, err error) error {
	var (
		validation *services.ValidationError
		registered *services.AlreadyRegisteredError
		missing    *services.StudentNotFoundError
		delivery   *services.DeliveryError
	)

	switch {
	case errors.As(err, &validation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validation.Message,
			"field": validation.Field,
		})
	case errors.As(err, &registered):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":      registered.Error(),
			"identifier": registered.Identifier,
		})
	case errors.As(err, &missing):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":      missing.Error(),
			"identifier": missing.Identifier,
		})
	case errors.As(err, &delivery):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":    "Failed to send email",
			"fallback": delivery.Fallback,
		})
	case errors.Is(err, services.ErrInvalidOTP):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid or expired OTP",
		})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Not found",
		})
	case errors.Is(err, services.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid username or password",
		})
	case errors.Is(err, services.ErrInvalidToken):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired session",
		})
	case errors.Is(err, services.ErrRegistrationClosed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Registration is already confirmed",
		})
	case errors.Is(err, services.ErrSheetsUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Google Sheets import is not configured",
		})
	}

	slog.Error("Request failed", "method", c.Method(), "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}
