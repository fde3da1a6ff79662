package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/clubhub-backend/internal/middleware"
	"github.com/Ananth-NQI/clubhub-backend/internal/models"
	"github.com/Ananth-NQI/clubhub-backend/internal/services"
)

// AdminHandler handles admin operations
type AdminHandler struct {
	auth          *services.AuthService
	catalog       *services.CatalogService
	admin         *services.AdminService
	registrations *services.RegistrationService
	roster        *services.RosterImporter
	secureCookies bool
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	auth *services.AuthService,
	catalog *services.CatalogService,
	admin *services.AdminService,
	registrations *services.RegistrationService,
	roster *services.RosterImporter,
	secureCookies bool,
) *AdminHandler {
	return &AdminHandler{
		auth:          auth,
		catalog:       catalog,
		admin:         admin,
		registrations: registrations,
		roster:        roster,
		secureCookies: secureCookies,
	}
}

// Login exchanges credentials for a session token, also set as a cookie
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.AdminCookie,
		Value:    result.Token,
		Expires:  result.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{
		"success":    true,
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
		"username":   result.Username,
	})
}

func (h *AdminHandler) Logout(c *fiber.Ctx) error {
	claims, ok := middleware.AdminClaims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Missing admin session",
		})
	}
	if err := h.auth.Logout(c.UserContext(), claims); err != nil {
		return respondError(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.AdminCookie,
		Value:    "",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"success": true})
}

// Event management

func (h *AdminHandler) ListEvents(c *fiber.Ctx) error {
	events, err := h.catalog.ListEvents(c.UserContext(), c.Query("club"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"events":  events,
		"count":   len(events),
	})
}

func (h *AdminHandler) CreateEvent(c *fiber.Ctx) error {
	var input models.EventInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	event, err := h.catalog.CreateEvent(c.UserContext(), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(event)
}

func (h *AdminHandler) UpdateEvent(c *fiber.Ctx) error {
	var input models.EventInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	event, err := h.catalog.UpdateEvent(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(event)
}

func (h *AdminHandler) DeleteEvent(c *fiber.Ctx) error {
	if err := h.catalog.DeleteEvent(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Registrations

// ListRegistrations supports ?event_id=, ?status=verified|pending and ?search=
func (h *AdminHandler) ListRegistrations(c *fiber.Ctx) error {
	status := c.Query("status")
	if status != "" && status != "verified" && status != "pending" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Status must be 'verified' or 'pending'",
		})
	}

	listing, err := h.admin.ListRegistrations(c.UserContext(), models.RegistrationFilter{
		EventID: c.Query("event_id"),
		Status:  status,
		Search:  c.Query("search"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listing)
}

// ExportRegistrations downloads one event's registrations, or all of them without ?event_id=
func (h *AdminHandler) ExportRegistrations(c *fiber.Ctx) error {
	var (
		export *services.Export
		err    error
	)
	if eventID := c.Query("event_id"); eventID != "" {
		export, err = h.admin.ExportEvent(c.UserContext(), eventID)
	} else {
		export, err = h.admin.ExportAll(c.UserContext())
	}
	if err != nil {
		return respondError(c, err)
	}

	c.Attachment(export.Filename)
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Send(export.Data)
}

// ResendOTP lets an admin re-issue a participant's code
func (h *AdminHandler) ResendOTP(c *fiber.Ctx) error {
	var req struct {
		GRNumber string `json:"gr_number"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.registrations.ReissueOTP(c.UserContext(), c.Params("id"), req.GRNumber)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"issuance": result,
	})
}

// Student roster

// ImportStudents accepts a multipart .xlsx or .csv upload in the "file" field
func (h *AdminHandler) ImportStudents(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded",
		})
	}
	file, err := header.Open()
	if err != nil {
		return respondError(c, err)
	}
	defer file.Close()

	source, err := services.SourceForFile(header.Filename, file)
	if err != nil {
		return respondError(c, err)
	}
	result, err := h.roster.ImportFrom(c.UserContext(), source)
	return h.importResponse(c, result, err)
}

// ImportSheet pulls the roster from a Google Sheet
func (h *AdminHandler) ImportSheet(c *fiber.Ctx) error {
	var req struct {
		SpreadsheetID string `json:"spreadsheet_id"`
		Range         string `json:"range"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.roster.ImportSheet(c.UserContext(), req.SpreadsheetID, req.Range)
	return h.importResponse(c, result, err)
}

func (h *AdminHandler) importResponse(c *fiber.Ctx, result *services.ImportResult, err error) error {
	if errors.Is(err, services.ErrNoValidRows) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "No valid student records found",
			"details": result.Errors,
		})
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"processed": result.Processed,
		"errors":    result.Errors,
		"message":   "Student roster imported",
	})
}
