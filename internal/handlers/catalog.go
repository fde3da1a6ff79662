package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/clubhub-backend/internal/services"
)

// CatalogHandler serves the public club, event and student lookups
type CatalogHandler struct {
	catalog *services.CatalogService
}

func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) ListClubs(c *fiber.Ctx) error {
	clubs, err := h.catalog.ListClubs(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"clubs": clubs,
		"count": len(clubs),
	})
}

func (h *CatalogHandler) GetClub(c *fiber.Ctx) error {
	club, err := h.catalog.GetClub(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(club)
}

// ListEvents accepts an optional ?club= filter
func (h *CatalogHandler) ListEvents(c *fiber.Ctx) error {
	events, err := h.catalog.ListEvents(c.UserContext(), c.Query("club"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"events": events,
		"count":  len(events),
	})
}

func (h *CatalogHandler) GetEvent(c *fiber.Ctx) error {
	event, err := h.catalog.GetEvent(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(event)
}

// LookupStudent previews a directory entry before registering. The email is masked.
func (h *CatalogHandler) LookupStudent(c *fiber.Ctx) error {
	student, err := h.catalog.LookupStudent(c.UserContext(), c.Params("gr"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"gr_number": student.GRNumber,
		"name":      student.Name,
		"class":     student.Class,
		"semester":  student.Semester,
		"email":     student.MaskedEmail(),
	})
}
