package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/Ananth-NQI/clubhub-backend/internal/handlers"
	"github.com/Ananth-NQI/clubhub-backend/internal/metrics"
	"github.com/Ananth-NQI/clubhub-backend/internal/middleware"
)

// Handlers bundles everything the router mounts
type Handlers struct {
	Health       *handlers.HealthHandler
	Catalog      *handlers.CatalogHandler
	Registration *handlers.RegistrationHandler
	Admin        *handlers.AdminHandler
	Auth         middleware.TokenValidator
	Metrics      *metrics.Metrics
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, h Handlers) {

	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to ClubHub Backend!",
			"version": h.Health.Version,
			"endpoints": fiber.Map{
				"health":  "/health",
				"metrics": "/metrics",
				"api":     "/api",
				"admin":   "/api/admin",
			},
		})
	})

	app.Get("/health", h.Health.Check)
	app.Get("/metrics", adaptor.HTTPHandler(h.Metrics.Handler()))

	// API routes
	api := app.Group("/api")

	api.Get("/clubs", h.Catalog.ListClubs)
	api.Get("/clubs/:id", h.Catalog.GetClub)
	api.Get("/events", h.Catalog.ListEvents)
	api.Get("/events/:id", h.Catalog.GetEvent)
	api.Get("/students/:gr", h.Catalog.LookupStudent)

	registrations := api.Group("/registrations")
	registrations.Post("/", h.Registration.Submit)
	// Registered before /:id so it is not taken for an id
	registrations.Post("/direct", h.Registration.SubmitDirect)
	registrations.Get("/:id", h.Registration.GetStatus)
	registrations.Post("/:id/verify", h.Registration.Verify)
	registrations.Post("/:id/resend-otp", h.Registration.ResendOTP)

	api.Get("/verify-email", h.Registration.VerifyEmail)

	// ========== ADMIN ROUTES ==========
	api.Post("/admin/login", h.Admin.Login)

	admin := api.Group("/admin", middleware.RequireAdmin(h.Auth))
	admin.Post("/logout", h.Admin.Logout)

	events := admin.Group("/events")
	events.Get("/", h.Admin.ListEvents)
	events.Post("/", h.Admin.CreateEvent)
	events.Put("/:id", h.Admin.UpdateEvent)
	events.Delete("/:id", h.Admin.DeleteEvent)

	admin.Get("/registrations", h.Admin.ListRegistrations)
	admin.Get("/registrations/export", h.Admin.ExportRegistrations)
	admin.Post("/registrations/:id/resend-otp", h.Admin.ResendOTP)

	admin.Post("/students/import", h.Admin.ImportStudents)
	admin.Post("/students/import/sheet", h.Admin.ImportSheet)
}
