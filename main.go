package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Ananth-NQI/clubhub-backend/database"
	"github.com/Ananth-NQI/clubhub-backend/internal/config"
	"github.com/Ananth-NQI/clubhub-backend/internal/handlers"
	"github.com/Ananth-NQI/clubhub-backend/internal/metrics"
	"github.com/Ananth-NQI/clubhub-backend/internal/routes"
	"github.com/Ananth-NQI/clubhub-backend/internal/services"
)

const version = "1.0.0"

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := run(); err != nil {
		slog.Error("ClubHub Backend exited", "error", err)
		os.Exit(1)
	}
}

// run owns every opened resource so deferred closes happen before main exits.
func run() error {
	// Load .env file for local development
	config.LoadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := database.OpenStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	m := metrics.New()
	mailer, err := services.NewMailer(cfg.Mail, m)
	if err != nil {
		return fmt.Errorf("failed to initialize mailer: %w", err)
	}

	publisher, err := services.NewPublisher(cfg.NATSURL)
	if err != nil {
		return err
	}
	defer publisher.Close()

	var sessions services.SessionStore = services.NewMemorySessionStore()
	if cfg.RedisURL != "" {
		redisSessions, err := services.NewRedisSessionStore(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisSessions.Close()
		sessions = redisSessions
		slog.Info("✅ Admin sessions stored in Redis")
	}

	deps := services.Dependencies{
		Store:     store,
		Mailer:    mailer,
		Publisher: publisher,
		Metrics:   m,
		Settings: services.Settings{
			EventTitle:     cfg.EventTitle,
			SupportContact: cfg.SupportContact,
			EmailDomain:    cfg.EmailDomain,
			PublicBaseURL:  cfg.PublicBaseURL,
			DefaultProgram: cfg.DefaultProgram,
		},
	}

	// Initialize all services
	otpService := services.NewOTPService(deps)
	registrationService := services.NewRegistrationService(deps, otpService)
	directService := services.NewDirectRegistrationService(deps)
	catalogService := services.NewCatalogService(deps)
	adminService := services.NewAdminService(deps)
	rosterImporter := services.NewRosterImporter(deps)
	authService := services.NewAuthService(store, sessions, cfg.Auth)

	if cfg.GoogleCredentialsFile != "" {
		sheets, err := services.NewSheetsService(context.Background(), cfg.GoogleCredentialsFile)
		if err != nil {
			slog.Warn("⚠️  Google Sheets import disabled", "error", err)
		} else {
			rosterImporter.UseSheets(sheets)
		}
	}

	if cfg.ClubCatalogPath != "" {
		catalog, err := config.LoadClubCatalog(cfg.ClubCatalogPath)
		if err != nil {
			return fmt.Errorf("failed to load club catalog: %w", err)
		}
		if _, _, err := catalogService.SeedCatalog(context.Background(), catalog); err != nil {
			return fmt.Errorf("failed to seed club catalog: %w", err)
		}
	}

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName:   "ClubHub Backend v" + version,
		BodyLimit: 10 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	routes.SetupRoutes(app, routes.Handlers{
		Health:       handlers.NewHealthHandler(version, store),
		Catalog:      handlers.NewCatalogHandler(catalogService),
		Registration: handlers.NewRegistrationHandler(registrationService, directService),
		Admin:        handlers.NewAdminHandler(authService, catalogService, adminService, registrationService, rosterImporter, cfg.IsProduction()),
		Auth:         authService,
		Metrics:      m,
	})

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-quit
		slog.Info("🛑 Gracefully shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			slog.Error("Shutdown failed", "error", err)
		}
	}()

	slog.Info("🚀 ClubHub Backend starting",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"storage", cfg.Database.Driver,
		"mail", cfg.Mail.Provider,
	)

	if err := app.Listen(":" + cfg.Port); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
