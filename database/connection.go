package database

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Ananth-NQI/clubhub-backend/internal/config"
	"github.com/Ananth-NQI/clubhub-backend/internal/storage"
)

// Connect opens the GORM connection described by cfg
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		slog.Info("Connecting to SQLite database", "path", cfg.SQLitePath)
		dialector = sqlite.Open(cfg.SQLitePath + "?_foreign_keys=on&_busy_timeout=5000")
	case "postgres":
		dialector = postgres.Open(postgresDSN(cfg))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	if cfg.Driver == "sqlite" {
		// SQLite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	slog.Info("✅ Database connected successfully!", "driver", cfg.Driver)
	return db, nil
}

func postgresDSN(cfg config.DatabaseConfig) string {
	// For Cloud Run with Cloud SQL
	if cfg.InstanceConnectionName != "" {
		slog.Info("Connecting to Cloud SQL via socket", "instance", cfg.InstanceConnectionName)
		return fmt.Sprintf("host=/cloudsql/%s user=%s password=%s dbname=%s sslmode=disable",
			cfg.InstanceConnectionName, cfg.User, cfg.Password, cfg.Name)
	}

	slog.Info("Connecting to PostgreSQL", "host", cfg.Host, "port", cfg.Port)
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port)
}

// OpenStore returns the store selected by cfg. Database-backed stores are migrated.
func OpenStore(cfg config.DatabaseConfig) (storage.Store, error) {
	if cfg.Driver == "memory" {
		slog.Warn("⚠️  Using in-memory storage (not for production!)")
		return storage.NewMemoryStore(), nil
	}

	db, err := Connect(cfg)
	if err != nil {
		return nil, err
	}
	store := storage.NewDatabaseStore(db)

	slog.Info("🔄 Running database migrations...")
	if err := store.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	slog.Info("✅ Database migrations completed!")
	return store, nil
}
