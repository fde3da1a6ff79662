package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the service
type Config struct {
	Port        string
	Environment string

	Database DatabaseConfig
	Mail     MailConfig
	Auth     AuthConfig

	// EmailDomain is the institutional domain every student email must belong to
	EmailDomain    string
	EventTitle     string
	SupportContact string
	PublicBaseURL  string
	// DefaultProgram is recorded as the program of directory-resolved participants
	DefaultProgram string

	RedisURL              string
	NATSURL               string
	GoogleCredentialsFile string
	ClubCatalogPath       string
}

type DatabaseConfig struct {
	// Driver is "postgres", "sqlite" or "memory"
	Driver                 string
	Host                   string
	Port                   int
	User                   string
	Password               string
	Name                   string
	InstanceConnectionName string
	SQLitePath             string
}

type MailConfig struct {
	// Provider is "resend", "smtp" or "log"
	Provider     string
	From         string
	ResendAPIKey string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
}

type AuthConfig struct {
	JWTSecret  string
	SessionTTL time.Duration
	Issuer     string
}

// LoadEnvFiles loads .env files for local development; missing files are not an error
func LoadEnvFiles() {
	if os.Getenv("INSTANCE_CONNECTION_NAME") != "" {
		return
	}
	if err := godotenv.Load(".env"); err != nil {
		if err := godotenv.Load("environments/.env.development"); err != nil {
			slog.Warn("No .env file found - using environment variables only")
		}
	}
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Driver:                 strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			Host:                   getEnv("DB_HOST", "localhost"),
			Port:                   getEnvInt("DB_PORT", 5432),
			User:                   getEnv("DB_USER", "postgres"),
			Password:               os.Getenv("DB_PASS"),
			Name:                   getEnv("DB_NAME", "clubhub"),
			InstanceConnectionName: os.Getenv("INSTANCE_CONNECTION_NAME"),
			SQLitePath:             getEnv("SQLITE_PATH", "clubhub.db"),
		},
		Mail: MailConfig{
			Provider:     strings.ToLower(getEnv("MAIL_PROVIDER", "log")),
			From:         getEnv("MAIL_FROM", "Engineer's Day Registration <noreply@marwadiuniversity.ac.in>"),
			ResendAPIKey: os.Getenv("RESEND_API_KEY"),
			SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:     getEnvInt("SMTP_PORT", 587),
			SMTPUsername: os.Getenv("SMTP_USERNAME"),
			SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		},
		Auth: AuthConfig{
			JWTSecret:  os.Getenv("JWT_SECRET"),
			SessionTTL: getEnvDuration("ADMIN_SESSION_TTL", 8*time.Hour),
			Issuer:     getEnv("JWT_ISSUER", "clubhub-backend"),
		},
		EmailDomain:           strings.ToLower(getEnv("INSTITUTION_EMAIL_DOMAIN", "marwadiuniversity.ac.in")),
		EventTitle:            getEnv("EVENT_TITLE", "Engineer's Day"),
		SupportContact:        getEnv("SUPPORT_CONTACT", "the ICT Department"),
		PublicBaseURL:         strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		DefaultProgram:        getEnv("DEFAULT_PROGRAM", "Engineering"),
		RedisURL:              os.Getenv("REDIS_URL"),
		NATSURL:               os.Getenv("NATS_URL"),
		GoogleCredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		ClubCatalogPath:       os.Getenv("CLUB_CATALOG"),
	}

	if os.Getenv("USE_MEMORY_STORE") == "true" {
		cfg.Database.Driver = "memory"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail later at first use
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite", "memory":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	switch c.Mail.Provider {
	case "resend":
		if c.Mail.ResendAPIKey == "" {
			return fmt.Errorf("RESEND_API_KEY is required when MAIL_PROVIDER=resend")
		}
	case "smtp":
		if c.Mail.SMTPUsername == "" || c.Mail.SMTPPassword == "" {
			return fmt.Errorf("SMTP_USERNAME and SMTP_PASSWORD are required when MAIL_PROVIDER=smtp")
		}
	case "log":
	default:
		return fmt.Errorf("unsupported MAIL_PROVIDER %q", c.Mail.Provider)
	}

	if c.Auth.JWTSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		c.Auth.JWTSecret = "clubhub-development-secret"
	}
	if c.EmailDomain == "" {
		return fmt.Errorf("INSTITUTION_EMAIL_DOMAIN must not be empty")
	}
	return nil
}

// IsProduction reports whether the service runs in its production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Database.InstanceConnectionName != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("Invalid integer in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("Invalid duration in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return d
}
