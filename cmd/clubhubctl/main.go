// Command clubhubctl runs maintenance tasks against the ClubHub database.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ananth-NQI/clubhub-backend/database"
	"github.com/Ananth-NQI/clubhub-backend/internal/config"
	"github.com/Ananth-NQI/clubhub-backend/internal/services"
	"github.com/Ananth-NQI/clubhub-backend/internal/storage"
)

const (
	Version = "1.0.0"
	appName = "clubhubctl"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   appName,
		Short: "ClubHub maintenance commands",
		Long: `clubhubctl manages the ClubHub registration database: schema
migrations, the club catalog, the student roster and admin accounts.

Settings are read from the same environment (and .env files) as the server.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(logLevel)
			config.LoadEnvFiles()
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		migrateCmd(),
		seedCmd(),
		importStudentsCmd(),
		createAdminCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}

func setupLogging(logLevel string) {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// openStore loads configuration and opens a persistent store
func openStore() (*config.Config, storage.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.Driver == "memory" {
		return nil, nil, errors.New("this command needs DB_DRIVER=postgres or sqlite")
	}
	store, err := database.OpenStore(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}

func depsFor(cfg *config.Config, store storage.Store) services.Dependencies {
	return services.Dependencies{
		Store: store,
		Settings: services.Settings{
			EventTitle:     cfg.EventTitle,
			SupportContact: cfg.SupportContact,
			EmailDomain:    cfg.EmailDomain,
			PublicBaseURL:  cfg.PublicBaseURL,
			DefaultProgram: cfg.DefaultProgram,
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening the store runs the migrations
			_, _, err := openStore()
			return err
		},
	}
}

func seedCmd() *cobra.Command {
	var catalogPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load clubs and their events from a YAML catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := openStore()
			if err != nil {
				return err
			}
			if catalogPath == "" {
				catalogPath = cfg.ClubCatalogPath
			}
			if catalogPath == "" {
				return errors.New("no catalog given: use --catalog or CLUB_CATALOG")
			}

			catalog, err := config.LoadClubCatalog(catalogPath)
			if err != nil {
				return err
			}
			clubs, created, err := services.NewCatalogService(depsFor(cfg, store)).SeedCatalog(cmd.Context(), catalog)
			if err != nil {
				return err
			}
			fmt.Printf("Seeded %d clubs, created %d events\n", clubs, created)
			return nil
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Path to the club catalog YAML")
	return cmd
}

func importStudentsCmd() *cobra.Command {
	var (
		filePath  string
		sheetID   string
		readRange string
	)

	cmd := &cobra.Command{
		Use:   "import-students",
		Short: "Import the student roster from an .xlsx/.csv file or a Google Sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (filePath == "") == (sheetID == "") {
				return errors.New("give exactly one of --file or --sheet")
			}
			cfg, store, err := openStore()
			if err != nil {
				return err
			}
			importer := services.NewRosterImporter(depsFor(cfg, store))

			var result *services.ImportResult
			if filePath != "" {
				result, err = importFile(cmd.Context(), importer, filePath)
			} else {
				result, err = importSheet(cmd.Context(), importer, cfg.GoogleCredentialsFile, sheetID, readRange)
			}
			if result != nil {
				for _, rowErr := range result.Errors {
					fmt.Fprintln(os.Stderr, rowErr)
				}
			}
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d students (%d rows rejected)\n", result.Processed, len(result.Errors))
			return nil
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "Roster file (.xlsx or .csv)")
	cmd.Flags().StringVar(&sheetID, "sheet", "", "Google spreadsheet id")
	cmd.Flags().StringVar(&readRange, "range", "A:Z", "Range to read from the spreadsheet")
	return cmd
}

func importFile(ctx context.Context, importer *services.RosterImporter, path string) (*services.ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	source, err := services.SourceForFile(path, f)
	if err != nil {
		return nil, err
	}
	return importer.ImportFrom(ctx, source)
}

func importSheet(ctx context.Context, importer *services.RosterImporter, credentials, sheetID, readRange string) (*services.ImportResult, error) {
	if credentials == "" {
		return nil, errors.New("GOOGLE_APPLICATION_CREDENTIALS must point to a service account file")
	}
	srv, err := services.NewSheetsService(ctx, credentials)
	if err != nil {
		return nil, err
	}
	importer.UseSheets(srv)
	return importer.ImportSheet(ctx, sheetID, readRange)
}

func createAdminCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account (password from ADMIN_PASSWORD)",
		RunE: func(cmd *cobra.Command, args []string) error {
			password := os.Getenv("ADMIN_PASSWORD")
			if password == "" {
				return errors.New("ADMIN_PASSWORD must be set")
			}
			cfg, store, err := openStore()
			if err != nil {
				return err
			}
			admin, err := services.NewAuthService(store, nil, cfg.Auth).CreateAdmin(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			fmt.Printf("Created admin %s (%s)\n", admin.Username, admin.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Admin username")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}
