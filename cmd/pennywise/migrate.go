package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pennywise-app/pennywise/internal/config"
	"github.com/pennywise-app/pennywise/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

This command ensures your local database has all the required
tables and indexes for the application to function properly.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")

	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		var err error
		dbPath, err = config.DefaultDatabasePath()
		if err != nil {
			return err
		}
	}
	dbPath = config.ExpandPath(dbPath)

	slog.Info("Starting database migration", "database", dbPath, "status_only", status)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	if status {
		version, err := store.SchemaVersion(cmd.Context())
		if err != nil {
			return err
		}
		slog.Info("Migration status",
			"current_version", version,
			"expected_version", storage.ExpectedSchemaVersion)
		return nil
	}

	if err := store.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("Database migrated", "version", storage.ExpectedSchemaVersion)
	return nil
}
