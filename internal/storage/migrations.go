package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a
// fatal error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					hash TEXT UNIQUE NOT NULL,
					date DATETIME NOT NULL,
					description TEXT NOT NULL,
					amount REAL NOT NULL,
					category TEXT NOT NULL,
					type TEXT NOT NULL DEFAULT 'expense',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_transactions_date ON transactions(date)`,
				`CREATE INDEX idx_transactions_category ON transactions(category)`,
				`CREATE INDEX idx_transactions_hash ON transactions(hash)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Seed default categories",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS categories (
					name TEXT PRIMARY KEY,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`)
			if err != nil {
				return fmt.Errorf("failed to create categories table: %w", err)
			}

			defaults := []string{
				"food", "housing", "transport", "entertainment",
				"utilities", "health", "shopping", "income", "other",
			}
			for _, name := range defaults {
				if _, err := tx.Exec(`INSERT OR IGNORE INTO categories (name) VALUES (?)`, name); err != nil {
					return fmt.Errorf("failed to seed category %s: %w", name, err)
				}
			}
			return nil
		},
	},
}

// Migrate applies any pending schema migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	current, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		slog.Info("Applying migration", "version", m.Version, "description", m.Description)

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
		}

		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", m.Version, err)
		}

		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}
	}

	final, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}
	if final != ExpectedSchemaVersion {
		return fmt.Errorf("schema at version %d after migration, expected %d", final, ExpectedSchemaVersion)
	}
	return nil
}

// SchemaVersion reports the current schema version of the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	return s.schemaVersion(ctx)
}

func (s *SQLiteStorage) schemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
