package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/pennywise-app/pennywise/internal/artifact"
	"github.com/pennywise-app/pennywise/internal/config"
	"github.com/pennywise-app/pennywise/internal/service"
	"github.com/pennywise-app/pennywise/internal/storage"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		var err error
		dbPath, err = config.DefaultDatabasePath()
		if err != nil {
			return nil, err
		}
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initArtifactStore opens the model artifact store from config.
func initArtifactStore() (*artifact.Store, error) {
	dir := viper.GetString("models.dir")
	if dir == "" {
		var err error
		dir, err = config.DefaultModelDir()
		if err != nil {
			return nil, err
		}
	}
	return artifact.NewStore(config.ExpandPath(dir))
}
