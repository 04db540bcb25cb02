package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/mkedata/crosswalk/internal/common"
	"github.com/mkedata/crosswalk/internal/config"
	"github.com/mkedata/crosswalk/internal/service"
	"github.com/mkedata/crosswalk/internal/storage"
)

// initStore opens the configured database and brings its schema current.
func initStore(ctx context.Context) (service.Store, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDBPath()
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, common.NewUserError("failed to open database "+dbPath, err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}
