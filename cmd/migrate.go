// cmd/migrate.go
package main

import (
	"fmt"
	"log/slog"

	"vjezbajmo/internal/config"
	"vjezbajmo/internal/repository"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the progress tables in both stores",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := setup(cmd)
		if err != nil {
			return err
		}
		return migrateStores(logger, config.Cfg.Database.URL, config.Cfg.LocalStore.DSN)
	},
}

func migrateStores(logger *slog.Logger, urls ...string) error {
	for _, url := range urls {
		db, err := repository.NewDB(url, logger)
		if err != nil {
			return err
		}
		err = repository.Migrate(db)
		if closeErr := repository.CloseDB(db); closeErr != nil {
			logger.Warn("Error closing database connection", slog.Any("error", closeErr))
		}
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	logger.Info("Migrations applied", slog.Int("stores", len(urls)))
	return nil
}
