// cmd/serve.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vjezbajmo/internal/cache"
	"vjezbajmo/internal/config"
	"vjezbajmo/internal/generation"
	"vjezbajmo/internal/handlers"
	"vjezbajmo/internal/progress"
	"vjezbajmo/internal/repository"
	"vjezbajmo/internal/scheduler"
	"vjezbajmo/internal/service"
	"vjezbajmo/internal/worksheet"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := setup(cmd)
		if err != nil {
			return err
		}
		if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
			if err := migrateStores(logger, config.Cfg.Database.URL, config.Cfg.LocalStore.DSN); err != nil {
				return err
			}
		}
		return serve(logger, config.Cfg)
	},
}

func init() {
	serveCmd.Flags().Bool("migrate", true, "Apply migrations before serving")
}

func serve(logger *slog.Logger, cfg config.Config) error {
	logger.Info("Application starting...")

	remoteDB, err := repository.NewDB(cfg.Database.URL, logger)
	if err != nil {
		return err
	}
	defer closeDB(logger, "remote", remoteDB)
	localDB, err := repository.NewDB(cfg.LocalStore.DSN, logger)
	if err != nil {
		return err
	}
	defer closeDB(logger, "local", localDB)

	worksheets, err := worksheet.NewEmbeddedRepository()
	if err != nil {
		return fmt.Errorf("load worksheet catalog: %w", err)
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 10*time.Second)
	provider, err := cache.NewProvider(startCtx, cfg.Storage(), logger)
	cancelStart()
	if err != nil {
		return err
	}
	defer func() {
		if err := provider.Close(); err != nil {
			logger.Error("Error closing cache provider", slog.Any("error", err))
		}
	}()

	// Dependency injection
	ledger := progress.NewLedger(localDB, remoteDB,
		repository.NewGormLocalStorageRepository(), repository.NewGormProgressRepository(),
		cfg.Progress.Retention, logger)
	exerciseService := service.NewExerciseService(worksheets, provider, ledger, generation.New(cfg.Generation, logger),
		service.ExerciseServiceOptions{
			GenerationTimeout: cfg.Generation.Timeout,
			Invalidation:      cfg.Cache.Invalidation,
		})
	answerService := service.NewAnswerService(provider)

	router := handlers.NewRouter(handlers.RouterDeps{
		Exercises: handlers.NewExerciseHandler(exerciseService, logger),
		Answers:   handlers.NewAnswerHandler(answerService, logger),
		Progress:  handlers.NewProgressHandler(exerciseService, ledger, logger),
		JWTSecret: cfg.Auth.JWTSecret,
		CORS:      cfg.CORS,
		Logger:    logger,
	})

	sweeper := scheduler.New(provider, cfg.Cache.CleanupInterval, logger)
	if err := sweeper.Start(); err != nil {
		return err
	}
	defer sweeper.Stop()

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.Generation.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", slog.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", cfg.Server.Port, err)
		}
	case <-quit:
	}
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", slog.Any("error", err))
	}
	exerciseService.Wait()

	logger.Info("Server exiting")
	return nil
}

func closeDB(logger *slog.Logger, name string, db *gorm.DB) {
	if err := repository.CloseDB(db); err != nil {
		logger.Error("Error closing database connection", slog.String("store", name), slog.Any("error", err))
	}
}
