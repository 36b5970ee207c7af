// Package cache holds the shared pool of generated exercises and the
// short-lived solution store used for answer checking.
//
// The pool is an optimization, never a correctness dependency: every
// implementation converts backend failures into empty results or no-ops and
// logs them instead of returning errors.
package cache

import (
	"context"
	"fmt"
	"log/slog"

	"vjezbajmo/internal/config"
	"vjezbajmo/internal/model"

	"github.com/redis/go-redis/v9"
)

// Provider is the capability set shared by both store variants.
type Provider interface {
	// GetCachedExercises returns the collection under key, oldest first.
	GetCachedExercises(ctx context.Context, key model.CacheKey) []model.CachedExercise
	// SetCachedExercise appends exercise to the collection under key.
	SetCachedExercise(ctx context.Context, key model.CacheKey, exercise model.CachedExercise)
	// InvalidateExercise removes the entry with exerciseID; an emptied key is removed.
	InvalidateExercise(ctx context.Context, key model.CacheKey, exerciseID string)
	// InvalidateAllExercises removes the whole collection under key.
	InvalidateAllExercises(ctx context.Context, key model.CacheKey)

	SetSolutions(ctx context.Context, solutions []model.Solution)
	// GetSolution reports false for unknown or expired questions and when the backend is down.
	GetSolution(ctx context.Context, questionID string) (model.Solution, bool)

	// Cleanup evicts expired entries and returns how many were removed.
	Cleanup(ctx context.Context) int
	Close() error
}

// NewProvider builds the variant selected by cfg. Exactly one variant exists per process.
func NewProvider(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case config.StorageRemoteKV:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %v: %w", err, model.ErrConfiguration)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			// Keep going; every call fails open until the server is reachable.
			logger.Warn("Redis is not reachable at startup, cache will behave as empty", slog.Any("error", err))
		}
		logger.Info("Using remote key-value exercise cache", slog.String("addr", opts.Addr))
		return NewRedisProvider(client, cfg.ExerciseTTL, cfg.SolutionTTL, logger), nil
	case config.StorageInMemory:
		logger.Info("Using in-process exercise cache")
		return NewMemoryProvider(cfg.ExerciseTTL, cfg.SolutionTTL, logger), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q: %w", cfg.Backend, model.ErrConfiguration)
	}
}
