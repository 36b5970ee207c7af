// Package generation adapts the external exercise generation collaborator.
//
//go:generate mockery --name Generator --output ./mocks --outpkg mocks --case=underscore
package generation

import (
	"context"
	"fmt"
	"log/slog"

	"vjezbajmo/internal/config"
	"vjezbajmo/internal/model"
)

// Generator produces a fresh exercise for a partition. Every failure wraps
// model.ErrGenerationFailed. Implementations do not retry.
type Generator interface {
	Generate(ctx context.Context, req model.GenerationRequest) (*model.ExerciseSet, error)
}

// Unavailable is used when no generation backend is configured.
type Unavailable struct{}

func (Unavailable) Generate(_ context.Context, req model.GenerationRequest) (*model.ExerciseSet, error) {
	return nil, fmt.Errorf("no generation backend configured for %s/%s: %w", req.ExerciseType, req.ProficiencyLevel, model.ErrGenerationFailed)
}

// New returns the OpenAI-backed generator when an API key is configured and
// Unavailable otherwise.
func New(cfg config.GenerationConfig, logger *slog.Logger) Generator {
	if cfg.APIKey == "" {
		logger.Warn("No generation API key configured, exercise generation is disabled")
		return Unavailable{}
	}
	g, err := NewOpenAIGenerator(cfg, logger)
	if err != nil {
		logger.Error("Failed to set up generation backend", slog.Any("error", err))
		return Unavailable{}
	}
	logger.Info("Exercise generation enabled", slog.String("model", g.model))
	return g
}
