// internal/service/exercise_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"vjezbajmo/internal/cache"
	"vjezbajmo/internal/config"
	"vjezbajmo/internal/generation"
	"vjezbajmo/internal/middleware"
	"vjezbajmo/internal/model"
	"vjezbajmo/internal/progress"
	"vjezbajmo/internal/worksheet"

	"github.com/google/uuid"
)

const writeBackTimeout = 10 * time.Second

type ExerciseService interface {
	SelectExercise(ctx context.Context, req model.SelectRequest, identity model.Identity) (*model.Selection, error)
	RecordCompletion(ctx context.Context, in model.CompletionInput, identity model.Identity) error
	ListWorksheets(ctx context.Context, exerciseType model.ExerciseType) ([]worksheet.Worksheet, error)
	GetProgress(ctx context.Context, exerciseType model.ExerciseType, level model.ProficiencyLevel, identity model.Identity) (model.ProgressSummary, error)
	InvalidateCache(ctx context.Context, exerciseType model.ExerciseType, level model.ProficiencyLevel, theme *string) error
	// Wait blocks until pending cache write-backs have finished.
	Wait()
}

type ExerciseServiceOptions struct {
	GenerationTimeout time.Duration
	Invalidation      string
}

type exerciseService struct {
	worksheets worksheet.Repository
	cache      cache.Provider
	ledger     progress.Ledger
	generator  generation.Generator
	opts       ExerciseServiceOptions
	now        func() time.Time

	pending sync.WaitGroup
}

func NewExerciseService(
	worksheets worksheet.Repository,
	cacheProvider cache.Provider,
	ledger progress.Ledger,
	generator generation.Generator,
	opts ExerciseServiceOptions,
) ExerciseService {
	if opts.GenerationTimeout <= 0 {
		opts.GenerationTimeout = config.DefaultGenerationTimeout
	}
	if opts.Invalidation == "" {
		opts.Invalidation = config.InvalidationPerUser
	}
	return &exerciseService{
		worksheets: worksheets,
		cache:      cacheProvider,
		ledger:     ledger,
		generator:  generator,
		opts:       opts,
		now:        time.Now,
	}
}

func validatePartition(exerciseType model.ExerciseType, level model.ProficiencyLevel) (model.ExerciseShape, error) {
	shape, err := exerciseType.Shape()
	if err != nil {
		return "", model.NewAppError("UNSUPPORTED_EXERCISE_TYPE", fmt.Sprintf("Exercise type %q is not supported.", exerciseType), "type", err)
	}
	if !level.IsValid() {
		return "", model.NewAppError("INVALID_LEVEL", fmt.Sprintf("Proficiency level %q is not supported.", level), "level", model.ErrInvalidInput)
	}
	return shape, nil
}

// SelectExercise serves the first exercise the identity has not completed,
// trying the static catalog, then the shared cache, then generation.
func (s *exerciseService) SelectExercise(ctx context.Context, req model.SelectRequest, identity model.Identity) (*model.Selection, error) {
	logger := middleware.GetLogger(ctx)
	shape, err := validatePartition(req.ExerciseType, req.ProficiencyLevel)
	if err != nil {
		return nil, err
	}

	// Completion is tracked per type and level; a worksheet done under one
	// theme counts as done under every theme.
	completed := s.ledger.GetCompletedExercises(ctx, req.ExerciseType, req.ProficiencyLevel, nil, identity)
	done := make(map[string]bool, len(completed))
	for _, id := range completed {
		done[id] = true
	}

	ws, err := s.worksheets.NextUnfinished(req.ExerciseType, req.ProficiencyLevel, completed)
	if err != nil {
		return nil, model.NewAppError("CATALOG_ERROR", "The worksheet catalog could not be read.", "", err)
	}
	if ws != nil {
		set, err := s.worksheets.ToExerciseSet(*ws, req.ExerciseType)
		if err != nil {
			return nil, model.NewAppError("CATALOG_ERROR", "The worksheet catalog could not be read.", "", err)
		}
		return s.serve(ctx, req, set, model.SourceStatic), nil
	}

	key := model.NewCacheKey(req.ExerciseType, req.ProficiencyLevel, req.Theme)
	for _, cached := range s.cache.GetCachedExercises(ctx, key) {
		if done[cached.Exercise.ID] {
			continue
		}
		set := cached.Exercise
		return s.serve(ctx, req, &set, model.SourceCache), nil
	}

	logger.InfoContext(ctx, "No static or cached exercise left, generating",
		slog.String("cache_key", key.String()))
	set, err := s.generate(ctx, req, shape, done)
	if err != nil {
		logger.WarnContext(ctx, "Exercise generation failed", slog.String("cache_key", key.String()), slog.Any("error", err))
		return nil, model.NewAppError("GENERATION_FAILED", "A new exercise could not be generated. Please try again.", "", err)
	}

	s.writeBack(ctx, key, model.CachedExercise{
		Exercise:         *set.Clone(),
		ExerciseType:     req.ExerciseType,
		ProficiencyLevel: req.ProficiencyLevel,
		Theme:            req.Theme,
		CreatedAt:        s.now().UTC(),
	})
	return s.serve(ctx, req, set, model.SourceGenerated), nil
}

func (s *exerciseService) generate(ctx context.Context, req model.SelectRequest, shape model.ExerciseShape, done map[string]bool) (*model.ExerciseSet, error) {
	genCtx, cancel := context.WithTimeout(ctx, s.opts.GenerationTimeout)
	defer cancel()

	set, err := s.generator.Generate(genCtx, model.GenerationRequest{
		ExerciseType:     req.ExerciseType,
		ProficiencyLevel: req.ProficiencyLevel,
		Theme:            req.Theme,
	})
	if err != nil {
		if errors.Is(genCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("no result within %s: %w", s.opts.GenerationTimeout, model.ErrGenerationFailed)
		}
		if !errors.Is(err, model.ErrGenerationFailed) {
			err = fmt.Errorf("%v: %w", err, model.ErrGenerationFailed)
		}
		return nil, err
	}
	if set == nil {
		return nil, fmt.Errorf("generator returned no exercise: %w", model.ErrGenerationFailed)
	}
	if set.ID == "" {
		set.ID = uuid.NewString()
	}
	if done[set.ID] {
		return nil, fmt.Errorf("generated exercise %s is already completed: %w", set.ID, model.ErrGenerationFailed)
	}
	if err := set.Validate(shape); err != nil {
		return nil, fmt.Errorf("generated exercise is malformed: %v: %w", err, model.ErrGenerationFailed)
	}
	return set, nil
}

// writeBack stores a generated exercise without tying it to the request.
func (s *exerciseService) writeBack(ctx context.Context, key model.CacheKey, entry model.CachedExercise) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeBackTimeout)
		defer cancel()
		s.cache.SetCachedExercise(wctx, key, entry)
	}()
}

// serve stores the answer key of set and wraps it for the caller.
func (s *exerciseService) serve(ctx context.Context, req model.SelectRequest, set *model.ExerciseSet, source model.ExerciseSource) *model.Selection {
	s.cache.SetSolutions(ctx, set.Solutions())
	middleware.GetLogger(ctx).DebugContext(ctx, "Serving exercise",
		slog.String("exercise_id", set.ID),
		slog.String("source", string(source)),
	)
	return &model.Selection{
		Exercise:         set.Clone(),
		Source:           source,
		ExerciseType:     req.ExerciseType,
		ProficiencyLevel: req.ProficiencyLevel,
		Theme:            req.Theme,
	}
}

func (s *exerciseService) Wait() {
	s.pending.Wait()
}

// RecordCompletion stores the completion and, under the eager policy, drops the
// exercise from the shared pool.
func (s *exerciseService) RecordCompletion(ctx context.Context, in model.CompletionInput, identity model.Identity) error {
	if _, err := validatePartition(in.ExerciseType, in.ProficiencyLevel); err != nil {
		return err
	}
	if in.Score != nil && (in.Score.Correct < 0 || in.Score.Total < in.Score.Correct) {
		return model.NewAppError("INVALID_SCORE", "Score must satisfy 0 <= correct <= total.", "score", model.ErrInvalidInput)
	}
	if err := s.ledger.MarkExerciseCompleted(ctx, in, identity); err != nil {
		return err
	}
	if s.opts.Invalidation == config.InvalidationEager {
		s.cache.InvalidateExercise(ctx, model.NewCacheKey(in.ExerciseType, in.ProficiencyLevel, in.Theme), in.ExerciseID)
	}
	return nil
}

func (s *exerciseService) ListWorksheets(_ context.Context, exerciseType model.ExerciseType) ([]worksheet.Worksheet, error) {
	all, err := s.worksheets.ListWorksheets(exerciseType)
	if err != nil {
		return nil, model.NewAppError("UNSUPPORTED_EXERCISE_TYPE", fmt.Sprintf("Exercise type %q is not supported.", exerciseType), "type", err)
	}
	return all, nil
}

func (s *exerciseService) GetProgress(ctx context.Context, exerciseType model.ExerciseType, level model.ProficiencyLevel, identity model.Identity) (model.ProgressSummary, error) {
	if _, err := validatePartition(exerciseType, level); err != nil {
		return model.ProgressSummary{}, err
	}
	completed := s.ledger.GetCompletedExercises(ctx, exerciseType, level, nil, identity)
	return s.worksheets.Progress(exerciseType, level, completed)
}

func (s *exerciseService) InvalidateCache(ctx context.Context, exerciseType model.ExerciseType, level model.ProficiencyLevel, theme *string) error {
	if _, err := validatePartition(exerciseType, level); err != nil {
		return err
	}
	key := model.NewCacheKey(exerciseType, level, theme)
	s.cache.InvalidateAllExercises(ctx, key)
	middleware.GetLogger(ctx).InfoContext(ctx, "Invalidated exercise cache", slog.String("cache_key", key.String()))
	return nil
}
