package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"vjezbajmo/internal/model"
)

type solutionEntry struct {
	solution  model.Solution
	expiresAt time.Time
}

// MemoryProvider keeps the pool in process memory. Exercises have no expiry of
// their own; Cleanup drops entries older than the retention window.
type MemoryProvider struct {
	mu          sync.Mutex
	exercises   map[string][]model.CachedExercise
	solutions   map[string]solutionEntry
	exerciseTTL time.Duration
	solutionTTL time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

func NewMemoryProvider(exerciseTTL, solutionTTL time.Duration, logger *slog.Logger) *MemoryProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryProvider{
		exercises:   make(map[string][]model.CachedExercise),
		solutions:   make(map[string]solutionEntry),
		exerciseTTL: exerciseTTL,
		solutionTTL: solutionTTL,
		now:         time.Now,
		logger:      logger,
	}
}

func copyCached(e model.CachedExercise) model.CachedExercise {
	c := e
	c.Exercise = *e.Exercise.Clone()
	if e.Theme != nil {
		t := *e.Theme
		c.Theme = &t
	}
	return c
}

func (p *MemoryProvider) GetCachedExercises(_ context.Context, key model.CacheKey) []model.CachedExercise {
	p.mu.Lock()
	defer p.mu.Unlock()

	stored := p.exercises[key.String()]
	out := make([]model.CachedExercise, 0, len(stored))
	for _, e := range stored {
		out = append(out, copyCached(e))
	}
	return out
}

func (p *MemoryProvider) SetCachedExercise(_ context.Context, key model.CacheKey, exercise model.CachedExercise) {
	p.mu.Lock()
	defer p.mu.Unlock()

	k := key.String()
	p.exercises[k] = append(p.exercises[k], copyCached(exercise))
	p.logger.Debug("Cached exercise", slog.String("key", k), slog.String("exercise_id", exercise.Exercise.ID))
}

func (p *MemoryProvider) InvalidateExercise(_ context.Context, key model.CacheKey, exerciseID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	k := key.String()
	stored := p.exercises[k]
	kept := stored[:0:0]
	for _, e := range stored {
		if e.Exercise.ID != exerciseID {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		delete(p.exercises, k)
		return
	}
	p.exercises[k] = kept
}

func (p *MemoryProvider) InvalidateAllExercises(_ context.Context, key model.CacheKey) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.exercises, key.String())
}

func (p *MemoryProvider) SetSolutions(_ context.Context, solutions []model.Solution) {
	p.mu.Lock()
	defer p.mu.Unlock()

	expiresAt := p.now().Add(p.solutionTTL)
	for _, s := range solutions {
		s.CorrectAnswers = append([]string(nil), s.CorrectAnswers...)
		p.solutions[model.SolutionKey(s.QuestionID)] = solutionEntry{solution: s, expiresAt: expiresAt}
	}
}

func (p *MemoryProvider) GetSolution(_ context.Context, questionID string) (model.Solution, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.solutions[model.SolutionKey(questionID)]
	if !ok || !p.now().Before(entry.expiresAt) {
		return model.Solution{}, false
	}
	s := entry.solution
	s.CorrectAnswers = append([]string(nil), s.CorrectAnswers...)
	return s, true
}

// Cleanup evicts exercises past the retention window and expired solutions.
func (p *MemoryProvider) Cleanup(_ context.Context) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	cutoff := now.Add(-p.exerciseTTL)
	removed := 0
	for k, stored := range p.exercises {
		kept := stored[:0:0]
		for _, e := range stored {
			if e.CreatedAt.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(p.exercises, k)
		} else {
			p.exercises[k] = kept
		}
	}
	for k, entry := range p.solutions {
		if !now.Before(entry.expiresAt) {
			delete(p.solutions, k)
			removed++
		}
	}
	if removed > 0 {
		p.logger.Info("In-process cache cleanup finished", slog.Int("removed", removed))
	}
	return removed
}

func (p *MemoryProvider) Close() error {
	return nil
}
