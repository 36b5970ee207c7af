package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"vjezbajmo/internal/model"

	"github.com/redis/go-redis/v9"
)

// RedisProvider stores each key as a Redis list of JSON documents. Appends are
// server-side (RPUSH) so concurrent writers never lose each other's entries.
type RedisProvider struct {
	client      redis.UniversalClient
	exerciseTTL time.Duration
	solutionTTL time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

func NewRedisProvider(client redis.UniversalClient, exerciseTTL, solutionTTL time.Duration, logger *slog.Logger) *RedisProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisProvider{
		client:      client,
		exerciseTTL: exerciseTTL,
		solutionTTL: solutionTTL,
		now:         time.Now,
		logger:      logger,
	}
}

func (p *RedisProvider) warn(msg string, key string, err error) {
	p.logger.Warn(msg,
		slog.String("key", key),
		slog.Any("error", errors.Join(model.ErrBackendUnavailable, err)),
	)
}

func (p *RedisProvider) GetCachedExercises(ctx context.Context, key model.CacheKey) []model.CachedExercise {
	k := key.String()
	raw, err := p.client.LRange(ctx, k, 0, -1).Result()
	if err != nil {
		p.warn("Failed to read cached exercises", k, err)
		return []model.CachedExercise{}
	}

	cutoff := p.now().Add(-p.exerciseTTL)
	out := make([]model.CachedExercise, 0, len(raw))
	for _, item := range raw {
		var e model.CachedExercise
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			p.logger.Warn("Skipping unreadable cached exercise", slog.String("key", k), slog.Any("error", err))
			continue
		}
		if e.CreatedAt.Before(cutoff) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (p *RedisProvider) SetCachedExercise(ctx context.Context, key model.CacheKey, exercise model.CachedExercise) {
	k := key.String()
	data, err := json.Marshal(exercise)
	if err != nil {
		p.logger.Error("Failed to encode exercise for cache", slog.String("key", k), slog.Any("error", err))
		return
	}
	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, k, data)
		pipe.Expire(ctx, k, p.exerciseTTL)
		return nil
	})
	if err != nil {
		p.warn("Failed to cache exercise", k, err)
		return
	}
	p.logger.Debug("Cached exercise", slog.String("key", k), slog.String("exercise_id", exercise.Exercise.ID))
}

func (p *RedisProvider) InvalidateExercise(ctx context.Context, key model.CacheKey, exerciseID string) {
	k := key.String()
	raw, err := p.client.LRange(ctx, k, 0, -1).Result()
	if err != nil {
		p.warn("Failed to read cached exercises for invalidation", k, err)
		return
	}
	for _, item := range raw {
		var e model.CachedExercise
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			continue
		}
		if e.Exercise.ID != exerciseID {
			continue
		}
		// Redis drops the list once its last element is removed.
		if err := p.client.LRem(ctx, k, 0, item).Err(); err != nil {
			p.warn("Failed to invalidate cached exercise", k, err)
			return
		}
	}
}

func (p *RedisProvider) InvalidateAllExercises(ctx context.Context, key model.CacheKey) {
	k := key.String()
	if err := p.client.Del(ctx, k).Err(); err != nil {
		p.warn("Failed to invalidate cache key", k, err)
	}
}

func (p *RedisProvider) SetSolutions(ctx context.Context, solutions []model.Solution) {
	if len(solutions) == 0 {
		return
	}
	_, err := p.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, s := range solutions {
			data, err := json.Marshal(s)
			if err != nil {
				return err
			}
			pipe.Set(ctx, model.SolutionKey(s.QuestionID), data, p.solutionTTL)
		}
		return nil
	})
	if err != nil {
		p.warn("Failed to store solutions", model.SolutionKey(solutions[0].QuestionID), err)
	}
}

func (p *RedisProvider) GetSolution(ctx context.Context, questionID string) (model.Solution, bool) {
	k := model.SolutionKey(questionID)
	data, err := p.client.Get(ctx, k).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			p.warn("Failed to read solution", k, err)
		}
		return model.Solution{}, false
	}
	var s model.Solution
	if err := json.Unmarshal(data, &s); err != nil {
		p.logger.Warn("Unreadable solution in cache", slog.String("key", k), slog.Any("error", err))
		return model.Solution{}, false
	}
	return s, true
}

// Cleanup is a no-op; Redis expires keys on its own.
func (p *RedisProvider) Cleanup(_ context.Context) int {
	return 0
}

func (p *RedisProvider) Close() error {
	return p.client.Close()
}
