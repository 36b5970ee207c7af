// internal/cache/redis_test.go
package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"vjezbajmo/internal/config"
	"vjezbajmo/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisProvider(t *testing.T) (*RedisProvider, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisProvider(client, 7*24*time.Hour, time.Hour, testLogger()), mr
}

func TestRedisProvider_RoundTrip(t *testing.T) {
	ctx := context.Background()
	p, mr := newTestRedisProvider(t)
	key := model.NewCacheKey(model.ExerciseTypeVerbTenses, "A1", strPtr("grad"))
	created := time.Now().UTC().Truncate(time.Second)

	e := sampleExercise("g1", created)
	p.SetCachedExercise(ctx, key, e)

	got := p.GetCachedExercises(ctx, key)
	require.Len(t, got, 1)
	assert.Equal(t, e, got[0])
	assert.True(t, mr.Exists("exercises:verbTenses:A1:grad"))
	assert.Equal(t, 7*24*time.Hour, mr.TTL(key.String()))

	p.InvalidateExercise(ctx, key, "g1")
	assert.Empty(t, p.GetCachedExercises(ctx, key))
	assert.False(t, mr.Exists(key.String()), "emptied key must be removed")
}

func TestRedisProvider_OrderAndInvalidation(t *testing.T) {
	ctx := context.Background()
	p, mr := newTestRedisProvider(t)
	key := model.NewCacheKey(model.ExerciseTypeVerbAspect, "B1.1", nil)
	created := time.Now().UTC()

	for _, id := range []string{"a", "b", "c"} {
		p.SetCachedExercise(ctx, key, sampleExercise(id, created))
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids(p.GetCachedExercises(ctx, key)))

	p.InvalidateExercise(ctx, key, "b")
	assert.Equal(t, []string{"a", "c"}, ids(p.GetCachedExercises(ctx, key)))

	p.InvalidateAllExercises(ctx, key)
	assert.Empty(t, p.GetCachedExercises(ctx, key))
	assert.False(t, mr.Exists(key.String()))
}

func TestRedisProvider_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestRedisProvider(t)
	key := model.NewCacheKey(model.ExerciseTypeVerbTenses, "A1", nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p.SetCachedExercise(ctx, key, sampleExercise(string(rune('A'+i)), time.Now()))
		}(i)
	}
	wg.Wait()
	assert.Len(t, p.GetCachedExercises(ctx, key), 20)
}

func TestRedisProvider_SkipsEntriesPastRetention(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestRedisProvider(t)
	key := model.NewCacheKey(model.ExerciseTypeVerbTenses, "A1", nil)

	p.SetCachedExercise(ctx, key, sampleExercise("stale", time.Now().Add(-8*24*time.Hour)))
	p.SetCachedExercise(ctx, key, sampleExercise("fresh", time.Now()))

	assert.Equal(t, []string{"fresh"}, ids(p.GetCachedExercises(ctx, key)))
}

func TestRedisProvider_Solutions(t *testing.T) {
	ctx := context.Background()
	p, mr := newTestRedisProvider(t)

	p.SetSolutions(ctx, []model.Solution{
		{QuestionID: "q1", CorrectAnswers: []string{"želim"}},
		{QuestionID: "q2", CorrectAnswers: []string{"kuća", "kuće"}, Explanation: "genitiv"},
	})

	s, ok := p.GetSolution(ctx, "q2")
	require.True(t, ok)
	assert.Equal(t, []string{"kuća", "kuće"}, s.CorrectAnswers)
	assert.Equal(t, time.Hour, mr.TTL("solution:q1"))

	mr.FastForward(time.Hour + time.Second)
	_, ok = p.GetSolution(ctx, "q1")
	assert.False(t, ok)
}

func TestRedisProvider_FailsOpen(t *testing.T) {
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	p := NewRedisProvider(client, 7*24*time.Hour, time.Hour, testLogger())
	defer p.Close()
	key := model.NewCacheKey(model.ExerciseTypeVerbTenses, "A1", nil)

	assert.NotPanics(t, func() {
		p.SetCachedExercise(ctx, key, sampleExercise("g1", time.Now()))
		p.InvalidateExercise(ctx, key, "g1")
		p.InvalidateAllExercises(ctx, key)
		p.SetSolutions(ctx, []model.Solution{{QuestionID: "q1", CorrectAnswers: []string{"a"}}})
	})
	got := p.GetCachedExercises(ctx, key)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	_, ok := p.GetSolution(ctx, "q1")
	assert.False(t, ok)
	assert.Zero(t, p.Cleanup(ctx))
}

// --- Test NewProvider ---
func TestNewProvider(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	tests := []struct {
		name     string
		cfg      config.StorageConfig
		wantType Provider
		wantErr  error
	}{
		{
			name:     "in-memory backend",
			cfg:      config.StorageConfig{Backend: config.StorageInMemory, ExerciseTTL: time.Hour, SolutionTTL: time.Hour},
			wantType: &MemoryProvider{},
		},
		{
			name:     "remote backend",
			cfg:      config.StorageConfig{Backend: config.StorageRemoteKV, RedisURL: "redis://" + mr.Addr(), ExerciseTTL: time.Hour, SolutionTTL: time.Hour},
			wantType: &RedisProvider{},
		},
		{
			name:    "remote backend without url",
			cfg:     config.StorageConfig{Backend: config.StorageRemoteKV},
			wantErr: model.ErrConfiguration,
		},
		{
			name:    "unparsable url",
			cfg:     config.StorageConfig{Backend: config.StorageRemoteKV, RedisURL: "http://example.com"},
			wantErr: model.ErrConfiguration,
		},
		{
			name:    "unknown backend",
			cfg:     config.StorageConfig{Backend: "memcached"},
			wantErr: model.ErrConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(ctx, tt.cfg, testLogger())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, p)
			require.NoError(t, p.Close())
		})
	}
}
