package config

import (
	"fmt"
	"strings"
	"time"

	"vjezbajmo/internal/model"
)

// StorageBackend selects the CacheProvider variant.
type StorageBackend string

const (
	StorageInMemory StorageBackend = "in_memory"
	StorageRemoteKV StorageBackend = "remote_kv"
)

// StorageConfig is resolved once at startup and handed to the cache factory.
type StorageConfig struct {
	Backend     StorageBackend
	RedisURL    string
	ExerciseTTL time.Duration
	SolutionTTL time.Duration
}

// Storage resolves the cache backend. An explicit cache.backend wins; otherwise
// a configured Redis URL selects the remote store and its absence selects the
// in-process fallback.
func (c Config) Storage() StorageConfig {
	sc := StorageConfig{
		RedisURL:    strings.TrimSpace(c.Cache.RedisURL),
		ExerciseTTL: c.Cache.ExerciseTTL,
		SolutionTTL: c.Cache.SolutionTTL,
	}
	switch strings.ToLower(strings.TrimSpace(c.Cache.Backend)) {
	case "memory", "in_memory":
		sc.Backend = StorageInMemory
	case "redis", "remote_kv":
		sc.Backend = StorageRemoteKV
	default:
		if sc.RedisURL != "" {
			sc.Backend = StorageRemoteKV
		} else {
			sc.Backend = StorageInMemory
		}
	}
	return sc
}

// Validate reports settings that cannot work together.
func (s StorageConfig) Validate() error {
	if s.Backend == StorageRemoteKV && s.RedisURL == "" {
		return fmt.Errorf("cache backend %q requires a redis url: %w", s.Backend, model.ErrConfiguration)
	}
	return nil
}
