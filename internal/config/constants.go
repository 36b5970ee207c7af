// internal/config/constants.go
package config

import "time"

const (
	AppName    = "vjezbajmo"
	AppVersion = "1.0.0"
)

// Default settings.
const (
	DefaultServerPort          = ":8080"
	DefaultLogLevel            = "info"
	DefaultDatabaseDSN         = "file:vjezbajmo.db?_busy_timeout=5000"
	DefaultLocalStoreDSN       = "file:vjezbajmo-local.db?_busy_timeout=5000"
	DefaultExerciseTTL         = 7 * 24 * time.Hour
	DefaultSolutionTTL         = time.Hour
	DefaultCleanupInterval     = time.Hour
	DefaultProgressRetention   = 30 * 24 * time.Hour
	DefaultGenerationModel     = "gpt-4o-mini"
	DefaultGenerationTimeout   = 60 * time.Second
	DefaultGenerationMaxTokens = 2048
)

// Cache invalidation policies applied when an exercise served from the shared
// pool is completed.
const (
	InvalidationPerUser = "per_user"
	InvalidationEager   = "eager"
)
