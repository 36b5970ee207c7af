// internal/config/config.go
package config

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type DatabaseConfig struct {
	// URL of the account progress database. postgres:// URLs use the
	// postgres driver, anything else is treated as a sqlite DSN.
	URL string `mapstructure:"url"`
}

type LocalStoreConfig struct {
	// DSN of the device-local sqlite store backing anonymous progress.
	DSN string `mapstructure:"dsn"`
}

type CacheConfig struct {
	Backend         string        `mapstructure:"backend"` // "", "in_memory" or "remote_kv"
	RedisURL        string        `mapstructure:"redis_url"`
	ExerciseTTL     time.Duration `mapstructure:"exercise_ttl"`
	SolutionTTL     time.Duration `mapstructure:"solution_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	Invalidation    string        `mapstructure:"invalidation"` // "per_user" or "eager"
}

type ProgressConfig struct {
	Retention time.Duration `mapstructure:"retention"`
}

type GenerationConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Model     string        `mapstructure:"model"`
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxTokens int           `mapstructure:"max_tokens"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Database   DatabaseConfig   `mapstructure:"database"`
	LocalStore LocalStoreConfig `mapstructure:"local_store"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Progress   ProgressConfig   `mapstructure:"progress"`
	Generation GenerationConfig `mapstructure:"generation"`
	Auth       AuthConfig       `mapstructure:"auth"`
	CORS       CORSConfig       `mapstructure:"cors"`
}

var Cfg Config

// LoadConfig reads config.yaml from path (or the working directory), overlays
// environment variables and fills defaults. A .env file, if present, is loaded
// into the environment first.
func LoadConfig(path string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.AddConfigPath(".")

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("database.url", "APP_DATABASE_URL", "DATABASE_URL")
	v.BindEnv("cache.redis_url", "APP_CACHE_REDIS_URL", "REDIS_URL")
	v.BindEnv("generation.api_key", "APP_GENERATION_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("auth.jwt_secret", "APP_AUTH_JWT_SECRET", "JWT_SECRET")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			log.Println("Warning: Config file not found. Using defaults and environment variables.")
		} else {
			log.Printf("Error reading config file: %s\n", err)
			return err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Printf("Error unmarshalling config: %s\n", err)
		return err
	}
	applyFallbacks(&cfg)
	Cfg = cfg

	log.Println("Config loaded successfully")
	log.Printf("Server Port: %s", Cfg.Server.Port)
	log.Printf("Cache Backend: %s", Cfg.Storage().Backend)
	log.Printf("Generation Enabled: %t", Cfg.Generation.APIKey != "")

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("database.url", DefaultDatabaseDSN)
	v.SetDefault("local_store.dsn", DefaultLocalStoreDSN)
	v.SetDefault("cache.backend", "")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("generation.api_key", "")
	v.SetDefault("generation.base_url", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("cache.exercise_ttl", DefaultExerciseTTL)
	v.SetDefault("cache.solution_ttl", DefaultSolutionTTL)
	v.SetDefault("cache.cleanup_interval", DefaultCleanupInterval)
	v.SetDefault("cache.invalidation", InvalidationPerUser)
	v.SetDefault("progress.retention", DefaultProgressRetention)
	v.SetDefault("generation.model", DefaultGenerationModel)
	v.SetDefault("generation.timeout", DefaultGenerationTimeout)
	v.SetDefault("generation.max_tokens", DefaultGenerationMaxTokens)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Authorization", "Content-Type", "X-Device-ID"})
	v.SetDefault("cors.max_age", 300)
}

// applyFallbacks repairs values that are set but unusable.
func applyFallbacks(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Cache.ExerciseTTL <= 0 {
		log.Println("Exercise TTL not set or invalid, using default")
		cfg.Cache.ExerciseTTL = DefaultExerciseTTL
	}
	if cfg.Cache.SolutionTTL <= 0 {
		cfg.Cache.SolutionTTL = DefaultSolutionTTL
	}
	if cfg.Cache.CleanupInterval <= 0 {
		cfg.Cache.CleanupInterval = DefaultCleanupInterval
	}
	switch cfg.Cache.Invalidation {
	case InvalidationPerUser, InvalidationEager:
	default:
		log.Printf("Unknown cache invalidation policy %q, using %q", cfg.Cache.Invalidation, InvalidationPerUser)
		cfg.Cache.Invalidation = InvalidationPerUser
	}
	if cfg.Progress.Retention <= 0 {
		cfg.Progress.Retention = DefaultProgressRetention
	}
	if cfg.Generation.Timeout <= 0 {
		cfg.Generation.Timeout = DefaultGenerationTimeout
	}
	if cfg.Generation.MaxTokens <= 0 {
		cfg.Generation.MaxTokens = DefaultGenerationMaxTokens
	}
	if cfg.Auth.JWTSecret == "" {
		log.Println("Warning: JWT secret is not set. Only anonymous device identities will be accepted.")
	}
}
