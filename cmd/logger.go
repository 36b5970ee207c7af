// cmd/logger.go
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"vjezbajmo/internal/config"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

// setup loads configuration and installs the application logger as slog's default.
func setup(cmd *cobra.Command) (*slog.Logger, error) {
	configDir, _ := cmd.Flags().GetString("config")
	if err := config.LoadConfig(configDir); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logLevel := new(slog.LevelVar)
	switch strings.ToLower(config.Cfg.Log.Level) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info", "":
		logLevel.Set(slog.LevelInfo)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
		slog.Warn("Unknown log level specified in config, defaulting to INFO", slog.String("level", config.Cfg.Log.Level))
	}

	var handler slog.Handler
	appEnv := os.Getenv("APP_ENV")
	if strings.ToLower(appEnv) == "dev" {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.RFC3339,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		})
	}
	logger := slog.New(handler).With(slog.String("app", config.AppName), slog.String("version", config.AppVersion))
	slog.SetDefault(logger)
	return logger, nil
}
