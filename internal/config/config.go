package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	defaultPort         = "8080"
	defaultEnvironment  = "production"
	defaultLogLevel     = "info"
	defaultRPSLimit     = 10.0
	defaultRPSBurst     = 20
	defaultFetchTimeout = 10 * time.Second
)

// Config holds the application configuration
type Config struct {
	Port         string
	Environment  string
	LogLevel     string
	DBConfig     string
	RPSLimit     float64
	RPSBurst     int
	FetchTimeout time.Duration
	// UserAgent overrides the analyzer's browser-like default when set
	UserAgent string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables take precedence over it.
func Load(logger *zap.Logger) *Config {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", zap.Error(err))
	}

	cfg := &Config{
		Port:         getEnv("PORT", defaultPort),
		Environment:  getEnv("ENVIRONMENT", defaultEnvironment),
		LogLevel:     getEnv("LOG_LEVEL", defaultLogLevel),
		DBConfig:     os.Getenv("DB_CONFIG"),
		RPSLimit:     getFloat(logger, "RPS_LIMIT", defaultRPSLimit),
		RPSBurst:     getInt(logger, "RPS_BURST", defaultRPSBurst),
		FetchTimeout: getDuration(logger, "FETCH_TIMEOUT", defaultFetchTimeout),
		UserAgent:    os.Getenv("USER_AGENT"),
	}

	if cfg.DBConfig == "" {
		if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
			cfg.DBConfig = postgresConfigJSON(dsn)
		}
	}

	logger.Info("configuration loaded",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
		zap.Float64("rps_limit", cfg.RPSLimit),
		zap.Int("rps_burst", cfg.RPSBurst),
		zap.Duration("fetch_timeout", cfg.FetchTimeout),
		zap.Bool("db_configured", cfg.DBConfig != ""),
	)
	return cfg
}

func postgresConfigJSON(dsn string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"db_type":       "postgres",
		"extra_details": map[string]interface{}{"conn_str": dsn},
	})
	return string(b)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(logger *zap.Logger, key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		logger.Warn("invalid integer in environment, using default",
			zap.String("key", key), zap.String("value", v), zap.Int("default", fallback))
		return fallback
	}
	return n
}

func getFloat(logger *zap.Logger, key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		logger.Warn("invalid number in environment, using default",
			zap.String("key", key), zap.String("value", v), zap.Float64("default", fallback))
		return fallback
	}
	return f
}

func getDuration(logger *zap.Logger, key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		logger.Warn("invalid duration in environment, using default",
			zap.String("key", key), zap.String("value", v), zap.Duration("default", fallback))
		return fallback
	}
	return d
}
