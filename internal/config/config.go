package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver       string
	DatabaseURL    string
	MigrationsPath string
	Port           int
	LogLevel       slog.Level

	SessionLifetime   time.Duration
	EnrichConcurrency int
	ByePolicy         bracket.ByePolicy

	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigins    []string

	Logos LogoConfig
}

// LogoConfig controls how team logo references become URLs. A bucket enables
// presigned S3 URLs, otherwise keys are joined onto BaseURL.
type LogoConfig struct {
	BaseURL     string
	Bucket      string
	Region      string
	Endpoint    string
	AccessKeyID string
	SecretKey   string
	URLLifetime time.Duration
}

// Load reads the configuration from the environment, loading .env first when present
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}
	return FromEnv(os.Getenv)
}

func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		DBDriver:       get("DB_DRIVER", "sqlite3"),
		DatabaseURL:    get("DATABASE_URL", "op_bracket.db?_journal_mode=WAL"),
		MigrationsPath: get("MIGRATIONS_PATH", "file://migrations"),
		Logos: LogoConfig{
			BaseURL:     get("LOGO_BASE_URL", ""),
			Bucket:      get("LOGO_BUCKET", ""),
			Region:      get("S3_REGION", "auto"),
			Endpoint:    get("S3_ENDPOINT", ""),
			AccessKeyID: get("S3_ACCESS_KEY_ID", ""),
			SecretKey:   get("S3_SECRET_ACCESS_KEY", ""),
		},
	}

	if cfg.DBDriver != "sqlite3" && cfg.DBDriver != "postgres" {
		return nil, fmt.Errorf("DB_DRIVER must be sqlite3 or postgres, got %q", cfg.DBDriver)
	}

	var err error
	if cfg.Port, err = strconv.Atoi(get("PORT", "8080")); err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("PORT must be between 1 and 65535, got %d", cfg.Port)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(get("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL environment variable: %w", err)
	}

	if cfg.SessionLifetime, err = time.ParseDuration(get("SESSION_LIFETIME", "24h")); err != nil {
		return nil, fmt.Errorf("invalid SESSION_LIFETIME environment variable: %w", err)
	}
	if cfg.Logos.URLLifetime, err = time.ParseDuration(get("LOGO_URL_LIFETIME", "1h")); err != nil {
		return nil, fmt.Errorf("invalid LOGO_URL_LIFETIME environment variable: %w", err)
	}

	if cfg.EnrichConcurrency, err = strconv.Atoi(get("ENRICH_CONCURRENCY", "8")); err != nil || cfg.EnrichConcurrency < 1 {
		return nil, fmt.Errorf("ENRICH_CONCURRENCY must be a positive integer, got %q", getenv("ENRICH_CONCURRENCY"))
	}

	if cfg.ByePolicy, err = bracket.ParseByePolicy(get("BYE_POLICY", "")); err != nil {
		return nil, fmt.Errorf("invalid BYE_POLICY environment variable: %w", err)
	}

	if cfg.RateLimitRPS, err = strconv.ParseFloat(get("RATE_LIMIT_RPS", "1"), 64); err != nil || cfg.RateLimitRPS <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_RPS must be a positive number, got %q", getenv("RATE_LIMIT_RPS"))
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(get("RATE_LIMIT_BURST", "10")); err != nil || cfg.RateLimitBurst < 1 {
		return nil, fmt.Errorf("RATE_LIMIT_BURST must be a positive integer, got %q", getenv("RATE_LIMIT_BURST"))
	}

	for _, origin := range strings.Split(get("CORS_ORIGINS", ""), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	return cfg, nil
}
