package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, "file://migrations", cfg.MigrationsPath)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 24*time.Hour, cfg.SessionLifetime)
	assert.Equal(t, 8, cfg.EnrichConcurrency)
	assert.Equal(t, bracket.ByesTrailing, cfg.ByePolicy)
	assert.Empty(t, cfg.CORSOrigins, "Only same origin requests by default")
	assert.Equal(t, time.Hour, cfg.Logos.URLLifetime)
	assert.Empty(t, cfg.Logos.Bucket)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envFrom(map[string]string{
		"DB_DRIVER":          "postgres",
		"DATABASE_URL":       "postgres://localhost/brackets?sslmode=disable",
		"PORT":               "9090",
		"LOG_LEVEL":          "debug",
		"SESSION_LIFETIME":   "30m",
		"ENRICH_CONCURRENCY": "2",
		"BYE_POLICY":         "spread",
		"CORS_ORIGINS":       "https://a.example, https://b.example",
		"LOGO_BUCKET":        "logos",
	}))
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "postgres://localhost/brackets?sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 30*time.Minute, cfg.SessionLifetime)
	assert.Equal(t, 2, cfg.EnrichConcurrency)
	assert.Equal(t, bracket.ByesSpread, cfg.ByePolicy)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "logos", cfg.Logos.Bucket)
}

func TestFromEnv_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"DB_DRIVER": "mysql"}},
		{"port not a number", map[string]string{"PORT": "http"}},
		{"port out of range", map[string]string{"PORT": "70000"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}},
		{"bad session lifetime", map[string]string{"SESSION_LIFETIME": "forever"}},
		{"zero concurrency", map[string]string{"ENRICH_CONCURRENCY": "0"}},
		{"unknown bye policy", map[string]string{"BYE_POLICY": "ranked"}},
		{"negative rate", map[string]string{"RATE_LIMIT_RPS": "-1"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromEnv(envFrom(tc.env))
			assert.Error(t, err)
		})
	}
}
