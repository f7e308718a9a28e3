package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "ad_reports", cfg.Database.Name)
	assert.Equal(t, "gpt-4o", cfg.Summarizer.Model)
	assert.Equal(t, 150, cfg.Summarizer.MaxTokens)
	assert.InDelta(t, 0.7, cfg.Summarizer.Temperature, 0.0001)
	assert.Equal(t, 24*time.Hour, cfg.Reports.SignedURLTTL)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.True(t, cfg.Scheduler.InitOnBoot)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ANALYTICS_TIMEOUT", "5s")
	t.Setenv("REPORTS_CACHE_ENABLED", "true")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.Analytics.Timeout)
	assert.True(t, cfg.Reports.CacheEnabled)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("bogus", time.Minute))
	assert.Equal(t, 90*time.Second, parseDuration("90s", time.Minute))
}
