package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"API_PORT", "API_ENVIRONMENT", "STORAGE_TYPE", "REDIS_URL", "LLM_TIMEOUT", "STALE_REPORT_AFTER", "SWEEP_SCHEDULE", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.APIPort)
	assert.Equal(t, "local", cfg.StorageType)
	assert.Empty(t, cfg.RedisURL)
	assert.Zero(t, cfg.LLMTimeout)
	assert.Equal(t, 30*time.Minute, cfg.StaleReportAfter)
	assert.Equal(t, "*/10 * * * *", cfg.SweepSchedule)
	assert.Nil(t, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("API_ENVIRONMENT", "production")
	t.Setenv("STORAGE_TYPE", "s3")
	t.Setenv("LLM_TIMEOUT", "45s")
	t.Setenv("RATE_LIMIT_BURST", "25")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.greenledger.io, ,https://admin.greenledger.io")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "production", cfg.SentryEnvironment)
	assert.Equal(t, "s3", cfg.StorageType)
	assert.Equal(t, 45*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 25, cfg.RateLimitBurst)
	assert.Equal(t, []string{"https://app.greenledger.io", "https://admin.greenledger.io"}, cfg.CORSAllowedOrigins)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_REQUESTS_PER_MINUTE", "lots")
	t.Setenv("STALE_REPORT_AFTER", "soon")

	cfg := Load()

	assert.Equal(t, 60, cfg.RateLimitRequestsPerMinute)
	assert.Equal(t, 30*time.Minute, cfg.StaleReportAfter)
}
