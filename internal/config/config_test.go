package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_USER", "intake")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "applications")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.VerificationTTL)
	assert.Equal(t, int64(5*1024*1024), cfg.MaxResumeBytes)
	assert.Equal(t, 10*time.Second, cfg.SubmitTimeout)
	assert.False(t, cfg.ExposeVerificationCode, "code leakage must be opt-in")
	assert.False(t, cfg.RequireVerifiedEmail)
	assert.True(t, cfg.DBMigrate)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
}

func TestLoadReportsEveryMissingVariable(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("APP_PORT", "")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_NAME", "")

	_, err := Load()
	require.Error(t, err)
	for _, key := range []string{"APP_ENV", "APP_PORT", "DB_USER", "DB_HOST", "DB_PORT", "DB_NAME"} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestLoadRejectsUnsafeCombinations(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("EXPOSE_VERIFICATION_CODE", "true")
	t.Setenv("REQUIRE_VERIFIED_EMAIL", "true")
	t.Setenv("LOG_LEVEL", "chatty")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EXPOSE_VERIFICATION_CODE")
	assert.Contains(t, err.Error(), "VERIFICATION_TOKEN_SECRET")
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func TestLoadRejectsOutOfRangeValues(t *testing.T) {
	cases := map[string]struct {
		key, value, want string
	}{
		"zero sweep":       {"VERIFICATION_SWEEP_INTERVAL", "0s", "VERIFICATION_SWEEP_INTERVAL"},
		"negative sweep":   {"VERIFICATION_SWEEP_INTERVAL", "-1m", "VERIFICATION_SWEEP_INTERVAL"},
		"cost too high":    {"BCRYPT_COST", "40", "BCRYPT_COST"},
		"cost too low":     {"BCRYPT_COST", "2", "BCRYPT_COST"},
		"zero token ttl":   {"VERIFICATION_TOKEN_TTL", "0s", "VERIFICATION_TOKEN_TTL"},
		"negative timeout": {"SUBMIT_TIMEOUT", "-5s", "SUBMIT_TIMEOUT"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadReportsUnparseableValues(t *testing.T) {
	setRequired(t)
	t.Setenv("SUBMIT_TIMEOUT", "10")
	t.Setenv("MAX_RESUME_BYTES", "5MB")
	t.Setenv("EVENTS_ENABLED", "maybe")

	_, err := Load()
	require.Error(t, err)
	for _, key := range []string{"SUBMIT_TIMEOUT", "MAX_RESUME_BYTES", "EVENTS_ENABLED"} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("VERIFICATION_TTL", "5m")
	t.Setenv("CORS_ORIGINS", "https://apply.example.org, http://localhost:3000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RABBITMQ_URL", "amqp://broker:5672/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.VerificationTTL)
	assert.Equal(t, []string{"https://apply.example.org", "http://localhost:3000"}, cfg.CORSOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "amqp://broker:5672/", cfg.RabbitMQURL)
}

func TestRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "10s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 50*time.Second, cfg.TTL)
}

func TestCacheConfigMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	cfg := LoadCacheConfig()
	assert.True(t, cfg.Methods["GET"])
	assert.True(t, cfg.Methods["HEAD"])
	assert.False(t, cfg.Methods["POST"])
}
