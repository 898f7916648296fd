package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "BASE_URL", "STORAGE_TYPE", "SESSION_TTL", "SESSION_ANONYMOUS_TTL", "ALLOWED_ORIGINS", "COOKIE_SECURE", "GOOGLE_REDIRECT_URL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, StorageMemory, cfg.StorageType)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 30*time.Minute, cfg.AnonymousTTL)
	assert.Equal(t, time.Hour, cfg.ResetTokenTTL)
	assert.Equal(t, 6, cfg.PasswordMinLength)
	assert.False(t, cfg.CookieSecure)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Equal(t, "http://localhost:8080/reset-password", cfg.ResetURL())
	assert.Equal(t, "http://localhost:8080/auth/google/callback", cfg.Google().RedirectURL)
	assert.False(t, cfg.Google().Enabled())
	assert.False(t, cfg.SMTP().Enabled())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BASE_URL", "https://game.example/")
	t.Setenv("STORAGE_TYPE", "redis")
	t.Setenv("REDIS_URL", "redis://cache:6379")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("SMTP_HOST", "smtp.example")
	t.Setenv("SMTP_FROM", "noreply@game.example")
	t.Setenv("GOOGLE_REDIRECT_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "https://game.example", cfg.BaseURL)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, StorageRedis, cfg.StorageType)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.SMTP().Enabled())
	assert.Equal(t, "https://game.example/auth/google/callback", cfg.GoogleRedirectURL)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	t.Setenv("SESSION_TTL", "forever")
	t.Setenv("STORAGE_TYPE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
}

func TestLoad_StorageValidation(t *testing.T) {
	tests := []struct {
		name        string
		storageType string
		errContains string
	}{
		{"redis without url", "redis", "REDIS_URL"},
		{"mongo without uri", "mongo", "MONGO_URI"},
		{"unknown backend", "postgres", "unknown STORAGE_TYPE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STORAGE_TYPE", tt.storageType)
			t.Setenv("REDIS_URL", "")
			t.Setenv("MONGO_URI", "")

			_, err := Load()
			assert.ErrorContains(t, err, tt.errContains)
		})
	}
}
