package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "DEBUG", "PORT", "DATABASE_URL", "SESSION_TTL", "RATELIMIT_ENABLED",
		"RATELIMIT_CONTACT_PER_MINUTE", "RATELIMIT_API_CONTACT_PER_MINUTE", "ADMIN_PASSWORD", "SESSION_COOKIE_SECURE", "TRUSTED_PROXY_COUNT"} {
		t.Setenv(key, "")
	}
	t.Setenv("MAIL_USERNAME", "")
	t.Setenv("MAIL_PASSWORD", "")
	t.Setenv("ADMIN_EMAIL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.App.Env)
	assert.True(t, cfg.App.Debug)
	assert.Equal(t, "5000", cfg.App.Port)
	assert.Zero(t, cfg.App.TrustedProxies)
	assert.Equal(t, "sqlite:///./instance/portfolio.db", cfg.Database.URL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.False(t, cfg.Auth.CookieSecure)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 5, cfg.RateLimit.ContactPerMinute)
	assert.Equal(t, 3, cfg.RateLimit.APIContactPerMinute)

	// Credentials and the operator address never have built-in values
	assert.Empty(t, cfg.Mail.Username)
	assert.Empty(t, cfg.Mail.Password)
	assert.Empty(t, cfg.Mail.OperatorAddress)
	assert.Empty(t, cfg.Auth.AdminPassword)
}

func TestLoadTestingPreset(t *testing.T) {
	t.Setenv("APP_ENV", "testing")
	t.Setenv("MAIL_SUPPRESS_SEND", "false")
	t.Setenv("RATELIMIT_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Mail.SuppressSend)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadProductionSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	t.Run("placeholder", func(t *testing.T) {
		t.Setenv("SECRET_KEY", "")
		_, err := Load()
		assert.ErrorContains(t, err, "SECRET_KEY")
	})

	t.Run("too short", func(t *testing.T) {
		t.Setenv("SECRET_KEY", "short")
		_, err := Load()
		assert.ErrorContains(t, err, "32 characters")
	})

	t.Run("valid", func(t *testing.T) {
		t.Setenv("SECRET_KEY", "0123456789abcdef0123456789abcdef")
		cfg, err := Load()
		require.NoError(t, err)
		assert.False(t, cfg.App.Debug)
		assert.True(t, cfg.Auth.CookieSecure)
		assert.True(t, cfg.IsProduction())
	})
}

func TestLoadRejectsUnknownEnv(t *testing.T) {
	t.Setenv("APP_ENV", "qa")
	_, err := Load()
	assert.ErrorContains(t, err, "APP_ENV")
}

func TestLoadMail(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("MAIL_USERNAME", "mailer@example.com")
	t.Setenv("MAIL_DEFAULT_SENDER", "")
	t.Setenv("MAIL_USE_SSL", "true")
	t.Setenv("MAIL_TIMEOUT", "45")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mailer@example.com", cfg.Mail.DefaultSender)
	assert.True(t, cfg.Mail.UseSSL)
	assert.False(t, cfg.Mail.UseTLS, "implicit TLS replaces STARTTLS")
	assert.Equal(t, 45*time.Second, cfg.Mail.Timeout)
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("X_DURATION", "90s")
	t.Setenv("X_BAD_INT", "abc")
	t.Setenv("X_SLICE", "a.example, b.example")

	assert.Equal(t, 90*time.Second, getEnvAsDuration("X_DURATION", time.Second))
	assert.Equal(t, 7, getEnvAsInt("X_BAD_INT", 7))
	assert.Equal(t, []string{"a.example", "b.example"}, getEnvAsSlice("X_SLICE", nil))
}

func TestDatabaseURLs(t *testing.T) {
	pg := DatabaseConfig{URL: "postgresql://user:pw@db:6543/site?sslmode=require"}
	assert.True(t, pg.IsPostgres())
	assert.Equal(t, "host=db port=6543 user=user dbname=site sslmode=require password=pw", pg.GetPostgresDSN())

	my := DatabaseConfig{URL: "mysql://user:pw@db:3306/site"}
	assert.True(t, my.IsMySQL())
	assert.Equal(t, "user:pw@tcp(db:3306)/site?parseTime=true&charset=utf8mb4&loc=UTC", my.GetMySQLDSN())

	lite := DatabaseConfig{URL: "sqlite:///./instance/portfolio.db"}
	assert.False(t, lite.IsPostgres())
	assert.Equal(t, "./instance/portfolio.db", lite.GetSQLitePath())
}
