package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8000, cfg.HTTPPort)
	assert.Equal(t, "HS256", cfg.JWTAlgorithm)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 168*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("HTTP_PORT", "99999")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestLoad_UnsupportedAlgorithm(t *testing.T) {
	t.Setenv("JWT_ALGORITHM", "RS256")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported JWT algorithm")
}

func TestLoad_ProductionRequiresExplicitSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET must be explicitly set")
}

func TestLoad_ProductionRejectsShortSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "too-short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 characters")
}

func TestLoad_ProductionAcceptsStrongSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "an-explicitly-configured-secret-of-sufficient-length")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
}

func TestPostgresConfig(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_DB", "contacts")

	cfg, err := Load()
	require.NoError(t, err)

	pg := cfg.Postgres()
	assert.Equal(t, "db.internal", pg.Host)
	assert.Equal(t, "contacts", pg.DBName)
	assert.Equal(t, 5432, pg.Port)
}

func TestRedisConfig(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("REDIS_DB", "2")

	cfg, err := Load()
	require.NoError(t, err)

	rd := cfg.Redis()
	assert.Equal(t, "cache.internal", rd.Host)
	assert.Equal(t, 2, rd.DB)
}
