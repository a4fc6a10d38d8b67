package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MemoryStorageDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE", "memory")
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.App.Storage)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 24*time.Hour, cfg.Promotion.Interval)
	assert.True(t, cfg.Promotion.RunAtStart)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_PostgresRequiresURL(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE", "postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL is required")
}

func TestLoad_BuildsURLFromParts(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE", "postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "school")
	t.Setenv("DB_PASSWORD", "pw")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://school:pw@db:5432/school?sslmode=disable", cfg.Database.URL)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{
		App:       AppConfig{Storage: "sqlite"},
		HTTP:      HTTPConfig{Port: 0},
		Auth:      AuthConfig{BcryptCost: 2},
		Promotion: PromotionConfig{Enabled: true},
	}

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "JWT_SECRET is required")
	assert.Contains(t, msg, "STORAGE must be postgres or memory")
	assert.Contains(t, msg, "PORT must be 1-65535")
	assert.Contains(t, msg, "PROMOTION_JOB_INTERVAL must be positive")
	assert.Contains(t, msg, "BCRYPT_COST must be 4-31")
}

func TestEnvReader_List(t *testing.T) {
	t.Setenv("ORIGINS", " http://a.test , ,http://b.test")
	e := &envReader{}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, e.list("ORIGINS", nil))
	assert.Equal(t, []string{"x"}, e.list("ORIGINS_UNSET", []string{"x"}))
}

func TestLoad_ReportsMalformedValues(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE", "memory")
	t.Setenv("PORT", "eighty")
	t.Setenv("PROMOTION_JOB_INTERVAL", "daily")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `PORT: invalid value "eighty"`)
	assert.Contains(t, err.Error(), `PROMOTION_JOB_INTERVAL: invalid value "daily"`)
}

func TestLoad_EscapesDatabasePassword(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE", "postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "school")
	t.Setenv("DB_PASSWORD", "p@ss/word")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://school:p%40ss%2Fword@db:5432/school?sslmode=disable", cfg.Database.URL)
}
