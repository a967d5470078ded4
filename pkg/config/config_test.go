package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "log:\n  level: debug\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.Address)
	assert.Equal(t, DriverMySQL, cfg.DB.Driver)
	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, "root", cfg.DB.User)
	assert.Equal(t, "facturas_db", cfg.DB.Name)
	assert.Equal(t, 3306, cfg.DB.Port)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.Equal(t, 15*time.Second, cfg.Scraper.Timeout)
	assert.Equal(t, 0, cfg.Scraper.Retries)
	assert.Equal(t, 5<<20, cfg.Scraper.MaxBodyBytes)
	assert.False(t, cfg.Auth.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_LegacyEnvironment(t *testing.T) {
	path := writeConfig(t, "db:\n  driver: postgres\n")

	t.Setenv("PORT", "8080")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USER", "facturas")
	t.Setenv("DB_PASSWORD", "secreto")
	t.Setenv("DB_NAME", "facturas_prod")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, DriverPostgres, cfg.DB.Driver)
	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, "facturas", cfg.DB.User)
	assert.Equal(t, "secreto", cfg.DB.Password)
	assert.Equal(t, "facturas_prod", cfg.DB.Name)
	assert.Equal(t, 5432, cfg.DB.Port)
}

func TestLoad_PrefixedEnvironment(t *testing.T) {
	path := writeConfig(t, "")

	t.Setenv("DATABASE_URL", "mysql://u:p@db:3307/facturas")
	t.Setenv("FACTURAS_SCRAPER_TIMEOUT", "3s")
	t.Setenv("FACTURAS_AUTH_ENABLED", "true")
	t.Setenv("FACTURAS_AUTH_JWT_SECRET", "s3cr3t")
	t.Setenv("FACTURAS_AUTH_PASSWORD_HASH", "$2a$10$hash")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mysql://u:p@db:3307/facturas", cfg.DB.URL)
	assert.Equal(t, 3*time.Second, cfg.Scraper.Timeout)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, "s3cr3t", cfg.Auth.JWTSecret)
	assert.Equal(t, "$2a$10$hash", cfg.Auth.PasswordHash)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.DB.Driver = "oracle" },
			wantErr: `unsupported db driver "oracle"`,
		},
		{
			name: "auth without secret",
			mutate: func(c *Config) {
				c.Auth.Enabled = true
				c.Auth.PasswordHash = "hash"
			},
			wantErr: "auth.jwt_secret is required",
		},
		{
			name: "auth without password hash",
			mutate: func(c *Config) {
				c.Auth.Enabled = true
				c.Auth.JWTSecret = "secret"
			},
			wantErr: "auth.password_hash is required",
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.Scraper.Retries = -1 },
			wantErr: "scraper.retries must not be negative",
		},
		{
			name:    "negative body limit",
			mutate:  func(c *Config) { c.Scraper.MaxBodyBytes = -1 },
			wantErr: "scraper.max_body_bytes must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{DB: DBConfig{Driver: DriverSQLite}}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}
