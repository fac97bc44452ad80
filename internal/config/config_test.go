package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://localhost/venuebook
provider:
  jwt_secret: test-secret
`)
	t.Setenv("VENUEBOOK_CONFIG", path)
	t.Setenv("DATABASE_URL", "")

	cfg := LoadConfig()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "local", cfg.Provider.Mode)
	assert.Equal(t, 10*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.Verification.CodeTTL)
	assert.Equal(t, time.Hour, cfg.Verification.ResetTokenTTL)
	assert.Equal(t, 60*time.Second, cfg.Verification.ResendCooldown)
	assert.Equal(t, 5, cfg.Verification.AlertAttempts)
	assert.Equal(t, "postgres://localhost/venuebook", cfg.Database.DSN)
}

func TestLoadConfigExplicitValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
provider:
  mode: http
  base_url: https://auth.example.com
  timeout: 3s
verification:
  code_ttl: 5m
  resend_cooldown: 30s
  alert_attempts: 3
`)
	t.Setenv("VENUEBOOK_CONFIG", path)
	t.Setenv("DATABASE_URL", "")

	cfg := LoadConfig()
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "http", cfg.Provider.Mode)
	assert.Equal(t, 3*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Verification.CodeTTL)
	assert.Equal(t, 30*time.Second, cfg.Verification.ResendCooldown)
	assert.Equal(t, 3, cfg.Verification.AlertAttempts)
}

func TestLoadConfigDatabaseURLOverride(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://localhost/from-file
`)
	t.Setenv("VENUEBOOK_CONFIG", path)
	t.Setenv("DATABASE_URL", "postgres://localhost/from-env")

	cfg := LoadConfig()
	assert.Equal(t, "postgres://localhost/from-env", cfg.Database.DSN)
}
