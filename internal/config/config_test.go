package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fan_controller/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "data/fan_controller.db", cfg.DB.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 15*time.Second, cfg.IPMI.CommandTimeout)
	assert.Equal(t, 3, cfg.IPMI.MaxRetries)
	assert.Equal(t, 30, cfg.Retention.Days)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
port: "9100"
db:
  path: /var/lib/fanctl/history.db
log:
  level: debug
ipmi:
  command_timeout: 5s
  max_retries: 2
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), content, 0o600))
	t.Setenv("FANCTL_LOG_LEVEL", "warn")

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, "/var/lib/fanctl/history.db", cfg.DB.Path)
	assert.Equal(t, "warn", cfg.Log.Level, "env overrides file")
	assert.Equal(t, 5*time.Second, cfg.IPMI.CommandTimeout)
	assert.Equal(t, 2, cfg.IPMI.MaxRetries)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("ipmi:\n  max_retries: 0\n"), 0o600))

	_, err := config.Load(dir)
	assert.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("port: [unterminated"), 0o600))

	_, err := config.Load(dir)
	assert.Error(t, err)
}
