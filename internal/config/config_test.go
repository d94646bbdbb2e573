package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "schedcal.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "-//University Schedule Converter//EN", cfg.ProductID)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedcal.yaml")

	cfg := DefaultConfig()
	cfg.PortalURL = "https://portal.example.edu/schedule"
	cfg.TermEnd = "2025-06-06"
	cfg.BasicAuth = &BasicAuthConfig{Username: "u", Password: "p"}
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://portal.example.edu/schedule", loaded.PortalURL)
	assert.Equal(t, "2025-06-06", loaded.TermEnd)
	require.NotNil(t, loaded.BasicAuth)
	assert.Equal(t, "u", loaded.BasicAuth.Username)
}

func TestNormalizeFillsDefaults(t *testing.T) {
	var cfg Config
	cfg.Normalize()

	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "0 6 * * *", cfg.RefreshCron)
	assert.Equal(t, 30, cfg.CaptureTimeoutSec)
	assert.Equal(t, "UTC", cfg.Google.Timezone)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SCHEDCAL_LISTEN", "0.0.0.0:9999")
	t.Setenv("SCHEDCAL_TERM_END", "2025-12-19")

	path := filepath.Join(t.TempDir(), "schedcal.yaml")
	require.NoError(t, Save(path, DefaultConfig()))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9999", cfg.Listen)
	assert.Equal(t, "2025-12-19", cfg.TermEnd)
}

func TestLoadEmptyPath(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}
