package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.FlatFeedEnabled)
	assert.True(t, cfg.GiveawayFeedEnabled)
	assert.Equal(t, 60*time.Second, cfg.Timeout())
	assert.Equal(t, 5*time.Second, cfg.ShortTimeout())
	assert.Equal(t, 3, cfg.LoginAttempts)
	assert.Equal(t, "file", cfg.LedgerBackend)
	assert.Equal(t, filepath.Join("data", "browser"), cfg.BrowserDir)
	assert.Equal(t, filepath.Join("data", "steam.json"), cfg.LedgerPath())
	assert.True(t, cfg.Headless())
}

func TestLoadFromEnvFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "config.env")
	require.NoError(t, os.WriteFile(envFile, []byte("STEAM_USERNAME=filer\nTIMEOUT=30\nSHOW=1\n"), 0o600))

	t.Setenv("TIMEOUT", "90")
	t.Setenv("PASSWORD", "hunter2")
	t.Setenv("STEAM_JSON", "false")

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "filer", cfg.SteamUsername)
	assert.Equal(t, 90*time.Second, cfg.Timeout())
	assert.Equal(t, "hunter2", cfg.SteamPassword)
	assert.False(t, cfg.FlatFeedEnabled)
	assert.False(t, cfg.Headless())
}
