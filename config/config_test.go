package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SCRAPEKIT_CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, MaxFetchTimeout, cfg.Fetcher.Timeout)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "#searchInput", cfg.Browser.SearchSelector)
	assert.Equal(t, 100, cfg.History.MaxPerUser)
	assert.Empty(t, cfg.Auth.Keys)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scrapekit.yaml")
	data := []byte(`
server:
  port: 9090
fetcher:
  timeout: 3s
browser:
  language: de
  element_wait: 7s
auth:
  keys:
    k1: alice
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	t.Setenv("SCRAPEKIT_CONFIG_FILE", path)
	t.Setenv("SCRAPEKIT_PORT", "9191")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port, "env overrides file")
	assert.Equal(t, 3*time.Second, cfg.Fetcher.Timeout)
	assert.Equal(t, "de", cfg.Browser.Language)
	assert.Equal(t, 7*time.Second, cfg.Browser.ElementWait)
	assert.Equal(t, "#searchInput", cfg.Browser.SearchSelector, "unset file keys keep defaults")
	assert.Equal(t, map[string]string{"k1": "alice"}, cfg.Auth.Keys)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("SCRAPEKIT_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_ClampsFetchTimeout(t *testing.T) {
	t.Setenv("SCRAPEKIT_CONFIG_FILE", "")
	t.Setenv("SCRAPEKIT_FETCH_TIMEOUT", "45s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, MaxFetchTimeout, cfg.Fetcher.Timeout)
}

func TestEnvPairsOr(t *testing.T) {
	t.Setenv("SCRAPEKIT_API_KEYS", "k1:alice, k2:bob,broken,:nobody,k3:")

	got := envPairsOr("SCRAPEKIT_API_KEYS", nil)
	assert.Equal(t, map[string]string{"k1": "alice", "k2": "bob"}, got)
}
