package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "~/.config/chronicle-banner", cfg.Storage.Path)
	assert.Equal(t, "visits.db", cfg.Storage.SQLiteFile)
	assert.Equal(t, "wal", cfg.Storage.SQLiteJournalMode)
	assert.Equal(t, "visits.json", cfg.Storage.JSONFile)
	assert.Equal(t, "localhost:6379", cfg.Storage.Redis.Addr)
	assert.Empty(t, cfg.Endpoint.BaseURL)
	assert.Equal(t, 0, cfg.Endpoint.TimeoutSeconds)
	assert.Equal(t, time.Duration(0), cfg.Timeout(), "no timeout by default")
	assert.Equal(t, "chronicle-notification-banner", cfg.Banner.ClassName)
	assert.Equal(t, []string{".table-wrapper", `div[role="main"]`, "#main-content"}, cfg.Banner.Containers)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.NoError(t, cfg.Validate())
}

func TestDefaultExcludedTablesOnlyChronicleLogs(t *testing.T) {
	assert.Equal(t, []string{"_chronicle_*"}, DefaultExcludedTables())
}

func TestLoadValidYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yamlContent := `
storage:
  backend: "file"
  json_file: "seen.json"
endpoint:
  base_url: "https://datasette.example.com/fixtures"
  timeout_seconds: 5
logging:
  level: "debug"
`
	err := os.WriteFile(cfgPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	// Overridden values
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, "seen.json", cfg.Storage.JSONFile)
	assert.Equal(t, "https://datasette.example.com/fixtures", cfg.Endpoint.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout())
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Non-overridden values remain defaults
	assert.Equal(t, "visits.db", cfg.Storage.SQLiteFile)
	assert.Equal(t, "chronicle-notification-banner", cfg.Banner.ClassName)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadInvalidYAMLReturnsError(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	err := os.WriteFile(cfgPath, []byte(":::not valid yaml{{{"), 0644)
	require.NoError(t, err)

	_, err = Load(cfgPath)
	assert.Error(t, err)
}

func TestLoadInvalidBackendReturnsError(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	require.NoError(t, os.WriteFile(cfgPath, []byte("storage:\n  backend: localstorage\n"), 0644))

	_, err := Load(cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid storage backend")
}

func TestLoadNonExistentFileReturnsError(t *testing.T) {
	_, err := Load("/tmp/nonexistent_path_12345/config.yaml")
	assert.Error(t, err)
}

func TestLoadOrCreateCreatesDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sub", "deep", "config.yaml")

	cfg, err := LoadOrCreateAt(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)

	// File should now exist on disk
	_, statErr := os.Stat(cfgPath)
	assert.NoError(t, statErr)

	// File should be valid YAML loadable again
	cfg2, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, cfg.Banner.Containers, cfg2.Banner.Containers)
	assert.Equal(t, cfg.Tracking.ExcludeTables, cfg2.Tracking.ExcludeTables)
}

func TestLoadOrCreateLoadsExistingFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yamlContent := `
banner:
  class_name: "changes-banner"
`
	err := os.WriteFile(cfgPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	cfg, err := LoadOrCreateAt(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "changes-banner", cfg.Banner.ClassName)
	// Other fields remain defaults
	assert.Len(t, cfg.Banner.Containers, 3)
}

func TestLoadPartialYAMLMergesWithDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yamlContent := `
storage:
  redis:
    addr: "cache.internal:6380"
`
	err := os.WriteFile(cfgPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "cache.internal:6380", cfg.Storage.Redis.Addr)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "visits.db", cfg.Storage.SQLiteFile)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("storage:\n  backend: file\n"), 0644))

	t.Setenv("CHRONICLE_STORAGE_BACKEND", "redis")
	t.Setenv("CHRONICLE_REDIS_ADDR", "10.0.0.5:6379")
	t.Setenv("CHRONICLE_BANNER_CONTAINERS", ".rows;#content")
	t.Setenv("CHRONICLE_EXCLUDE_TABLES", "audit_*,tmp_*")

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Storage.Backend)
	assert.Equal(t, "10.0.0.5:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, []string{".rows", "#content"}, cfg.Banner.Containers)
	assert.Equal(t, []string{"audit_*", "tmp_*"}, cfg.Tracking.ExcludeTables)
	// Unset variables leave file and default values alone
	assert.Equal(t, "visits.db", cfg.Storage.SQLiteFile)
}

func TestResolvedPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Path = "/var/lib/chronicle"

	sqlitePath, err := cfg.SQLitePath()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/chronicle/visits.db", sqlitePath)

	jsonPath, err := cfg.JSONPath()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/chronicle/visits.json", jsonPath)

	cfg.Storage.Path = "~/data"
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	sqlitePath, err = cfg.SQLitePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "data", "visits.db"), sqlitePath)
}
