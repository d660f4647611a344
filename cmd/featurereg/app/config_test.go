package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/featurereg/internal/store"
	"github.com/agentstation/featurereg/pkg/errors"
)

// isolate points HOME and the working directory at an empty temp dir so no
// developer config or .env file leaks into the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("LOG_LEVEL", "")
	t.Chdir(dir)
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, store.DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, filepath.Join(home, ".featurereg", "features.db"), cfg.Store.DSN)
	assert.Equal(t, 10, cfg.Actions.ConfirmThreshold)
	assert.Equal(t, 10, cfg.Analysis.BatchThreshold)
	assert.Equal(t, 15*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "auto", cfg.LogFormat)
	assert.Equal(t, "stderr", cfg.LogOutput)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoadConfigFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "featurereg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  driver: memory
registry_path: /etc/featurereg/registry.yaml
analysis:
  batch_threshold: 25
  prefixes: [hr_, legacy_]
actions:
  default_reviewer: ops
server:
  port: 9000
  cache:
    ttl: 1m
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, store.DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "/etc/featurereg/registry.yaml", cfg.RegistryPath)
	assert.Equal(t, 25, cfg.Analysis.BatchThreshold)
	assert.Equal(t, []string{"hr_", "legacy_"}, cfg.Analysis.Prefixes)
	assert.Equal(t, "ops", cfg.Actions.DefaultReviewer)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, time.Minute, cfg.Server.Cache.TTL)
	assert.Equal(t, 4, cfg.Actions.Concurrency, "unset keys keep defaults")
}

func TestLoadConfigDiscoversHomeFile(t *testing.T) {
	home := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, ".featurereg.yaml"),
		[]byte("server:\n  port: 7000\n"), 0o600))

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestLoadConfigEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("FEATUREREG_STORE_DRIVER", "postgres")
	t.Setenv("FEATUREREG_STORE_DSN", "postgres://localhost/hr")
	t.Setenv("FEATUREREG_SERVER_PORT", "8181")
	t.Setenv("FEATUREREG_REFRESH_INTERVAL", "90s")
	t.Setenv("FEATUREREG_VERBOSE", "true")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, store.DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/hr", cfg.Store.DSN)
	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.RefreshInterval)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfigDotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("FEATUREREG_ACTIONS_DEFAULT_REVIEWER=dotenv\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("FEATUREREG_ACTIONS_DEFAULT_REVIEWER") })

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "dotenv", cfg.Actions.DefaultReviewer)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := isolate(t)

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err, "an explicit file must exist")

	t.Setenv("FEATUREREG_STORE_DRIVER", "mongo")
	_, err = LoadConfig("")
	require.Error(t, err)
	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
	assert.True(t, errors.IsValidationError(err))
}

func TestUpdateFromFlags(t *testing.T) {
	cfg := &Config{Format: "yaml", LogLevel: "warn"}

	cfg.UpdateFromFlags(true, false, true, "", "")
	assert.True(t, cfg.Verbose)
	assert.True(t, cfg.NoColor)
	assert.Equal(t, "yaml", cfg.Format)
	assert.Equal(t, "warn", cfg.LogLevel)

	cfg.UpdateFromFlags(false, false, false, "json", "debug")
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Verbose, "flags only switch booleans on")
}

func TestConfigValidateRegistry(t *testing.T) {
	isolate(t)
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	cfg.RegistryPath = "registry.yaml"
	cfg.RegistryURL = "https://console.example.com/registry.yaml"
	assert.Error(t, cfg.Validate())

	cfg.RegistryPath = ""
	cfg.RegistryAuth = "kerberos"
	assert.True(t, errors.IsValidationError(cfg.Validate()))

	cfg.RegistryAuth = "query:token"
	assert.NoError(t, cfg.Validate())
}
