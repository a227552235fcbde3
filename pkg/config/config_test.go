package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := GetDefaultConfig()
	cfg.Backend.Backends = []NamedBackendConfig{
		{Name: "main", Suffix: "dc=example,dc=com", DataDir: "/tmp/ldapd/main"},
	}
	return cfg
}

func TestApplyDefaultsFillsZeroValues(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, ":389", cfg.Server.ListenAddr)
	assert.Equal(t, 100, cfg.Sync.MaxSessions)
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Level: "debug"},
		Server:  ServerConfig{ListenAddr: ":1389"},
		Sync:    SyncConfig{MaxSessions: 5},
	}
	ApplyDefaults(cfg)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, ":1389", cfg.Server.ListenAddr)
	assert.Equal(t, 5, cfg.Sync.MaxSessions)
}

func TestValidateRequiresAtLeastOneBackend(t *testing.T) {
	cfg := GetDefaultConfig()
	err := Validate(cfg)
	require.Error(t, err)
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	require.NoError(t, Validate(validConfig()))
}

func TestSaveConfigRoundTrip(t *testing.T) {
	cfg := validConfig()
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Server.ListenAddr, loaded.Server.ListenAddr)
	assert.Equal(t, cfg.Backend.Backends, loaded.Backend.Backends)
}

func TestLoadFallsBackToDefaultsWhenFileMissingButPathEmpty(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	_, err := Load("")
	// No backends configured by default, so validation fails — this is
	// the expected "you must configure a backend" signal, not a loader bug.
	require.Error(t, err)
}
