package config

import (
	"strings"
	"time"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Backend mounts themselves are never defaulted; the operator must
//     configure at least one
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyMetricsDefaults(&cfg.Metrics)
	applyAdminDefaults(&cfg.Admin)
	applySyncDefaults(&cfg.Sync)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyServerDefaults sets listener defaults.
func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":389"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false (opt-in for metrics)
	if cfg.Enabled && cfg.Addr == "" {
		cfg.Addr = ":9090"
	}
}

// applyAdminDefaults sets admin-API defaults.
func applyAdminDefaults(cfg *AdminConfig) {
	if cfg.Enabled && cfg.Addr == "" {
		cfg.Addr = ":9091"
	}
}

// applySyncDefaults sets the persistent-search session cap (spec §4.8).
func applySyncDefaults(cfg *SyncConfig) {
	if cfg.MaxSessions == 0 {
		cfg.MaxSessions = 100
	}
}

// GetDefaultConfig returns a Config with every default applied, suitable
// for a from-scratch 'ldapd init'.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
