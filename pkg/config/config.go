package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents ldapd's static configuration.
//
// This structure captures the server-level concerns the spec treats as
// ambient rather than part of the wire protocol:
//   - Logging configuration
//   - Listener and shutdown behavior (spec §4.6, connection core)
//   - Mapping-tree backend mounts (spec §4.5)
//   - Sync-session concurrency limits (spec §4.8)
//   - Metrics and the admin HTTP API
//
// Dynamic state (entries themselves) lives in the configured backends,
// not in this file.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (LDAPD_*)
//  2. Configuration file (YAML)
//  3. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Server controls the LDAP listener and graceful-shutdown behavior
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Metrics contains Prometheus metrics server configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Admin contains the admin HTTP API ldapdctl talks to
	Admin AdminConfig `mapstructure:"admin" yaml:"admin"`

	// Backend lists the mapping-tree backend mounts (spec §4.5)
	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`

	// Sync bounds the content-sync persistent-search engine (spec §4.8)
	Sync SyncConfig `mapstructure:"sync" yaml:"sync"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// ServerConfig configures the LDAP listener (spec §4.6, connection core).
type ServerConfig struct {
	// ListenAddr is the host:port the LDAP listener binds, e.g. ":389".
	ListenAddr string `mapstructure:"listen_addr" validate:"required" yaml:"listen_addr"`

	// ShutdownTimeout bounds how long graceful shutdown waits for
	// in-flight operations and persistent searches to drain.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// MaxConnections caps concurrently accepted connections; zero means
	// unbounded.
	MaxConnections int `mapstructure:"max_connections" validate:"omitempty,min=1" yaml:"max_connections"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no metrics are collected (zero overhead).
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP server are enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Addr is the host:port the metrics endpoint binds.
	// Default: ":9090"
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// AdminConfig configures the admin HTTP API ldapdctl talks to: health
// probes, metrics, and read-only mapping-tree and sync-session inspection,
// none of which is part of the LDAP wire protocol itself.
type AdminConfig struct {
	// Enabled controls whether the admin HTTP API is served.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Addr is the host:port the admin API binds.
	Addr string `mapstructure:"addr" yaml:"addr"`

	// JWTSigningKey signs and verifies ldapdctl's bearer tokens. Required
	// whenever the admin API is enabled.
	JWTSigningKey string `mapstructure:"jwt_signing_key" yaml:"jwt_signing_key,omitempty"`
}

// BackendConfig lists the named backends the mapping tree mounts at
// startup (spec §4.5).
type BackendConfig struct {
	Backends []NamedBackendConfig `mapstructure:"backends" validate:"required,min=1,dive" yaml:"backends"`
}

// NamedBackendConfig names and locates one mapping-tree backend.
type NamedBackendConfig struct {
	// Name identifies this backend instance among its siblings at a node.
	Name string `mapstructure:"name" validate:"required" yaml:"name"`

	// Suffix is the DN suffix the mapping tree mounts this backend at.
	Suffix string `mapstructure:"suffix" validate:"required" yaml:"suffix"`

	// DataDir is the badger database directory for this backend.
	DataDir string `mapstructure:"data_dir" validate:"required" yaml:"data_dir"`
}

// SyncConfig bounds the content-sync persistent-search engine (spec
// §4.8: a configurable concurrency cap on persistent-search sessions).
type SyncConfig struct {
	// MaxSessions caps concurrently registered persistent-search
	// sessions; Manager.Register returns ErrTooManySessions beyond it.
	MaxSessions int `mapstructure:"max_sessions" validate:"omitempty,min=1" yaml:"max_sessions"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (LDAPD_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Configure viper
	setupViper(v, configPath)

	// Read configuration file if it exists
	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	// If no config file was found, use defaults
	if !configFileFound {
		cfg := GetDefaultConfig()
		if err := Validate(cfg); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
		return cfg, nil
	}

	// Unmarshal into config struct with custom decode hooks
	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply defaults for any missing values
	ApplyDefaults(&cfg)

	// Validate configuration
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages.
// It checks if the config file exists and provides user-friendly instructions if not.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: User-friendly error with instructions if config not found
func MustLoad(configPath string) (*Config, error) {
	// Determine config path
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  ldapd init\n\n"+
				"Or specify a custom config file:\n"+
				"  ldapd <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  ldapd init --config %s",
				configPath, configPath)
		}
	}

	// Load configuration
	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path.
// The configuration is saved in YAML format using proper yaml tags.
func SaveConfig(cfg *Config, path string) error {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Use yaml.Marshal directly to respect yaml tags
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to file with restricted permissions (0600 = owner read/write only).
	// This is important because config files may carry the admin API's JWT signing key.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Set up environment variable support
	// Environment variables use LDAPD_ prefix and underscores
	// Example: LDAPD_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("LDAPD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Configure config file search
	if configPath != "" {
		// Use explicitly specified config file
		v.SetConfigFile(configPath)
	} else {
		// Use default location: $XDG_CONFIG_HOME/ldapd/config.yaml
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// Validate runs struct-tag validation over cfg using the registered
// `validate` tags (e.g. "required", "oneof=...", "min=1,dive").
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		// Check if error is "config file not found"
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found is acceptable - use defaults
			return false, nil
		}
		// Also check for os.PathError when explicit config file doesn't exist
		if os.IsNotExist(err) {
			// Config file not found is acceptable - use defaults
			return false, nil
		}
		// Other errors are problems
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
	)
}

// durationDecodeHook returns a mapstructure decode hook that converts strings
// to time.Duration. This enables config files to use human-readable durations
// like "30s", "5m", "1h".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		// Only handle conversion to time.Duration
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			// Parse duration string like "30s", "5m", "1h"
			return time.ParseDuration(v)
		case int:
			// Assume nanoseconds for raw integers
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	// Check XDG_CONFIG_HOME
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "ldapd")
	}

	// Fall back to ~/.config
	home, err := os.UserHomeDir()
	if err != nil {
		// If we can't get home dir, use current directory as last resort
		return "."
	}

	return filepath.Join(home, ".config", "ldapd")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	path := GetDefaultConfigPath()
	_, err := os.Stat(path)
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
