// Package config provides configuration management for the REST API server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Default configuration values.
const (
	DefaultServerPort      = 8001
	DefaultProbePort       = 0
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMetricsEnabled  = true
	DefaultEventsEnabled   = true
	DefaultEnvFile         = ".env"
)

// DefaultCORSAllowedOrigins allows every origin.
var DefaultCORSAllowedOrigins = []string{"*"}

// Environment variable names.
const (
	EnvServerPort         = "APP_SERVER_PORT"
	EnvProbePort          = "APP_PROBE_PORT"
	EnvLogLevel           = "APP_LOG_LEVEL"
	EnvShutdownTimeout    = "APP_SHUTDOWN_TIMEOUT"
	EnvMetricsEnabled     = "APP_METRICS_ENABLED"
	EnvEventsEnabled      = "APP_EVENTS_ENABLED"
	EnvCORSAllowedOrigins = "APP_CORS_ALLOWED_ORIGINS"
)

// Config holds the application configuration.
type Config struct {
	ServerPort      int           `toml:"server_port"`
	ProbePort       int           `toml:"probe_port"` // Probe server port (0 = disabled).
	LogLevel        string        `toml:"log_level"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	MetricsEnabled  bool          `toml:"metrics_enabled"`

	// EventsEnabled turns on the /ws item change feed.
	EventsEnabled bool `toml:"events_enabled"`

	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
}

// Validation errors.
var (
	ErrInvalidServerPort      = errors.New("server port must be between 1 and 65535")
	ErrInvalidLogLevel        = errors.New("log level must be one of: debug, info, warn, error")
	ErrInvalidShutdownTimeout = errors.New("shutdown timeout must be positive")
	ErrInvalidProbePort       = errors.New(
		"probe port must be between 0 and 65535",
	)
	ErrProbePortConflict = errors.New(
		"probe port must differ from server port when probe port is not 0",
	)
	ErrUnknownConfigKey = errors.New("unknown configuration key")
)

// Load builds the configuration from defaults, the optional TOML file at
// path, a .env file in the working directory and the process environment,
// each layer overriding the previous one.
func Load(path string) (*Config, error) {
	cfg := New()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := loadDotEnv(DefaultEnvFile); err != nil {
		return nil, fmt.Errorf("loading env file %s: %w", DefaultEnvFile, err)
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// New returns a Config populated with default values.
func New() *Config {
	return &Config{
		ServerPort:         DefaultServerPort,
		ProbePort:          DefaultProbePort,
		LogLevel:           DefaultLogLevel,
		ShutdownTimeout:    DefaultShutdownTimeout,
		MetricsEnabled:     DefaultMetricsEnabled,
		EventsEnabled:      DefaultEventsEnabled,
		CORSAllowedOrigins: append([]string(nil), DefaultCORSAllowedOrigins...),
	}
}

// loadFromFile decodes a TOML file over the current values.
// Keys that do not map to a Config field are rejected.
func (c *Config) loadFromFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return err
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return fmt.Errorf("%w: %s", ErrUnknownConfigKey, strings.Join(keys, ", "))
	}

	return nil
}

// loadDotEnv exports variables from an env file without overriding ones
// already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// loadFromEnv loads configuration values from environment variables.
func (c *Config) loadFromEnv() error {
	if val := os.Getenv(EnvServerPort); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvServerPort, err)
		}
		c.ServerPort = port
	}

	if val := os.Getenv(EnvProbePort); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvProbePort, err)
		}
		c.ProbePort = port
	}

	if val := os.Getenv(EnvLogLevel); val != "" {
		c.LogLevel = val
	}

	if val := os.Getenv(EnvShutdownTimeout); val != "" {
		timeout, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvShutdownTimeout, err)
		}
		c.ShutdownTimeout = timeout
	}

	if val := os.Getenv(EnvMetricsEnabled); val != "" {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvMetricsEnabled, err)
		}
		c.MetricsEnabled = enabled
	}

	if val := os.Getenv(EnvEventsEnabled); val != "" {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvEventsEnabled, err)
		}
		c.EventsEnabled = enabled
	}

	if val := os.Getenv(EnvCORSAllowedOrigins); val != "" {
		c.CORSAllowedOrigins = splitList(val)
	}

	return nil
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return ErrInvalidServerPort
	}

	if c.ProbePort < 0 || c.ProbePort > 65535 {
		return ErrInvalidProbePort
	}

	if c.ProbePort != 0 && c.ProbePort == c.ServerPort {
		return ErrProbePortConflict
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return ErrInvalidLogLevel
	}

	if c.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}

	return nil
}

// Address returns the server address in host:port format.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

// ProbeAddress returns the probe server address in host:port format.
func (c *Config) ProbeAddress() string {
	return fmt.Sprintf(":%d", c.ProbePort)
}

// splitList splits a comma-separated value, dropping empty entries.
func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
