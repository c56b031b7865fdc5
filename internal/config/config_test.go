package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoad_DefaultValues(t *testing.T) {
	// Arrange - Clear all environment variables
	clearEnvVars(t)
	chdir(t, t.TempDir())

	// Act
	cfg, err := Load("")

	// Assert
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.ServerPort != DefaultServerPort {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, DefaultServerPort)
	}
	if cfg.ProbePort != DefaultProbePort {
		t.Errorf("ProbePort = %d, want %d", cfg.ProbePort, DefaultProbePort)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %s, want %s", cfg.LogLevel, DefaultLogLevel)
	}
	if cfg.ShutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("ShutdownTimeout = %v, want %v", cfg.ShutdownTimeout, DefaultShutdownTimeout)
	}
	if cfg.MetricsEnabled != DefaultMetricsEnabled {
		t.Errorf("MetricsEnabled = %v, want %v", cfg.MetricsEnabled, DefaultMetricsEnabled)
	}
	if cfg.EventsEnabled != DefaultEventsEnabled {
		t.Errorf("EventsEnabled = %v, want %v", cfg.EventsEnabled, DefaultEventsEnabled)
	}
	if !reflect.DeepEqual(cfg.CORSAllowedOrigins, []string{"*"}) {
		t.Errorf("CORSAllowedOrigins = %v, want [*]", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(*testing.T, *Config)
	}{
		{
			name: "custom server port",
			envVars: map[string]string{
				EnvServerPort: "9090",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ServerPort != 9090 {
					t.Errorf("ServerPort = %d, want 9090", cfg.ServerPort)
				}
			},
		},
		{
			name: "custom probe port",
			envVars: map[string]string{
				EnvProbePort: "9091",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ProbePort != 9091 {
					t.Errorf("ProbePort = %d, want 9091", cfg.ProbePort)
				}
			},
		},
		{
			name: "custom log level",
			envVars: map[string]string{
				EnvLogLevel: "debug",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.LogLevel != "debug" {
					t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
				}
			},
		},
		{
			name: "custom shutdown timeout",
			envVars: map[string]string{
				EnvShutdownTimeout: "60s",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ShutdownTimeout != 60*time.Second {
					t.Errorf("ShutdownTimeout = %v, want 60s", cfg.ShutdownTimeout)
				}
			},
		},
		{
			name: "metrics and events disabled",
			envVars: map[string]string{
				EnvMetricsEnabled: "false",
				EnvEventsEnabled:  "false",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.MetricsEnabled {
					t.Error("MetricsEnabled = true, want false")
				}
				if cfg.EventsEnabled {
					t.Error("EventsEnabled = true, want false")
				}
			},
		},
		{
			name: "cors origins list",
			envVars: map[string]string{
				EnvCORSAllowedOrigins: "https://a.example, https://b.example,,",
			},
			validate: func(t *testing.T, cfg *Config) {
				want := []string{"https://a.example", "https://b.example"}
				if !reflect.DeepEqual(cfg.CORSAllowedOrigins, want) {
					t.Errorf("CORSAllowedOrigins = %v, want %v", cfg.CORSAllowedOrigins, want)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			clearEnvVars(t)
			chdir(t, t.TempDir())
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			// Act
			cfg, err := Load("")

			// Assert
			if err != nil {
				t.Fatalf("Load() returned unexpected error: %v", err)
			}
			tt.validate(t, cfg)
		})
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	// Arrange
	clearEnvVars(t)
	dir := t.TempDir()
	chdir(t, dir)
	path := writeFile(t, dir, "config.toml", `
server_port = 9000
probe_port = 9100
log_level = "warn"
shutdown_timeout = "5s"
metrics_enabled = false
cors_allowed_origins = ["https://ci.example"]
`)

	// Act
	cfg, err := Load(path)

	// Assert
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.ServerPort != 9000 {
		t.Errorf("ServerPort = %d, want 9000", cfg.ServerPort)
	}
	if cfg.ProbePort != 9100 {
		t.Errorf("ProbePort = %d, want 9100", cfg.ProbePort)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %s, want warn", cfg.LogLevel)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 5s", cfg.ShutdownTimeout)
	}
	if cfg.MetricsEnabled {
		t.Error("MetricsEnabled = true, want false")
	}
	if !cfg.EventsEnabled {
		t.Error("EventsEnabled should keep its default when not in the file")
	}
	if !reflect.DeepEqual(cfg.CORSAllowedOrigins, []string{"https://ci.example"}) {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_EnvOverridesConfigFile(t *testing.T) {
	// Arrange
	clearEnvVars(t)
	dir := t.TempDir()
	chdir(t, dir)
	path := writeFile(t, dir, "config.toml", "server_port = 9000\nlog_level = \"warn\"\n")
	t.Setenv(EnvServerPort, "9500")

	// Act
	cfg, err := Load(path)

	// Assert
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.ServerPort != 9500 {
		t.Errorf("ServerPort = %d, want 9500", cfg.ServerPort)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %s, want warn", cfg.LogLevel)
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	// Arrange
	clearEnvVars(t)
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, dir, DefaultEnvFile, EnvServerPort+"=7000\n"+EnvLogLevel+"=debug\n")
	t.Setenv(EnvLogLevel, "error")

	// Act
	cfg, err := Load("")

	// Assert
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.ServerPort != 7000 {
		t.Errorf("ServerPort = %d, want 7000 from .env", cfg.ServerPort)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %s, want error (process env wins over .env)", cfg.LogLevel)
	}
}

func TestLoad_ConfigFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "unknown key",
			content: "server_port = 9000\nauth_mode = \"basic\"\n",
			wantErr: ErrUnknownConfigKey,
		},
		{
			name:    "malformed toml",
			content: "server_port = \n",
		},
		{
			name:    "wrong type",
			content: "server_port = \"high\"\n",
		},
		{
			name:    "invalid value",
			content: "server_port = 70000\n",
			wantErr: ErrInvalidServerPort,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			clearEnvVars(t)
			dir := t.TempDir()
			chdir(t, dir)
			path := writeFile(t, dir, "config.toml", tt.content)

			// Act
			cfg, err := Load(path)

			// Assert
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
			if cfg != nil {
				t.Errorf("Load() expected nil config on error, got %+v", cfg)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	// Arrange
	clearEnvVars(t)
	dir := t.TempDir()
	chdir(t, dir)

	// Act
	_, err := Load(filepath.Join(dir, "missing.toml"))

	// Assert
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, want os.ErrNotExist", err)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr error
	}{
		{
			name:    "invalid server port - zero",
			envVars: map[string]string{EnvServerPort: "0"},
			wantErr: ErrInvalidServerPort,
		},
		{
			name:    "invalid server port - too high",
			envVars: map[string]string{EnvServerPort: "65536"},
			wantErr: ErrInvalidServerPort,
		},
		{
			name:    "invalid probe port - negative",
			envVars: map[string]string{EnvProbePort: "-1"},
			wantErr: ErrInvalidProbePort,
		},
		{
			name:    "probe port conflicts with server port",
			envVars: map[string]string{EnvServerPort: "8080", EnvProbePort: "8080"},
			wantErr: ErrProbePortConflict,
		},
		{
			name:    "invalid log level",
			envVars: map[string]string{EnvLogLevel: "invalid"},
			wantErr: ErrInvalidLogLevel,
		},
		{
			name:    "invalid shutdown timeout - zero",
			envVars: map[string]string{EnvShutdownTimeout: "0s"},
			wantErr: ErrInvalidShutdownTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			clearEnvVars(t)
			chdir(t, t.TempDir())
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			// Act
			cfg, err := Load("")

			// Assert
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
			if cfg != nil {
				t.Errorf("Load() expected nil config on error, got %+v", cfg)
			}
		})
	}
}

func TestLoad_ParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
	}{
		{name: "server port not a number", envVars: map[string]string{EnvServerPort: "abc"}},
		{name: "probe port not a number", envVars: map[string]string{EnvProbePort: "abc"}},
		{name: "shutdown timeout bad format", envVars: map[string]string{EnvShutdownTimeout: "invalid"}},
		{name: "metrics enabled not a bool", envVars: map[string]string{EnvMetricsEnabled: "notabool"}},
		{name: "events enabled not a bool", envVars: map[string]string{EnvEventsEnabled: "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			clearEnvVars(t)
			chdir(t, t.TempDir())
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			// Act
			cfg, err := Load("")

			// Assert
			if err == nil {
				t.Fatalf("Load() expected error, got nil")
			}
			if cfg != nil {
				t.Errorf("Load() expected nil config on error, got %+v", cfg)
			}
		})
	}
}

func TestConfig_Address(t *testing.T) {
	cfg := &Config{ServerPort: 8001, ProbePort: 9090}

	if got := cfg.Address(); got != ":8001" {
		t.Errorf("Address() = %s, want :8001", got)
	}
	if got := cfg.ProbeAddress(); got != ":9090" {
		t.Errorf("ProbeAddress() = %s, want :9090", got)
	}
}

func TestNew_DefaultsAreIndependent(t *testing.T) {
	// Arrange
	a := New()
	b := New()

	// Act
	a.CORSAllowedOrigins[0] = "https://changed.example"

	// Assert
	if b.CORSAllowedOrigins[0] != "*" {
		t.Errorf("CORSAllowedOrigins shared between configs: %v", b.CORSAllowedOrigins)
	}
	if DefaultCORSAllowedOrigins[0] != "*" {
		t.Errorf("DefaultCORSAllowedOrigins mutated: %v", DefaultCORSAllowedOrigins)
	}
}

// clearEnvVars unsets every APP_* variable for the duration of the test.
func clearEnvVars(t *testing.T) {
	t.Helper()
	envVars := []string{
		EnvServerPort,
		EnvProbePort,
		EnvLogLevel,
		EnvShutdownTimeout,
		EnvMetricsEnabled,
		EnvEventsEnabled,
		EnvCORSAllowedOrigins,
	}
	for _, env := range envVars {
		// t.Setenv restores the original value on cleanup.
		t.Setenv(env, "")
		if err := os.Unsetenv(env); err != nil {
			t.Fatalf("failed to unset env var %s: %v", env, err)
		}
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}
