package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRun_InvalidFlag(t *testing.T) {
	if code := run([]string{"-no-such-flag"}); code != 2 {
		t.Errorf("run() = %d, want 2", code)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{
			name: "missing config file",
			args: []string{"-config", filepath.Join(os.TempDir(), "does-not-exist.toml")},
		},
		{
			name: "invalid port",
			env:  map[string]string{"APP_SERVER_PORT": "70000"},
		},
		{
			name: "invalid log level",
			env:  map[string]string{"APP_LOG_LEVEL": "verbose"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			chdir(t, t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			// Act
			code := run(tt.args)

			// Assert
			if code != 1 {
				t.Errorf("run() = %d, want 1", code)
			}
		})
	}
}
