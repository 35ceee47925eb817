package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8281, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Fetch.ConnectTimeout)
	assert.Equal(t, 30*time.Second, cfg.Fetch.ReadTimeout)
	assert.Equal(t, 120*time.Second, cfg.Office.TaskTimeout)
	assert.Equal(t, 50, cfg.Office.MaxTasksPerProcess)
	assert.Equal(t, "localhost", cfg.Printer.Host)
	assert.Equal(t, 631, cfg.Printer.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	content := `
server:
  port: 9000
printer:
  name: Office_Laser
office:
  max_tasks_per_process: 10
webhooks:
  endpoints:
    - name: ops
      url: http://hooks.local/print
      secret: shh
      events: [job_failed]
logging:
  level: debug
  format: console
`
	path := filepath.Join(t.TempDir(), "printbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "Office_Laser", cfg.Printer.Name)
	assert.Equal(t, 10, cfg.Office.MaxTasksPerProcess)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)

	// Unset fields keep their defaults.
	assert.Equal(t, 631, cfg.Printer.Port)
	assert.Equal(t, 120*time.Second, cfg.Office.TaskTimeout)

	require.Len(t, cfg.Webhooks.Endpoints, 1)
	assert.Equal(t, "ops", cfg.Webhooks.Endpoints[0].Name)
	assert.Equal(t, []string{"job_failed"}, cfg.Webhooks.Endpoints[0].Events)

	assert.NoError(t, cfg.Validate())
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "printbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PRINTBRIDGE_PORT", "9999")
	t.Setenv("PRINTBRIDGE_PRINTER", "Basement")
	t.Setenv("PRINTBRIDGE_OFFICE_PATH", "/opt/libreoffice")
	t.Setenv("PRINTBRIDGE_LOG_LEVEL", "warn")

	cfg := defaults()
	cfg.ApplyEnv()

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "Basement", cfg.Printer.Name)
	assert.Equal(t, "/opt/libreoffice", cfg.Office.InstallPath)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestApplyEnvIgnoresBadPort(t *testing.T) {
	t.Setenv("PRINTBRIDGE_PORT", "not-a-port")

	cfg := defaults()
	cfg.ApplyEnv()

	assert.Equal(t, 8281, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }, "server port"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "server port"},
		{"zero fetch connect timeout", func(c *Config) { c.Fetch.ConnectTimeout = 0 }, "connect timeout"},
		{"zero fetch read timeout", func(c *Config) { c.Fetch.ReadTimeout = 0 }, "read timeout"},
		{"zero office timeout", func(c *Config) { c.Office.TaskTimeout = 0 }, "task timeout"},
		{"zero office max tasks", func(c *Config) { c.Office.MaxTasksPerProcess = 0 }, "max tasks"},
		{"bad printer port", func(c *Config) { c.Printer.Port = 0 }, "printer port"},
		{"auth without secret", func(c *Config) { c.Auth.PasswordHash = "$2a$10$abc" }, "jwt_secret"},
		{"negative retry count", func(c *Config) { c.Webhooks.RetryCount = -1 }, "retry count"},
		{"endpoint without url", func(c *Config) {
			c.Webhooks.Endpoints = []WebhookEndpoint{{Name: "bad"}}
		}, "url is required"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "log level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
