package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.validate())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "Dashboard", cfg.Export.SheetName)
	assert.True(t, cfg.Archive.Enabled)
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
server:
  port: 9090
  read_timeout: 5s
logging:
  level: debug
archive:
  path: /tmp/runs.db
`), 0644))

	t.Setenv("ENGAGE_SERVER_PORT", "9191")
	t.Setenv("ENGAGE_SECURITY_RATE_LIMIT_RPS", "2.5")
	t.Setenv("ENGAGE_EXPORT_BOM", "false")

	cfg, err := LoadFrom(file)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port, "env wins over file")
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout, "file wins over default")
	assert.Equal(t, 60*time.Second, cfg.Server.WriteTimeout, "default kept")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tmp/runs.db", cfg.Archive.Path)
	assert.Equal(t, 2.5, cfg.Security.RateLimit.RPS)
	assert.False(t, cfg.Export.BOM)
}

func TestLoadFromMissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, false},
		{"zero read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }, false},
		{"zero upload limit", func(c *Config) { c.Server.MaxUploadBytes = 0 }, false},
		{"bad rate limit", func(c *Config) { c.Security.RateLimit.RPS = 0 }, false},
		{"rate limit disabled", func(c *Config) { c.Security.RateLimit = RateLimitConfig{} }, true},
		{"bad output", func(c *Config) { c.Logging.Output = "syslog" }, false},
		{"archive without path", func(c *Config) { c.Archive.Path = "" }, false},
		{"archive disabled", func(c *Config) { c.Archive = ArchiveConfig{} }, true},
		{"bad exporter", func(c *Config) { c.Telemetry.TraceExporter = "jaeger" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateFillsDefaults(t *testing.T) {
	cfg := Default()
	cfg.Export.SheetName = ""
	cfg.Logging.Format = "text"

	require.NoError(t, cfg.validate())
	assert.Equal(t, DefaultSheetName, cfg.Export.SheetName)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestResolvePaths(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Paths.BaseDir = base
	cfg.Paths.LogsDir = filepath.Join(base, "abs-logs")

	paths, err := cfg.ResolvePaths()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "data"), paths.DataDir)
	assert.Equal(t, filepath.Join(base, "abs-logs"), paths.LogsDir)
	assert.Equal(t, filepath.Join(base, "data", "leaderboards.db"), paths.ArchiveFile)
	assert.Equal(t, filepath.Join(base, "data", "reports", "out.csv"), paths.ReportPath("../../out.csv"))

	require.NoError(t, paths.EnsureDirectories())
	for _, dir := range []string{paths.DataDir, paths.ReportsDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
