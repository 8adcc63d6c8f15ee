package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TsubasaBE/go-xls/sheet"
)

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "normal", cfg.Logging.ConsoleLogger.Level)
	assert.Equal(t, 256, cfg.Build.LateScanLimit)
	assert.True(t, cfg.Dump.NumberFormat)

	p, err := cfg.Build.Orphans()
	require.NoError(t, err)
	assert.Equal(t, sheet.NearestPreceding, p)
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `version: 1
logging:
  console:
    level: debug
build:
  workers: 3
  orphan_policy: keep-in-sheet
dump:
  show_payload: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfiguration(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.ConsoleLogger.Level)
	assert.Equal(t, "none", cfg.Logging.FileLogger.Level, "defaults survive the overlay")
	assert.Equal(t, 3, cfg.Build.Workers)
	assert.Equal(t, 256, cfg.Build.LateScanLimit)
	assert.True(t, cfg.Dump.ShowPayload)
	assert.True(t, cfg.Dump.NumberFormat)

	p, err := cfg.Build.Orphans()
	require.NoError(t, err)
	assert.Equal(t, sheet.KeepInSheet, p)
}

func TestLoadConfiguration_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", "version: 1\nbuild:\n  threads: 2\n"},
		{"bad level", "version: 1\nlogging:\n  console:\n    level: loud\n"},
		{"bad policy", "version: 1\nbuild:\n  orphan_policy: first\n"},
		{"negative workers", "version: 1\nbuild:\n  workers: -1\n"},
		{"bad version", "version: 2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := LoadConfiguration(path)
			assert.Error(t, err)
		})
	}
}

func TestDumpRoundTrip(t *testing.T) {
	cfg, err := LoadConfiguration("")
	require.NoError(t, err)
	data, err := Dump(cfg)
	require.NoError(t, err)

	back, err := unmarshalConfig(data, &Config{})
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
	assert.NotEmpty(t, Prepare())
}

func TestPrepareLoggerNone(t *testing.T) {
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "none"},
	}
	log, err := conf.Prepare()
	require.NoError(t, err)
	log.Info("discarded")
}

func TestPrepareLoggerFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.log")
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "debug", Destination: dest, Mode: "overwrite"},
	}
	log, err := conf.Prepare()
	require.NoError(t, err)
	log.Debug("written")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written")
}
