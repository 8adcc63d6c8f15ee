// Package config loads the xlsagg configuration: embedded defaults with an
// optional YAML file laid over them.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"slices"

	yaml "gopkg.in/yaml.v3"

	"github.com/TsubasaBE/go-xls/sheet"
)

//go:embed config.yaml
var defaultConfig []byte

type (
	BuildConfig struct {
		Workers       int    `yaml:"workers"`
		LateScanLimit int    `yaml:"late_scan_limit"`
		OrphanPolicy  string `yaml:"orphan_policy"`
	}

	DumpConfig struct {
		NumberFormat bool `yaml:"number_format"`
		ShowPayload  bool `yaml:"show_payload"`
	}

	Config struct {
		Version int           `yaml:"version"`
		Logging LoggingConfig `yaml:"logging"`
		Build   BuildConfig   `yaml:"build"`
		Dump    DumpConfig    `yaml:"dump"`
	}
)

func unmarshalConfig(data []byte, cfg *Config) (*Config, error) {
	// Only fields defined above are accepted, so yaml.Unmarshal is not used.
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	return cfg, nil
}

// LoadConfiguration decodes the embedded defaults, overlays the file at path
// when path is not empty, and validates the result.
func LoadConfiguration(path string) (*Config, error) {
	cfg, err := unmarshalConfig(defaultConfig, &Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to process default configuration: %w", err)
	}
	if len(path) > 0 {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if cfg, err = unmarshalConfig(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to process configuration file: %w", err)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	levels := []string{"none", "normal", "debug"}
	switch {
	case cfg.Version != 1:
		return fmt.Errorf("config: unsupported version %d", cfg.Version)
	case !slices.Contains(levels, cfg.Logging.ConsoleLogger.Level):
		return fmt.Errorf("config: logging.console.level %q must be one of %v", cfg.Logging.ConsoleLogger.Level, levels)
	case !slices.Contains(levels, cfg.Logging.FileLogger.Level):
		return fmt.Errorf("config: logging.file.level %q must be one of %v", cfg.Logging.FileLogger.Level, levels)
	case cfg.Logging.FileLogger.Mode != "append" && cfg.Logging.FileLogger.Mode != "overwrite":
		return fmt.Errorf("config: logging.file.mode %q must be append or overwrite", cfg.Logging.FileLogger.Mode)
	case cfg.Build.Workers < 0:
		return fmt.Errorf("config: build.workers must not be negative")
	case cfg.Build.LateScanLimit < 0:
		return fmt.Errorf("config: build.late_scan_limit must not be negative")
	}
	if _, err := cfg.Build.Orphans(); err != nil {
		return fmt.Errorf("config: build.orphan_policy: %w", err)
	}
	return nil
}

// Orphans returns the configured orphan header/footer policy.
func (b BuildConfig) Orphans() (sheet.OrphanPolicy, error) {
	return sheet.ParseOrphanPolicy(b.OrphanPolicy)
}

// Prepare returns the embedded default configuration file.
func Prepare() []byte {
	return slices.Clone(defaultConfig)
}

// Dump marshals cfg back to YAML.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}
