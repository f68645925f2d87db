// Package config loads the optional albator.yaml file and applies the
// environment overrides recognized across all commands: DRY_RUN,
// ALBATOR_STATE_DIR, and ALBATOR_LOG_FORMAT.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment variables recognized by every command.
const (
	EnvDryRun    = "DRY_RUN"
	EnvStateDir  = "ALBATOR_STATE_DIR"
	EnvLogFormat = "ALBATOR_LOG_FORMAT"
)

// Config holds run-level settings. Zero values fall back to defaults.
type Config struct {
	StateDir string `yaml:"state_dir,omitempty"`
	LogLevel string `yaml:"log_level,omitempty" validate:"omitempty,oneof=trace debug info warn error"`
	// LogFormat is a presentation concern only; it never affects the
	// operation protocol.
	LogFormat string `yaml:"log_format,omitempty" validate:"omitempty,oneof=json console"`
	DryRun    bool   `yaml:"dry_run,omitempty"`
	// OperationTimeoutSeconds bounds each provider call.
	OperationTimeoutSeconds int `yaml:"operation_timeout,omitempty" validate:"omitempty,min=1,max=3600"`
	// KeepRuns is how many run directories cleanup retains.
	KeepRuns int `yaml:"keep_runs,omitempty" validate:"omitempty,min=1,max=1000"`
}

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		validateInst = validator.New()
	})
	return validateInst
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		StateDir:                filepath.Join(os.TempDir(), "albator"),
		LogLevel:                "info",
		LogFormat:               "console",
		OperationTimeoutSeconds: 30,
		KeepRuns:                10,
	}
}

// Load reads a config file, merges it over the defaults, applies env
// overrides, and validates the result. A missing file is not an error; the
// defaults apply (matching the original tool's behavior).
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to defaults
		case err != nil:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		default:
			var fileCfg Config
			if err := yaml.Unmarshal(data, &fileCfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
			cfg.merge(fileCfg)
		}
	}

	cfg.applyEnv()

	if err := validatorInstance().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) merge(other Config) {
	if other.StateDir != "" {
		c.StateDir = other.StateDir
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.DryRun {
		c.DryRun = true
	}
	if other.OperationTimeoutSeconds > 0 {
		c.OperationTimeoutSeconds = other.OperationTimeoutSeconds
	}
	if other.KeepRuns > 0 {
		c.KeepRuns = other.KeepRuns
	}
}

func (c *Config) applyEnv() {
	if raw := os.Getenv(EnvDryRun); raw != "" {
		if forced, err := strconv.ParseBool(raw); err == nil && forced {
			c.DryRun = true
		}
	}
	if dir := os.Getenv(EnvStateDir); dir != "" {
		c.StateDir = dir
	}
	if format := os.Getenv(EnvLogFormat); format != "" {
		c.LogFormat = format
	}
}
