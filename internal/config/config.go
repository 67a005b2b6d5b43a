package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/meisai-dev/meisai/internal/diagnosis"
	"github.com/meisai-dev/meisai/internal/logger"
)

// FileName is the config file looked up in the working directory.
const FileName = "meisai.yaml"

// Environment overrides, applied after the config file.
const (
	EnvAddr        = "MEISAI_ADDR"
	EnvLogLevel    = "MEISAI_LOG_LEVEL"
	EnvLogFormat   = "MEISAI_LOG_FORMAT"
	EnvRules       = "MEISAI_RULES"
	EnvMaxUploadMB = "MEISAI_MAX_UPLOAD_MB"
)

// Config represents the top-level meisai.yaml configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	// Rules is a rule book YAML file; empty means the built-in rules.
	Rules     string           `yaml:"rules,omitempty"`
	Import    ImportConfig     `yaml:"import"`
	Diagnosis diagnosis.Config `yaml:"diagnosis"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr            string          `yaml:"addr"`
	MaxUploadMB     int             `yaml:"max_upload_mb"`
	ShutdownSeconds int             `yaml:"shutdown_seconds"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig is a token bucket: one token every EveryMS milliseconds,
// up to Burst. A zero Burst disables limiting.
type RateLimitConfig struct {
	EveryMS int `yaml:"every_ms"`
	Burst   int `yaml:"burst"`
}

// LoggingConfig selects the log level and handler format ("text" or "json").
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ImportConfig controls directory scans in `meisai convert --dir`.
type ImportConfig struct {
	Dir     string `yaml:"dir,omitempty"`
	Archive bool   `yaml:"archive"`
}

// Load reads a meisai.yaml file from disk. Fields the file leaves out keep
// their defaults. Relative rules and import paths are taken relative to the
// file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	base := filepath.Dir(path)
	cfg.Rules = rebase(base, cfg.Rules)
	cfg.Import.Dir = rebase(base, cfg.Import.Dir)
	return cfg, nil
}

func rebase(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			MaxUploadMB:     10,
			ShutdownSeconds: 10,
			RateLimit: RateLimitConfig{
				EveryMS: 100,
				Burst:   30,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Diagnosis: *diagnosis.DefaultConfig(),
	}
}

// Open resolves the effective configuration: .env is loaded into the
// environment, then path (or ./meisai.yaml when path is empty and the file
// exists, or the defaults), then MEISAI_* overrides. The result is validated.
func Open(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		if _, err := os.Stat(FileName); err == nil {
			path = FileName
		}
	}
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays the MEISAI_* environment variables that are set.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv(EnvRules); v != "" {
		c.Rules = v
	}
	if v := os.Getenv(EnvMaxUploadMB); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not a number", EnvMaxUploadMB, v)
		}
		c.Server.MaxUploadMB = n
	}
	return nil
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}
	if c.Server.MaxUploadMB < 1 {
		errs = append(errs, fmt.Errorf("server.max_upload_mb must be at least 1, got %d", c.Server.MaxUploadMB))
	}
	if c.Server.ShutdownSeconds < 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_seconds must not be negative, got %d", c.Server.ShutdownSeconds))
	}
	if rl := c.Server.RateLimit; rl.Burst < 0 || (rl.Burst > 0 && rl.EveryMS < 1) {
		errs = append(errs, fmt.Errorf("server.rate_limit: every_ms %d / burst %d is not a valid limit", rl.EveryMS, rl.Burst))
	}
	if _, ok := logger.ParseLevel(c.Logging.Level); !ok {
		errs = append(errs, fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level))
	}
	if f := strings.ToLower(c.Logging.Format); f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("logging.format %q must be text or json", c.Logging.Format))
	}
	if err := c.Diagnosis.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("diagnosis: %w", err))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("configuration validation failed: %w", errors.Join(errs...))
}
