/*
Package config loads the tracker's settings.

PURPOSE:
  One Config value carries everything the server and CLI need: listen
  port, CORS origins, database path, business timezone, logging, recruiter
  aliases, company short names and the vacancy baseline.

PRECEDENCE (lowest to highest):
  1. DefaultConfig()
  2. YAML file (missing file is not an error)
  3. .env file, loaded into the process environment
  4. TALENT_* environment variables
  5. CLI flags (applied by cmd/server)

SEE ALSO:
  - cmd/server/main.go: Flag overrides
  - logging/logging.go: Consumes Logging
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	EnvPort            = "TALENT_PORT"
	EnvDatabase        = "TALENT_DB"
	EnvTimezone        = "TALENT_TIMEZONE"
	EnvCORSOrigins     = "TALENT_CORS_ORIGINS"
	EnvLogLevel        = "TALENT_LOG_LEVEL"
	EnvLogDevelopment  = "TALENT_LOG_DEVELOPMENT"
	EnvVacancyBaseline = "TALENT_VACANCY_BASELINE"
	EnvImportDir       = "TALENT_IMPORT_DIR"
)

// Config holds all tracker configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Timezone  string          `yaml:"timezone"`
	Logging   LoggingConfig   `yaml:"logging"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Import    ImportConfig    `yaml:"import"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// DatabaseConfig selects the store. ":memory:" keeps everything in RAM.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// DashboardConfig holds the reporting knobs.
type DashboardConfig struct {
	VacancyBaseline   int               `yaml:"vacancy_baseline"`
	TopChannels       int               `yaml:"top_channels"`
	RecruiterAliases  map[string]string `yaml:"recruiter_aliases"`
	CompanyShortNames map[string]string `yaml:"company_short_names"`
}

// ImportConfig enables the drop-folder importer. An empty WatchDir
// disables it.
type ImportConfig struct {
	WatchDir string `yaml:"watch_dir"`
	Interval string `yaml:"interval"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		},
		Database: DatabaseConfig{Path: "talent.db"},
		Timezone: "America/Mexico_City",
		Logging:  LoggingConfig{Level: "info"},
		Dashboard: DashboardConfig{
			VacancyBaseline: 28,
		},
		Import: ImportConfig{Interval: "1m"},
	}
}

// Load reads the YAML file at path (if any), then the .env file at envFile
// (if any), then applies TALENT_* overrides.
func Load(path, envFile string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if envFile != "" {
		// godotenv never overrides variables already set in the environment.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv(EnvDatabase); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(EnvTimezone); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv(EnvCORSOrigins); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogDevelopment); v != "" {
		dev, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvLogDevelopment, err)
		}
		c.Logging.Development = dev
	}
	if v := os.Getenv(EnvVacancyBaseline); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvVacancyBaseline, err)
		}
		c.Dashboard.VacancyBaseline = n
	}
	if v := os.Getenv(EnvImportDir); v != "" {
		c.Import.WatchDir = v
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.Dashboard.VacancyBaseline < 0 {
		return fmt.Errorf("invalid vacancy baseline %d", c.Dashboard.VacancyBaseline)
	}
	return nil
}

// GetImportInterval returns the drop-folder polling interval.
func (c *Config) GetImportInterval() time.Duration {
	d, err := time.ParseDuration(c.Import.Interval)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

// Addr is the listen address for the configured port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
