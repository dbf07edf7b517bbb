// Package config loads the YAML configuration consumed by the CLI.
package config

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the file-driven configuration of a store handle.
type Config struct {
	Backend  string `yaml:"backend"`
	URL      string `yaml:"url"`
	User     string `yaml:"user"`
	Strict   bool   `yaml:"strict"`
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Backend:  "sqlite",
		User:     "anon",
		LogLevel: "warn",
	}
}

// Load reads and validates a YAML config file. Fields absent from the file
// keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the fields that cannot be defaulted.
func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("config: url is required")
	}
	switch c.Backend {
	case "", "sqlite", "sqlite3", "postgres", "postgresql", "pgx":
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Logger builds a console zap logger at the configured level.
func (c Config) Logger() (*zap.Logger, error) {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zc.Build()
}

func parseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.WarnLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: unknown log_level %q", s)
	}
	return level, nil
}
