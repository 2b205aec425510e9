// Package config loads the analyzer's configuration from a YAML file and
// overlays PEVM_-prefixed environment variables, in a
// load-then-overlay-then-validate sequence.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full process configuration: RPC endpoint, chain
// selection, HTTP bind address, database connection string, and the
// ambient logging/concurrency knobs.
type Config struct {
	ExecutionAPI     string        `yaml:"execution_api"`
	StartBlock       int64         `yaml:"start_block"`
	ChainID          int64         `yaml:"chain_id"`
	ServerAddr       string        `yaml:"server_addr"`
	DatabaseURL      string        `yaml:"database_url"`
	TraceConcurrency int           `yaml:"trace_concurrency"`
	Logging          LoggingConfig `yaml:"logging"`
}

// LoggingConfig controls the shared zerolog logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const defaultTraceConcurrency = 8

// Load reads the YAML file at path, overlays PEVM_-prefixed environment
// variables, fills in defaults, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	overlayEnv(&cfg)

	if cfg.TraceConcurrency <= 0 {
		cfg.TraceConcurrency = defaultTraceConcurrency
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func overlayEnv(cfg *Config) {
	if v := os.Getenv("PEVM_EXECUTION_API"); v != "" {
		cfg.ExecutionAPI = v
	}
	if v := os.Getenv("PEVM_SERVER_ADDR"); v != "" {
		cfg.ServerAddr = v
	}
	if v := os.Getenv("PEVM_DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("PEVM_START_BLOCK"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.StartBlock = n
		}
	}
	if v := os.Getenv("PEVM_CHAIN_ID"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.ChainID = n
		}
	}
	if v := os.Getenv("PEVM_TRACE_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TraceConcurrency = n
		}
	}
	if v := os.Getenv("PEVM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the fields every component depends on are present.
func (c *Config) Validate() error {
	if c.ExecutionAPI == "" {
		return fmt.Errorf("execution_api is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("database_url is required")
	}
	if c.ServerAddr == "" {
		return fmt.Errorf("server_addr is required")
	}
	if c.ChainID == 0 {
		return fmt.Errorf("chain_id is required")
	}
	return nil
}
