package app

import (
	"errors"
	"fmt"
	"strings"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	WorkloadPath string // hcl workload files
	ModulesPath  string // hcl kernel manifests

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	// WorkerCount is the default number of workers per queue; zero uses
	// each device's compute units.
	WorkerCount int
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.WorkloadPath == "" {
		return nil, errors.New("WorkloadPath is a required configuration field and cannot be empty")
	}
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	if cfg.WorkerCount < 0 {
		return nil, fmt.Errorf("invalid worker count %d: must not be negative", cfg.WorkerCount)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid health check port %d", cfg.HealthcheckPort)
	}
	return &cfg, nil
}
