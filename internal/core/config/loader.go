package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills in zero-valued settings with sensible defaults.
func (cfg *AppConfig) ApplyDefaults() {
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 30 * time.Second
	}

	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = 3
	}
	if cfg.Retry.BaseDelay == 0 {
		cfg.Retry.BaseDelay = 1 * time.Second
	}
	if cfg.Retry.MaxDelay == 0 {
		cfg.Retry.MaxDelay = 10 * time.Second
	}
	if cfg.Retry.BackoffFactor == 0 {
		cfg.Retry.BackoffFactor = 2.0
	}

	if cfg.Polling.MetadataBaseDelay == 0 {
		cfg.Polling.MetadataBaseDelay = 2 * time.Second
	}
	if cfg.Polling.MetadataMaxDelay == 0 {
		cfg.Polling.MetadataMaxDelay = 10 * time.Second
	}
	if cfg.Polling.MetadataMaxAttempts == 0 {
		cfg.Polling.MetadataMaxAttempts = 30
	}
	if cfg.Polling.ProgressInterval == 0 {
		cfg.Polling.ProgressInterval = 5 * time.Second
	}
	if cfg.Polling.ProgressMaxAttempts == 0 {
		cfg.Polling.ProgressMaxAttempts = 60
	}

	if cfg.Network.ProbeInterval == 0 {
		cfg.Network.ProbeInterval = 15 * time.Second
	}
	if cfg.Network.ProbePath == "" {
		cfg.Network.ProbePath = "/health"
	}
}
